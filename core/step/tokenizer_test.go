package step

import (
	"strings"
	"testing"

	"github.com/vegarringdal/web-ifc/core/errors"
	"github.com/vegarringdal/web-ifc/core/tape"
)

// decoded is one token read back off the tape for assertions.
type decoded struct {
	kind TokenType
	text string
	ref  uint32
	real float64
}

// drainTape decodes every token on the tape.
func drainTape(t *testing.T, tp *tape.Tape) []decoded {
	t.Helper()
	if err := tp.MoveTo(0); err != nil {
		t.Fatalf("MoveTo(0) failed: %v", err)
	}
	var out []decoded
	for !tp.AtEnd() {
		tag, err := tp.ReadTag()
		if err != nil {
			t.Fatalf("ReadTag failed: %v", err)
		}
		d := decoded{kind: TokenType(tag)}
		switch d.kind {
		case TokenString, TokenEnum, TokenLabel:
			view, err := tp.ReadStringView()
			if err != nil {
				t.Fatalf("ReadStringView failed: %v", err)
			}
			d.text = string(view)
		case TokenRef:
			d.ref, err = tp.ReadUint32()
			if err != nil {
				t.Fatalf("ReadUint32 failed: %v", err)
			}
		case TokenReal:
			d.real, err = tp.ReadFloat64()
			if err != nil {
				t.Fatalf("ReadFloat64 failed: %v", err)
			}
		case TokenUnknown, TokenEmpty, TokenSetBegin, TokenSetEnd, TokenLineEnd:
		default:
			t.Fatalf("invalid tag %d on tape", tag)
		}
		out = append(out, d)
	}
	return out
}

func tokenize(t *testing.T, input string) (*tape.Tape, uint32) {
	t.Helper()
	tp := tape.New()
	lines, err := NewTokenizer(tp).Tokenize([]byte(input))
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	return tp, lines
}

func TestTokenizeDataLine(t *testing.T) {
	tp, lines := tokenize(t, "#1=IFCSIUNIT(*,.LENGTHUNIT.,.MILLI.,.METRE.);")
	if lines != 1 {
		t.Fatalf("lines = %d, want 1", lines)
	}

	tokens := drainTape(t, tp)
	want := []decoded{
		{kind: TokenRef, ref: 1},
		{kind: TokenLabel, text: "IFCSIUNIT"},
		{kind: TokenSetBegin},
		{kind: TokenUnknown},
		{kind: TokenEnum, text: "LENGTHUNIT"},
		{kind: TokenEnum, text: "MILLI"},
		{kind: TokenEnum, text: "METRE"},
		{kind: TokenSetEnd},
		{kind: TokenLineEnd},
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(tokens), len(want), tokens)
	}
	for i := range want {
		if tokens[i].kind != want[i].kind || tokens[i].text != want[i].text || tokens[i].ref != want[i].ref {
			t.Errorf("token %d = %+v, want %+v", i, tokens[i], want[i])
		}
	}
}

func TestTokenizeStructuralMarkers(t *testing.T) {
	input := `ISO-10303-21;
HEADER;
FILE_SCHEMA(('IFC2X3'));
ENDSEC;
DATA;
#1=IFCPROJECT('guid',$,$,$,$,$,$,$,#2);
ENDSEC;
END-ISO-10303-21;`
	tp, lines := tokenize(t, input)
	if lines != 2 {
		t.Fatalf("lines = %d, want 2 (one header record, one entity)", lines)
	}

	tokens := drainTape(t, tp)
	// Markers leave no tokens: the stream starts with the header label.
	if tokens[0].kind != TokenLabel || tokens[0].text != "FILE_SCHEMA" {
		t.Errorf("first token = %+v, want FILE_SCHEMA label", tokens[0])
	}
	lineEnds := 0
	for _, tok := range tokens {
		if tok.kind == TokenLineEnd {
			lineEnds++
		}
	}
	if lineEnds != 2 {
		t.Errorf("LINE_END count = %d, want 2", lineEnds)
	}
}

func TestTokenizeStringEscapes(t *testing.T) {
	tp, _ := tokenize(t, "#1=IFCPROJECT('it''s a name');")
	tokens := drainTape(t, tp)
	var str *decoded
	for i := range tokens {
		if tokens[i].kind == TokenString {
			str = &tokens[i]
		}
	}
	if str == nil {
		t.Fatal("no STRING token found")
	}
	// The doubled quote stays raw in the payload for round-trip fidelity.
	if str.text != "it''s a name" {
		t.Errorf("string payload = %q, want raw doubled quote preserved", str.text)
	}
}

func TestTokenizeStringWithSemicolon(t *testing.T) {
	tp, lines := tokenize(t, "FILE_DESCRIPTION(('d'),'2;1');")
	if lines != 1 {
		t.Fatalf("lines = %d, want 1 (semicolon inside string must not end the line)", lines)
	}
	tokens := drainTape(t, tp)
	found := false
	for _, tok := range tokens {
		if tok.kind == TokenString && tok.text == "2;1" {
			found = true
		}
	}
	if !found {
		t.Error("string literal containing semicolon not tokenized intact")
	}
}

func TestTokenizeNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"#1=IFCCARTESIANPOINT((42));", 42},
		{"#1=IFCCARTESIANPOINT((-1.5));", -1.5},
		{"#1=IFCCARTESIANPOINT((1.5E-3));", 0.0015},
		{"#1=IFCCARTESIANPOINT((0.));", 0},
	}
	for _, tt := range tests {
		tp, _ := tokenize(t, tt.input)
		tokens := drainTape(t, tp)
		var got *decoded
		for i := range tokens {
			if tokens[i].kind == TokenReal {
				got = &tokens[i]
			}
		}
		if got == nil {
			t.Fatalf("%s: no REAL token", tt.input)
		}
		if got.real != tt.want {
			t.Errorf("%s: real = %v, want %v", tt.input, got.real, tt.want)
		}
	}
}

func TestTokenizeComments(t *testing.T) {
	tp, lines := tokenize(t, "/* leading */ #1=IFCWALL(/* inline */ $);")
	if lines != 1 {
		t.Fatalf("lines = %d, want 1", lines)
	}
	tokens := drainTape(t, tp)
	if tokens[0].kind != TokenRef || tokens[0].ref != 1 {
		t.Errorf("first token = %+v, want REF 1", tokens[0])
	}
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated string", "#1=IFCWALL('oops);"},
		{"unterminated comment", "/* never closed"},
		{"unterminated enum", "#1=IFCWALL(.OOPS);"},
		{"ref without id", "#=IFCWALL($);"},
		{"payload too long", "#1=IFCWALL('" + strings.Repeat("x", 256) + "');"},
		{"unexpected character", "#1=IFCWALL(@);"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp := tape.New()
			_, err := NewTokenizer(tp).Tokenize([]byte(tt.input))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput chain", err)
			}
		})
	}
}

func TestTokenizeMaxPayload(t *testing.T) {
	// Exactly 255 bytes must pass.
	tp, _ := tokenize(t, "#1=IFCWALL('"+strings.Repeat("x", 255)+"');")
	tokens := drainTape(t, tp)
	found := false
	for _, tok := range tokens {
		if tok.kind == TokenString && len(tok.text) == 255 {
			found = true
		}
	}
	if !found {
		t.Error("255-byte payload should tokenize")
	}
}

func TestTokenTypeString(t *testing.T) {
	kinds := map[TokenType]string{
		TokenUnknown:   "UNKNOWN",
		TokenEmpty:     "EMPTY",
		TokenSetBegin:  "SET_BEGIN",
		TokenSetEnd:    "SET_END",
		TokenString:    "STRING",
		TokenEnum:      "ENUM",
		TokenLabel:     "LABEL",
		TokenRef:       "REF",
		TokenReal:      "REAL",
		TokenLineEnd:   "LINE_END",
		TokenType(200): "INVALID",
	}
	for kind, want := range kinds {
		if kind.String() != want {
			t.Errorf("TokenType(%d).String() = %q, want %q", kind, kind.String(), want)
		}
	}
}

func BenchmarkTokenize(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("ISO-10303-21;\nHEADER;\nFILE_SCHEMA(('IFC2X3'));\nENDSEC;\nDATA;\n")
	for i := 1; i <= 1000; i++ {
		sb.WriteString("#")
		sb.WriteString(strings.Repeat("1", 1))
		sb.WriteString("=IFCCARTESIANPOINT((1.5,2.5,3.5));\n")
	}
	sb.WriteString("ENDSEC;\nEND-ISO-10303-21;")
	input := []byte(sb.String())

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tp := tape.New()
		if _, err := NewTokenizer(tp).Tokenize(input); err != nil {
			b.Fatal(err)
		}
	}
}
