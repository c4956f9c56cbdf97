package step

import (
	"fmt"
	"strconv"

	"github.com/vegarringdal/web-ifc/core/errors"
	"github.com/vegarringdal/web-ifc/core/tape"
)

// structural markers are consumed without emitting tokens. Everything
// between HEADER;/ENDSEC; and DATA;/ENDSEC; tokenizes as lines.
var structuralMarkers = map[string]bool{
	"ISO-10303-21":     true,
	"HEADER":           true,
	"ENDSEC":           true,
	"DATA":             true,
	"END-ISO-10303-21": true,
}

// Tokenizer lexes STEP text and appends binary tokens to a tape.
type Tokenizer struct {
	tape  *tape.Tape
	input []byte
	pos   int
}

// NewTokenizer creates a tokenizer writing to the given tape.
func NewTokenizer(t *tape.Tape) *Tokenizer {
	return &Tokenizer{tape: t}
}

// Tokenize consumes the whole input and returns the number of logical
// lines emitted (entity records plus header records). The tape holds one
// LINE_END token per line.
func (tk *Tokenizer) Tokenize(input []byte) (uint32, error) {
	tk.input = input
	tk.pos = 0
	lines := uint32(0)

	for {
		if err := tk.skipBlanks(); err != nil {
			return lines, err
		}
		if tk.pos >= len(tk.input) {
			return lines, nil
		}

		c := tk.input[tk.pos]
		switch {
		case c == '\'':
			if err := tk.lexString(); err != nil {
				return lines, err
			}
		case c == '.':
			if err := tk.lexEnum(); err != nil {
				return lines, err
			}
		case c == '#':
			if err := tk.lexRef(); err != nil {
				return lines, err
			}
		case c == '$':
			tk.tape.PushByte(byte(TokenEmpty))
			tk.pos++
		case c == '*':
			tk.tape.PushByte(byte(TokenUnknown))
			tk.pos++
		case c == '(':
			tk.tape.PushByte(byte(TokenSetBegin))
			tk.pos++
		case c == ')':
			tk.tape.PushByte(byte(TokenSetEnd))
			tk.pos++
		case c == ';':
			tk.tape.PushByte(byte(TokenLineEnd))
			lines++
			tk.pos++
		case c == ',' || c == '=':
			// Separators carry no information once tokens are typed.
			tk.pos++
		case c == '-' || c == '+' || isDigit(c):
			if err := tk.lexNumber(); err != nil {
				return lines, err
			}
		case isLabelStart(c):
			if err := tk.lexLabel(); err != nil {
				return lines, err
			}
		default:
			return lines, errors.NewParse("STEP", tk.pos, fmt.Sprintf("unexpected character %q", c))
		}
	}
}

// skipBlanks advances past whitespace and /* ... */ comments.
func (tk *Tokenizer) skipBlanks() error {
	for tk.pos < len(tk.input) {
		c := tk.input[tk.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			tk.pos++
		case c == '/' && tk.pos+1 < len(tk.input) && tk.input[tk.pos+1] == '*':
			start := tk.pos
			tk.pos += 2
			for {
				if tk.pos+1 >= len(tk.input) {
					return errors.NewParse("STEP", start, "unterminated comment")
				}
				if tk.input[tk.pos] == '*' && tk.input[tk.pos+1] == '/' {
					tk.pos += 2
					break
				}
				tk.pos++
			}
		default:
			return nil
		}
	}
	return nil
}

// lexString consumes a single-quoted literal. A doubled quote encodes a
// literal quote and is kept verbatim in the payload so that serializing
// emits it unchanged.
func (tk *Tokenizer) lexString() error {
	start := tk.pos
	tk.pos++ // opening quote
	payloadStart := tk.pos
	for {
		if tk.pos >= len(tk.input) {
			return errors.NewParse("STEP", start, "unterminated string literal")
		}
		if tk.input[tk.pos] == '\'' {
			if tk.pos+1 < len(tk.input) && tk.input[tk.pos+1] == '\'' {
				tk.pos += 2 // escaped quote, stays in the payload
				continue
			}
			break
		}
		tk.pos++
	}
	payload := tk.input[payloadStart:tk.pos]
	tk.pos++ // closing quote
	return tk.pushPayload(TokenString, payload, start)
}

// lexEnum consumes a `.NAME.` enumeration literal.
func (tk *Tokenizer) lexEnum() error {
	start := tk.pos
	tk.pos++ // opening dot
	payloadStart := tk.pos
	for {
		if tk.pos >= len(tk.input) {
			return errors.NewParse("STEP", start, "unterminated enumeration literal")
		}
		if tk.input[tk.pos] == '.' {
			break
		}
		tk.pos++
	}
	payload := tk.input[payloadStart:tk.pos]
	tk.pos++ // closing dot
	return tk.pushPayload(TokenEnum, payload, start)
}

// lexRef consumes `#N`.
func (tk *Tokenizer) lexRef() error {
	start := tk.pos
	tk.pos++ // hash
	numStart := tk.pos
	for tk.pos < len(tk.input) && isDigit(tk.input[tk.pos]) {
		tk.pos++
	}
	if tk.pos == numStart {
		return errors.NewParse("STEP", start, "reference without entity id")
	}
	id, err := strconv.ParseUint(string(tk.input[numStart:tk.pos]), 10, 32)
	if err != nil {
		return errors.NewParse("STEP", start, "entity id out of range")
	}
	tk.tape.PushByte(byte(TokenRef))
	tk.tape.PushUint32(uint32(id))
	return nil
}

// lexNumber consumes an integer or real literal; both land on the tape as
// an 8-byte double.
func (tk *Tokenizer) lexNumber() error {
	start := tk.pos
	tk.pos++
	for tk.pos < len(tk.input) {
		c := tk.input[tk.pos]
		if isDigit(c) || c == '.' || c == 'e' || c == 'E' || c == '-' || c == '+' {
			tk.pos++
			continue
		}
		break
	}
	text := string(tk.input[start:tk.pos])
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return errors.NewParse("STEP", start, fmt.Sprintf("malformed numeric literal %q", text))
	}
	tk.tape.PushByte(byte(TokenReal))
	tk.tape.PushFloat64(value)
	return nil
}

// lexLabel consumes a bare identifier. Structural markers are swallowed
// together with their terminating semicolon; anything else becomes a LABEL
// token.
func (tk *Tokenizer) lexLabel() error {
	start := tk.pos
	for tk.pos < len(tk.input) && isLabelChar(tk.input[tk.pos]) {
		tk.pos++
	}
	label := tk.input[start:tk.pos]

	if structuralMarkers[string(label)] {
		if err := tk.skipBlanks(); err != nil {
			return err
		}
		if tk.pos >= len(tk.input) || tk.input[tk.pos] != ';' {
			return errors.NewParse("STEP", start, fmt.Sprintf("marker %s not terminated by semicolon", label))
		}
		tk.pos++
		return nil
	}

	return tk.pushPayload(TokenLabel, label, start)
}

// pushPayload writes a length-prefixed token, rejecting payloads the
// 1-byte length cannot carry.
func (tk *Tokenizer) pushPayload(kind TokenType, payload []byte, at int) error {
	if len(payload) > MaxPayload {
		return errors.NewParse("STEP", at, fmt.Sprintf("%s payload of %d bytes exceeds %d", kind, len(payload), MaxPayload))
	}
	tk.tape.PushByte(byte(kind))
	tk.tape.PushByte(byte(len(payload)))
	tk.tape.Push(payload)
	return nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLabelStart(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_'
}

func isLabelChar(c byte) bool {
	return isLabelStart(c) || isDigit(c) || c == '-'
}
