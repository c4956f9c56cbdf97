package query

import (
	"testing"

	"github.com/vegarringdal/web-ifc/core/errors"
	"github.com/vegarringdal/web-ifc/core/loader"
)

const sampleModel = `#1=IFCWALL('w1');
#2=IFCWALL('w2');
#10=IFCDOOR('d1');
#20=IFCWINDOW('win1');`

func loadSample(t *testing.T) *loader.Loader {
	t.Helper()
	l := loader.NewLoader(loader.DefaultSettings())
	if err := l.LoadFile([]byte(sampleModel)); err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	return l
}

func apply(t *testing.T, l *loader.Loader, expr string) []uint32 {
	t.Helper()
	f, err := Compile(expr)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", expr, err)
	}
	return f.Apply(l)
}

func equalIDs(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTypeEquality(t *testing.T) {
	l := loadSample(t)
	if got := apply(t, l, "type = IFCWALL"); !equalIDs(got, []uint32{1, 2}) {
		t.Errorf("type = IFCWALL -> %v, want [1 2]", got)
	}
}

func TestTypeInequality(t *testing.T) {
	l := loadSample(t)
	if got := apply(t, l, "type != IFCWALL"); !equalIDs(got, []uint32{10, 20}) {
		t.Errorf("type != IFCWALL -> %v, want [10 20]", got)
	}
}

func TestIDComparisons(t *testing.T) {
	l := loadSample(t)
	tests := []struct {
		expr string
		want []uint32
	}{
		{"id = 10", []uint32{10}},
		{"id != 10", []uint32{1, 2, 20}},
		{"id < 10", []uint32{1, 2}},
		{"id <= 10", []uint32{1, 2, 10}},
		{"id > 2", []uint32{10, 20}},
		{"id >= 10", []uint32{10, 20}},
	}
	for _, tt := range tests {
		if got := apply(t, l, tt.expr); !equalIDs(got, tt.want) {
			t.Errorf("%q -> %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestConjunction(t *testing.T) {
	l := loadSample(t)
	if got := apply(t, l, "type = IFCWALL && id > 1"); !equalIDs(got, []uint32{2}) {
		t.Errorf("conjunction -> %v, want [2]", got)
	}
}

func TestDisjunction(t *testing.T) {
	l := loadSample(t)
	if got := apply(t, l, "type = IFCDOOR || type = IFCWINDOW"); !equalIDs(got, []uint32{10, 20}) {
		t.Errorf("disjunction -> %v, want [10 20]", got)
	}
}

func TestParentheses(t *testing.T) {
	l := loadSample(t)
	if got := apply(t, l, "(type = IFCDOOR || type = IFCWINDOW) && id >= 20"); !equalIDs(got, []uint32{20}) {
		t.Errorf("parenthesized -> %v, want [20]", got)
	}
}

func TestCaseInsensitiveFieldAndType(t *testing.T) {
	l := loadSample(t)
	if got := apply(t, l, "TYPE = IfcWall"); !equalIDs(got, []uint32{1, 2}) {
		t.Errorf("case-insensitive match -> %v, want [1 2]", got)
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []string{
		"",
		"bogus = IFCWALL",
		"id = IFCWALL",
		"type > IFCWALL",
		"type = ",
		"(type = IFCWALL",
	}
	for _, expr := range tests {
		if _, err := Compile(expr); err == nil {
			t.Errorf("Compile(%q) should fail", expr)
		} else if !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("Compile(%q) = %v, want ErrInvalidInput chain", expr, err)
		}
	}
}

func TestNoMatches(t *testing.T) {
	l := loadSample(t)
	if got := apply(t, l, "type = IFCROOF"); got != nil {
		t.Errorf("no-match filter -> %v, want nil", got)
	}
}
