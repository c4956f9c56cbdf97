// Package query implements the filter expression language used by the
// CLI query command and the API list endpoints. Expressions select
// indexed entity lines without touching the tape, e.g.:
//
//	type = IFCWALL
//	id > 100 && id <= 200
//	type = IFCDOOR || type = IFCWINDOW
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/vegarringdal/web-ifc/core/errors"
	"github.com/vegarringdal/web-ifc/core/loader"
	"github.com/vegarringdal/web-ifc/core/schema"
)

// expression is the parsed form: || over && over terms.
type expression struct {
	First *andExpression   `@@`
	Rest  []*andExpression `( "||" @@ )*`
}

type andExpression struct {
	First *term   `@@`
	Rest  []*term `( "&&" @@ )*`
}

type term struct {
	Comparison *comparison `  @@`
	Sub        *expression `| "(" @@ ")"`
}

type comparison struct {
	Field string `@Ident`
	Op    string `@Operator`
	Value string `( @Ident | @Number )`
}

// filterLexer tokenizes filter expressions. Order matters: operators
// before single-character fallbacks.
var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "And", Pattern: `&&`},
	{Name: "Or", Pattern: `\|\|`},
	{Name: "Operator", Pattern: `!=|<=|>=|=|<|>`},
	{Name: "Number", Pattern: `\d+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Paren", Pattern: `[()]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var filterParser = participle.MustBuild[expression](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
)

// Filter is a compiled expression ready to match lines.
type Filter struct {
	root *expression
}

// Compile parses and validates a filter expression.
func Compile(input string) (*Filter, error) {
	root, err := filterParser.ParseString("", input)
	if err != nil {
		return nil, errors.NewParse("filter expression", -1, err.Error())
	}
	if err := validateExpression(root); err != nil {
		return nil, err
	}
	return &Filter{root: root}, nil
}

// Matches evaluates the filter against one indexed line.
func (f *Filter) Matches(line loader.IfcLine) bool {
	return evalExpression(f.root, line)
}

// Apply returns the expressIDs of all lines matching the filter, in
// parse order.
func (f *Filter) Apply(l *loader.Loader) []uint32 {
	var out []uint32
	for _, line := range l.GetMetaData().Lines {
		if f.Matches(line) {
			out = append(out, line.ExpressID)
		}
	}
	return out
}

func validateExpression(e *expression) error {
	for _, and := range append([]*andExpression{e.First}, e.Rest...) {
		for _, t := range append([]*term{and.First}, and.Rest...) {
			if t.Sub != nil {
				if err := validateExpression(t.Sub); err != nil {
					return err
				}
				continue
			}
			if err := validateComparison(t.Comparison); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateComparison(c *comparison) error {
	switch strings.ToLower(c.Field) {
	case "type":
		if c.Op != "=" && c.Op != "!=" {
			return errors.NewValidation("op", fmt.Sprintf("operator %q not valid for type comparisons", c.Op))
		}
	case "id":
		if _, err := strconv.ParseUint(c.Value, 10, 32); err != nil {
			return errors.NewValidation("value", fmt.Sprintf("id comparison needs a numeric value, got %q", c.Value))
		}
	default:
		return errors.NewValidation("field", fmt.Sprintf("unknown field %q, want type or id", c.Field))
	}
	return nil
}

func evalExpression(e *expression, line loader.IfcLine) bool {
	if evalAnd(e.First, line) {
		return true
	}
	for _, and := range e.Rest {
		if evalAnd(and, line) {
			return true
		}
	}
	return false
}

func evalAnd(a *andExpression, line loader.IfcLine) bool {
	if !evalTerm(a.First, line) {
		return false
	}
	for _, t := range a.Rest {
		if !evalTerm(t, line) {
			return false
		}
	}
	return true
}

func evalTerm(t *term, line loader.IfcLine) bool {
	if t.Sub != nil {
		return evalExpression(t.Sub, line)
	}
	return evalComparison(t.Comparison, line)
}

func evalComparison(c *comparison, line loader.IfcLine) bool {
	switch strings.ToLower(c.Field) {
	case "type":
		code := schema.CodeOf(c.Value)
		if c.Op == "=" {
			return line.IfcType == code
		}
		return line.IfcType != code
	case "id":
		value, err := strconv.ParseUint(c.Value, 10, 32)
		if err != nil {
			return false
		}
		id := uint64(line.ExpressID)
		switch c.Op {
		case "=":
			return id == value
		case "!=":
			return id != value
		case "<":
			return id < value
		case "<=":
			return id <= value
		case ">":
			return id > value
		case ">=":
			return id >= value
		}
	}
	return false
}
