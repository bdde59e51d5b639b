package decl

import (
	"regexp"
	"strings"

	"gocxx/internal/errors"
	"gocxx/internal/metadata"
	"gocxx/internal/naming"
)

// ValueKind is how a constant value is emitted.
type ValueKind int

const (
	// StringValue is a quoted literal.
	StringValue ValueKind = iota
	// IntValue is an integer literal or a literal expression over integers.
	IntValue
	// ComplexValue needs the native compiler to evaluate it.
	ComplexValue
)

// Constant is a named compile-time value.
type Constant struct {
	Name     naming.QualifiedName
	FullName string
	// GoName is the exported host name.
	GoName string
	Value  string
	Module string
}

// NewConstant builds a constant from a "const" declaration.
func NewConstant(ctx *Context, d metadata.Decl) *Constant {
	name := naming.ParseName(d.Name, ctx.Namespaces)
	return &Constant{
		Name:     name,
		FullName: name.FullName(),
		GoName:   naming.Exported(naming.Sanitize(name.Local())),
		Value:    strings.TrimSpace(d.Spec),
		Module:   ctx.Module,
	}
}

// Nested reports whether the constant is declared inside a class.
func (c *Constant) Nested() bool {
	return c.Name.ClassPath != ""
}

func (c *Constant) String() string {
	return "CONST " + c.FullName + "=" + c.Value
}

var (
	trailingCommentRe = regexp.MustCompile(`^(.+?)\s*(?://\s*(.+)|/\*+\s*(.+?)\s*\*+/)$`)
	intLiteralRe      = regexp.MustCompile(`^(-?[0-9]+|0x[0-9A-Fa-f]+)$`)
	shiftRe           = regexp.MustCompile(`^\(?\s*(\d+\s*<<\s*\d+)\s*\)?$`)
	sumRe             = regexp.MustCompile(`^\s*(\d+\s*\+\s*\d+)\s*$`)
	qualifiedIdentRe  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(?:(?:::|\.)[A-Za-z_][A-Za-z0-9_]*)+$`)
)

// Evaluated is the emitted form of a constant value.
type Evaluated struct {
	Kind  ValueKind
	Value string
	Doc   string
}

// Evaluate follows references to other constants through lookup until the
// value is a literal. A qualified reference to an unknown constant is a
// configuration error; anything else unrecognized is left to the native
// compiler.
func (c *Constant) Evaluate(lookup func(name string) *Constant) (Evaluated, error) {
	value := c.Value
	var doc string
	seen := map[string]bool{c.FullName: true}

	for {
		if m := trailingCommentRe.FindStringSubmatch(value); m != nil {
			value = m[1]
			doc = m[2]
			if doc == "" {
				doc = m[3]
			}
		}

		switch {
		case strings.HasPrefix(value, `"`):
			return Evaluated{Kind: StringValue, Value: value, Doc: doc}, nil
		case intLiteralRe.MatchString(value), shiftRe.MatchString(value), sumRe.MatchString(value):
			return Evaluated{Kind: IntValue, Value: value, Doc: doc}, nil
		}

		ref := lookup(value)
		if ref == nil {
			if qualifiedIdentRe.MatchString(value) {
				return Evaluated{}, errors.WithHintf(
					errors.Wrapf(errors.ErrConstNotFound, "%s references %s", c.FullName, value),
					"declare %s or add %s to const_ignore", value, c.FullName,
				)
			}
			return Evaluated{Kind: ComplexValue, Value: value, Doc: doc}, nil
		}
		if seen[ref.FullName] {
			return Evaluated{}, errors.Wrapf(errors.ErrConstNotFound, "%s: cyclic reference through %s", c.FullName, ref.FullName)
		}
		seen[ref.FullName] = true
		value = ref.Value
	}
}
