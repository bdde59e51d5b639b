// Package metadata describes the normalized declaration stream the generator
// consumes, and the sources that produce it.
package metadata

import (
	"strings"
)

// DeclKind is the kind of a declaration, derived from its name prefix.
type DeclKind int

const (
	KindFunction DeclKind = iota
	KindClass
	KindConst
	KindTypedef
	KindCallback
)

func (k DeclKind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindConst:
		return "const"
	case KindTypedef:
		return "typedef"
	case KindCallback:
		return "callback"
	default:
		return "function"
	}
}

// Decl is one normalized declaration tuple:
// (qualified-name, return-or-base-spec, modifiers, arguments-or-properties, original-return, doc).
type Decl struct {
	// Name is dotted and prefixed with its kind keyword for non-functions,
	// e.g. "class cv.Mat", "const cv.CASCADE_SCALE_IMAGE", "cv.Mat.rows".
	Name string
	// Spec is the return type of a function, ": base1, base2" for a class,
	// the value of a constant, or the target of a typedef.
	Spec           string
	Modifiers      []string
	Args           []Arg
	OriginalReturn string
	Doc            string
}

// Arg is an argument of a function or callback, or a property of a class.
// For properties Default holds the doc text.
type Arg struct {
	Type      string
	Name      string
	Default   string
	Modifiers []string
}

// Kind classifies the declaration by its name prefix.
func (d Decl) Kind() DeclKind {
	switch {
	case strings.HasPrefix(d.Name, "class ") || strings.HasPrefix(d.Name, "struct "):
		return KindClass
	case strings.HasPrefix(d.Name, "const "):
		return KindConst
	case strings.HasPrefix(d.Name, "typedef "):
		return KindTypedef
	case strings.HasPrefix(d.Name, "callback "):
		return KindCallback
	default:
		return KindFunction
	}
}

// HasModifier reports whether the declaration carries modifier m, e.g. "/S".
func (d Decl) HasModifier(m string) bool {
	return hasModifier(d.Modifiers, m)
}

// HasModifier reports whether the argument carries modifier m, e.g. "/O".
func (a Arg) HasModifier(m string) bool {
	return hasModifier(a.Modifiers, m)
}

func hasModifier(modifiers []string, m string) bool {
	for _, x := range modifiers {
		if x == m {
			return true
		}
	}
	return false
}
