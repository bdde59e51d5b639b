// Package naming holds the identifier rules shared by every emitter: bumping
// colliding names, casing conversions and qualified-name parsing.
package naming

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Bump returns the next candidate for a colliding name.
// A trailing decimal suffix is incremented, otherwise "_1" is appended:
// "foo" -> "foo_1", "foo_1" -> "foo_2", "point2" -> "point3".
func Bump(name string) string {
	end := len(name)
	start := end
	for start > 0 && name[start-1] >= '0' && name[start-1] <= '9' {
		start--
	}

	if start == end || start == 0 {
		return name + "_1"
	}

	n, err := strconv.Atoi(name[start:])
	if err != nil {
		return name + "_1"
	}

	return name[:start] + strconv.Itoa(n+1)
}

var (
	firstCapRe = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
	allCapRe   = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	invalidRe  = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// ToSnakeCase converts camelCase or PascalCase to snake_case.
// Acronyms stay together: "detectMultiScale" -> "detect_multi_scale", "HOGDescriptor" -> "hog_descriptor".
func ToSnakeCase(s string) string {
	s = firstCapRe.ReplaceAllString(s, "${1}_${2}")
	return strings.ToLower(allCapRe.ReplaceAllString(s, "${1}_${2}"))
}

// ToPascalCase converts snake_case to PascalCase
func ToPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for i, part := range parts {
		runes := []rune(part)
		// "foo_1" stays distinguishable from "foo1" after conversion
		if i > 0 && unicode.IsDigit(runes[0]) {
			result.WriteRune('_')
		}
		result.WriteRune(unicode.ToUpper(runes[0]))
		result.WriteString(string(runes[1:]))
	}

	return result.String()
}

// ToCamelCase converts snake_case to camelCase
func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if len(pascal) == 0 {
		return pascal
	}

	runes := []rune(pascal)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// Exported upper-cases the first letter of an identifier, dropping leading underscores.
func Exported(s string) string {
	s = strings.TrimLeft(s, "_")
	if s == "" {
		return "X"
	}

	runes := []rune(s)
	if unicode.IsDigit(runes[0]) {
		return "X" + s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Sanitize replaces every character that cannot appear in a C or Go identifier.
func Sanitize(s string) string {
	return invalidRe.ReplaceAllString(s, "_")
}

// Words that cannot be used as local names in generated Go bodies.
var reservedLocals = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
	"C": true, "unsafe": true, "runtime": true, "bindrt": true,
	"rv": true, "err": true, "instance": true, "nil": true, "len": true, "string": true, "error": true,
}

// LocalName converts a native argument name to a usable Go local name.
func LocalName(s string) string {
	name := ToCamelCase(ToSnakeCase(Sanitize(s)))
	if name == "" {
		return "arg"
	}
	if unicode.IsDigit([]rune(name)[0]) || reservedLocals[name] {
		return name + "Arg"
	}

	return name
}

// ClassesEqual reports whether two class spellings name the same class,
// allowing either side to omit leading namespace qualification.
func ClassesEqual(a string, b string) bool {
	a = strings.ReplaceAll(a, ".", "::")
	b = strings.ReplaceAll(b, ".", "::")
	return a == b || strings.HasSuffix(a, "::"+b) || strings.HasSuffix(b, "::"+a)
}
