package metadata

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gocxx/internal/errors"
)

// LoadFile reads a declaration file: a yaml (or json) sequence of tuples,
//
//	- ["class cv.CascadeClassifier", "", [], [], null, "Cascade classifier."]
//	- ["cv.CascadeClassifier.load", "bool", [], [["String", "filename", "", []]]]
func LoadFile(path string) ([]Decl, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read declarations %s", path)
	}

	var raw []any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, errors.Wrapf(err, "failed to parse declarations %s", path)
	}

	decls, err := ParseDecls(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	return decls, nil
}

// ParseDecls converts raw tuples, as decoded from yaml or viper, into declarations.
func ParseDecls(raw []any) ([]Decl, error) {
	decls := make([]Decl, 0, len(raw))
	for i, item := range raw {
		decl, err := ParseDecl(item)
		if err != nil {
			return nil, errors.Wrapf(err, "declaration #%d", i)
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

// ParseDecl converts one raw tuple into a declaration.
func ParseDecl(item any) (Decl, error) {
	tuple, ok := item.([]any)
	if !ok || len(tuple) < 1 {
		return Decl{}, errors.Wrapf(errors.ErrInvalidDecl, "expected a non-empty list, got %T", item)
	}

	var decl Decl
	decl.Name = text(at(tuple, 0))
	if decl.Name == "" {
		return Decl{}, errors.Wrap(errors.ErrInvalidDecl, "empty name")
	}
	decl.Spec = text(at(tuple, 1))
	decl.Modifiers = texts(at(tuple, 2))
	decl.OriginalReturn = text(at(tuple, 4))
	decl.Doc = text(at(tuple, 5))

	if args, ok := at(tuple, 3).([]any); ok {
		for _, a := range args {
			argTuple, ok := a.([]any)
			if !ok || len(argTuple) < 2 {
				return Decl{}, errors.Wrapf(errors.ErrInvalidDecl, "%s: malformed argument %v", decl.Name, a)
			}
			decl.Args = append(decl.Args, Arg{
				Type:      text(at(argTuple, 0)),
				Name:      text(at(argTuple, 1)),
				Default:   text(at(argTuple, 2)),
				Modifiers: texts(at(argTuple, 3)),
			})
		}
	}

	return decl, nil
}

func at(tuple []any, i int) any {
	if i < len(tuple) {
		return tuple[i]
	}
	return nil
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func texts(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, x := range list {
		out = append(out, text(x))
	}
	return out
}
