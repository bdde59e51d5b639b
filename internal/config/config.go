// Package config holds the external tables that steer generation: renames,
// skips, ignore patterns, type rewrites, the primitive table and manual
// overrides. Tables are loaded with viper from yaml, toml or json.
//
// Map-like tables are lists of entries rather than maps because viper folds
// map keys to lower case and identifiers are case sensitive.
package config

import (
	"regexp"

	"gocxx/internal/errors"
)

// Keep marks a manual override slot that keeps the generated artifact.
const Keep = "~"

// Config is the full generator configuration.
type Config struct {
	// Module is the output file stem, e.g. "objdetect".
	Module string `mapstructure:"module"`
	// Package is the Go package name of the generated wrappers.
	Package string `mapstructure:"package"`
	// Prefix namespaces every ABI symbol and shared file.
	Prefix string `mapstructure:"prefix"`
	// RuntimeImport is the import path of the runtime support package.
	RuntimeImport string   `mapstructure:"runtime_import"`
	Namespaces    []string `mapstructure:"namespaces"`
	// Includes are the native headers the trampolines compile against.
	Includes   []string `mapstructure:"includes"`
	CgoCFlags  string   `mapstructure:"cgo_cflags"`
	CgoLDFlags string   `mapstructure:"cgo_ldflags"`

	FuncRename          []RenameRule     `mapstructure:"func_rename"`
	FuncUnsafe          []string         `mapstructure:"func_unsafe"`
	FuncManual          []ManualOverride `mapstructure:"func_manual"`
	ClassIgnore         []string         `mapstructure:"class_ignore"`
	ConstIgnore         []string         `mapstructure:"const_ignore"`
	TypeReplace         []TypeRewrite    `mapstructure:"type_replace"`
	Primitives          []Primitive      `mapstructure:"primitives"`
	ForcedInterface     []string         `mapstructure:"forced_interface"`
	ForceNotValueRecord []string         `mapstructure:"force_not_value_record"`

	// DeclsPre and DeclsPost are raw declaration tuples injected before and
	// after the loaded declarations.
	DeclsPre  []any `mapstructure:"decls_pre"`
	DeclsPost []any `mapstructure:"decls_post"`

	compiled *tables
}

// RenameRule renames the wrapper of the function with identifier ID.
// "+" in Name stands for the default name, "-" skips the function.
type RenameRule struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// ManualOverride replaces the generated artifacts of one function.
// A nil slot drops that artifact, Keep keeps the generated one, anything
// else is emitted verbatim.
type ManualOverride struct {
	ID  string  `mapstructure:"id"`
	Cpp *string `mapstructure:"cpp"`
	Sys *string `mapstructure:"sys"`
	Go  *string `mapstructure:"go"`
}

// TypeRewrite maps a native type spelling to a replacement spelling.
type TypeRewrite struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// Primitive describes a scalar spelling and its renderings.
type Primitive struct {
	Spelling string `mapstructure:"spelling"`
	// Native is the C ABI spelling.
	Native string `mapstructure:"native"`
	// Cgo is the name after "C." on the Go side.
	Cgo string `mapstructure:"cgo"`
	// Go is the Go type, empty for void.
	Go string `mapstructure:"go"`
}

type tables struct {
	rename          map[string]string
	unsafe          map[string]bool
	manual          map[string]ManualOverride
	classIgnore     []*regexp.Regexp
	constIgnore     []*regexp.Regexp
	typeReplace     map[string]string
	primitives      map[string]Primitive
	forcedInterface map[string]bool
	notValueRecord  map[string]bool
}

// Compile validates the configuration and builds its lookup tables.
// It must be called before any lookup method.
func (c *Config) Compile() error {
	if c.Prefix == "" {
		return errors.WithHint(errors.Wrap(errors.ErrInvalidConfig, "empty prefix"), "set prefix, e.g. \"gocxx\"")
	}

	t := &tables{
		rename:          make(map[string]string, len(c.FuncRename)),
		unsafe:          make(map[string]bool, len(c.FuncUnsafe)),
		manual:          make(map[string]ManualOverride, len(c.FuncManual)),
		typeReplace:     make(map[string]string, len(c.TypeReplace)),
		primitives:      make(map[string]Primitive, len(c.Primitives)),
		forcedInterface: make(map[string]bool, len(c.ForcedInterface)),
		notValueRecord:  make(map[string]bool, len(c.ForceNotValueRecord)),
	}

	for _, r := range c.FuncRename {
		t.rename[r.ID] = r.Name
	}
	for _, id := range c.FuncUnsafe {
		t.unsafe[id] = true
	}
	for _, m := range c.FuncManual {
		t.manual[m.ID] = m
	}
	for _, r := range c.TypeReplace {
		t.typeReplace[r.From] = r.To
	}
	for _, p := range c.Primitives {
		if p.Native == "" {
			return errors.Wrapf(errors.ErrInvalidConfig, "primitive %q has no native spelling", p.Spelling)
		}
		t.primitives[p.Spelling] = p
	}
	for _, name := range c.ForcedInterface {
		t.forcedInterface[name] = true
	}
	for _, name := range c.ForceNotValueRecord {
		t.notValueRecord[name] = true
	}

	var err error
	if t.classIgnore, err = compilePatterns(c.ClassIgnore); err != nil {
		return errors.Wrap(err, "class_ignore")
	}
	if t.constIgnore, err = compilePatterns(c.ConstIgnore); err != nil {
		return errors.Wrap(err, "const_ignore")
	}

	c.compiled = t
	return nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		// patterns match from the start of the name
		re, err := regexp.Compile("^(?:" + p + ")")
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "pattern %q: %v", p, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func (c *Config) tables() *tables {
	if c.compiled == nil {
		panic(errors.AssertionFailedf("config used before Compile"))
	}
	return c.compiled
}

// Rename returns the rename entry for a function identifier.
func (c *Config) Rename(identifier string) (string, bool) {
	name, ok := c.tables().rename[identifier]
	return name, ok
}

// IsUnsafe reports whether the function is marked unsafe to call.
func (c *Config) IsUnsafe(identifier string) bool {
	return c.tables().unsafe[identifier]
}

// Manual returns the manual override for a function identifier.
func (c *Config) Manual(identifier string) (ManualOverride, bool) {
	m, ok := c.tables().manual[identifier]
	return m, ok
}

// ClassIgnored reports whether any class ignore pattern matches a prefix of name.
func (c *Config) ClassIgnored(name string) bool {
	return matchAny(c.tables().classIgnore, name)
}

// ConstIgnored reports whether any constant ignore pattern matches a prefix of name.
func (c *Config) ConstIgnored(name string) bool {
	return matchAny(c.tables().constIgnore, name)
}

// TypeReplacement returns the rewrite target for a type spelling.
func (c *Config) TypeReplacement(spelling string) (string, bool) {
	to, ok := c.tables().typeReplace[spelling]
	return to, ok
}

// TypeReplacements returns the rewrite table.
func (c *Config) TypeReplacements() map[string]string {
	return c.tables().typeReplace
}

// PrimitiveTable returns the primitive table keyed by spelling.
func (c *Config) PrimitiveTable() map[string]Primitive {
	return c.tables().primitives
}

// IsForcedInterface reports whether a class is configured as an interface.
func (c *Config) IsForcedInterface(fullName string) bool {
	return c.tables().forcedInterface[fullName]
}

// IsForcedNotValueRecord reports whether a class must stay an owning handle
// even though its declaration marks it as a value record.
func (c *Config) IsForcedNotValueRecord(fullName string) bool {
	return c.tables().notValueRecord[fullName]
}

func matchAny(patterns []*regexp.Regexp, name string) bool {
	for _, re := range patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
