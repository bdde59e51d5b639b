// Package classes keeps the registry of native classes and derives which of
// them are used polymorphically and must be exposed as interfaces.
package classes

import (
	"strings"

	"gocxx/internal/metadata"
	"gocxx/internal/naming"
)

// Class is a registered native class or struct.
type Class struct {
	Name     naming.QualifiedName
	FullName string
	Module   string
	Bases    []string
	Props    []Property
	Doc      string

	// ValueRecord classes share their memory layout with the host and are copied by value.
	ValueRecord bool
	// Ghost classes only exist to give a spelling a descriptor; nothing is emitted for them.
	Ghost bool
	// CallbackShape classes are function pointer types.
	CallbackShape bool

	Ignored      bool
	IgnoreReason string

	forcedInterface bool
}

// Property is a data member of a class.
type Property struct {
	Type      string
	Name      string
	Doc       string
	ReadWrite bool
}

// FromDecl builds a class from a "class"/"struct" declaration tuple.
func FromDecl(decl metadata.Decl, module string, namespaces []string) *Class {
	name := naming.ParseName(decl.Name, namespaces)
	c := &Class{
		Name:     name,
		FullName: name.FullName(),
		Module:   module,
		Doc:      decl.Doc,
	}

	for _, m := range decl.Modifiers {
		switch m {
		case "/Simple", "/Map":
			c.ValueRecord = true
		case "/Hidden":
			c.Ignore("hidden class")
		case "/Ghost":
			c.Ghost = true
		case "/Callback":
			c.CallbackShape = true
		}
	}

	bases := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(decl.Spec), ":"))
	if bases != "" {
		seen := make(map[string]bool)
		for _, base := range strings.Split(bases, ",") {
			base = strings.TrimSpace(base)
			for _, prefix := range []string{"public ", "protected ", "private ", "virtual "} {
				base = strings.TrimSpace(strings.TrimPrefix(base, prefix))
			}
			if base == "" || base == c.FullName || seen[base] {
				continue
			}
			seen[base] = true
			c.Bases = append(c.Bases, base)
		}
	}

	for _, p := range decl.Args {
		prop := Property{
			Type:      p.Type,
			Name:      p.Name,
			Doc:       p.Default,
			ReadWrite: p.HasModifier("/RW"),
		}
		if p.HasModifier("/C") && !strings.HasPrefix(prop.Type, "const ") {
			prop.Type = "const " + prop.Type
		}
		c.Props = append(c.Props, prop)
	}

	return c
}

// Ignore marks the class ignored, keeping the first reason.
func (c *Class) Ignore(reason string) {
	if c.Ignored {
		return
	}
	c.Ignored = true
	c.IgnoreReason = reason
}

// ForceInterface promotes the class to an interface.
func (c *Class) ForceInterface() {
	c.forcedInterface = true
}

// Interface reports whether the class is exposed as an interface.
// Value records never are.
func (c *Class) Interface() bool {
	return c.forcedInterface && !c.ValueRecord
}

// LocalName is the class name without its namespace, "::" replaced by "_".
func (c *Class) LocalName() string {
	return c.Name.Local()
}

func (c *Class) String() string {
	attrs := make([]string, 0, 4)
	if c.ValueRecord {
		attrs = append(attrs, "value")
	}
	if c.Interface() {
		attrs = append(attrs, "interface")
	}
	if c.Ghost {
		attrs = append(attrs, "ghost")
	}
	if c.Ignored {
		attrs = append(attrs, "ignored")
	}
	if len(attrs) == 0 {
		return "CLASS " + c.FullName
	}
	return "CLASS " + c.FullName + " [" + strings.Join(attrs, ", ") + "]"
}
