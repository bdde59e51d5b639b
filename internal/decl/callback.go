package decl

import (
	"strings"

	"gocxx/internal/classes"
	"gocxx/internal/metadata"
	"gocxx/internal/naming"
	"gocxx/internal/types"
)

// Callback is a native function pointer type. The host closure is reached
// through the trailing userdata argument.
type Callback struct {
	Name     naming.QualifiedName
	FullName string
	Return   *types.Descriptor
	Args     []*Argument
	Doc      string
	Module   string
	// Class is the ghost class registered so the name resolves as a Callback.
	Class *classes.Class

	IgnoreReason string
}

// NewCallback builds a callback and, when it can cross the boundary,
// registers its ghost class so that arguments spelled with its name resolve.
func NewCallback(ctx *Context, d metadata.Decl) *Callback {
	name := naming.ParseName(d.Name, ctx.Namespaces)
	cb := &Callback{
		Name:     name,
		FullName: name.FullName(),
		Return:   ctx.Types.Resolve(d.Spec),
		Doc:      strings.TrimSpace(d.Doc),
		Module:   ctx.Module,
	}

	cb.Args, _ = newArguments(d.Args, ctx.Types)
	cb.IgnoreReason = cb.unsupported()
	if cb.IgnoreReason != "" {
		ctx.log().Debugw("callback ignored", "name", cb.FullName, "reason", cb.IgnoreReason)
		return cb
	}

	dotted := strings.ReplaceAll(cb.FullName, "::", ".")
	cb.Class = classes.FromDecl(metadata.Decl{
		Name:      "class " + dotted,
		Modifiers: []string{"/Ghost", "/Callback"},
		Doc:       cb.Doc,
	}, ctx.Module, ctx.Namespaces)
	ctx.Classes.Register(cb.Class)
	return cb
}

func (cb *Callback) unsupported() string {
	if !cb.Return.Supported() {
		return "can not map return type " + cb.Return.Signature
	}
	if !cb.Return.IsVoid() && cb.Return.Kind != types.Primitive {
		return "callback returns " + cb.Return.Kind.String()
	}

	userdata := false
	for _, a := range cb.Args {
		if !a.Type.Supported() {
			return "can not map type " + a.Type.Signature + " of " + a.Name
		}
		if a.Name == "userdata" && a.Type.IsOpaquePointer() {
			a.Userdata = true
			userdata = true
			continue
		}
		if !a.Type.CallbackCompatible() {
			return "argument " + a.Name + " of " + a.Type.Kind.String() + " type " + a.Type.Signature + " can not cross into a callback"
		}
	}
	if !userdata {
		return "no userdata argument"
	}
	return ""
}

// Ignored reports whether the callback is omitted.
func (cb *Callback) Ignored() bool {
	return cb.IgnoreReason != ""
}

// HostArgs are the arguments of the Go func type.
func (cb *Callback) HostArgs() []*Argument {
	args := make([]*Argument, 0, len(cb.Args))
	for _, a := range cb.Args {
		if !a.Userdata {
			args = append(args, a)
		}
	}
	return args
}

func (cb *Callback) String() string {
	return "CALLBACK " + cb.FullName
}

// Typedef names an alias of another type spelling.
type Typedef struct {
	Name     naming.QualifiedName
	FullName string
	Target   string
	Doc      string
}

// NewTypedef builds a typedef from a "typedef" declaration.
func NewTypedef(ctx *Context, d metadata.Decl) *Typedef {
	name := naming.ParseName(d.Name, ctx.Namespaces)
	return &Typedef{
		Name:     name,
		FullName: name.FullName(),
		Target:   strings.TrimSpace(d.Spec),
		Doc:      strings.TrimSpace(d.Doc),
	}
}

// Apply aliases the typedef names to the target descriptor where they are
// otherwise unresolved. It reports whether any alias applied.
func (t *Typedef) Apply(reg *types.Registry) bool {
	local := t.Name.Name
	if t.Name.ClassPath != "" {
		local = t.Name.ClassPath + "::" + t.Name.Name
	}

	applied := false
	for _, name := range []string{t.FullName, local} {
		if reg.Alias(name, t.Target) {
			applied = true
		}
	}
	return applied
}

func (t *Typedef) String() string {
	return "TYPEDEF " + t.FullName + " = " + t.Target
}
