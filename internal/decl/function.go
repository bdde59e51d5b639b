package decl

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gocxx/internal/classes"
	"gocxx/internal/errors"
	"gocxx/internal/metadata"
	"gocxx/internal/naming"
	"gocxx/internal/types"
)

// FunctionKind distinguishes how a function is invoked on the native side.
type FunctionKind int

const (
	Free FunctionKind = iota
	Method
	Constructor
	Getter
	Setter
)

func (k FunctionKind) String() string {
	switch k {
	case Method:
		return "method"
	case Constructor:
		return "constructor"
	case Getter:
		return "getter"
	case Setter:
		return "setter"
	}
	return "function"
}

// Context is what building a declaration needs to resolve names and types.
type Context struct {
	Module     string
	Namespaces []string
	Classes    *classes.Registry
	Types      *types.Registry
	Log        *zap.SugaredLogger
}

func (ctx *Context) log() *zap.SugaredLogger {
	if ctx.Log == nil {
		return zap.NewNop().Sugar()
	}
	return ctx.Log
}

// Function is a free function, method, constructor or property accessor.
// It is immutable once built.
type Function struct {
	Name     naming.QualifiedName
	FullName string
	Kind     FunctionKind
	// Class owns methods, constructors and accessors.
	Class  *classes.Class
	Return *types.Descriptor
	Args   []*Argument
	Const  bool
	Static bool
	// Identifier is unique per overload and names the trampoline symbol.
	Identifier string
	Doc        string
	Module     string
	Modifiers  []string

	ignored      bool
	ignoreReason string
}

// NewFunction builds a function from a declaration tuple. A method whose
// class is not registered is a configuration error, unless the owner is the
// std namespace or a template, which are skipped.
func NewFunction(ctx *Context, d metadata.Decl) (*Function, error) {
	name := naming.ParseName(d.Name, ctx.Namespaces)
	f := &Function{
		Name:      name,
		FullName:  name.FullName(),
		Kind:      Free,
		Const:     d.HasModifier("/C"),
		Static:    d.HasModifier("/S"),
		Doc:       strings.TrimSpace(d.Doc),
		Module:    ctx.Module,
		Modifiers: d.Modifiers,
	}

	if className := name.ClassName(); className != "" {
		c := ctx.Classes.Get(className)
		switch {
		case c != nil:
			f.Class = c
		case name.ClassPath == "std" || strings.HasPrefix(name.ClassPath, "std::") || strings.Contains(className, "<"):
			f.ignore("owner " + className + " is not wrapped")
		default:
			return nil, errors.WithHintf(
				errors.Wrapf(errors.ErrClassNotFound, "%s: class %s", d.Name, className),
				"declare class %s before its methods, or add it to class_ignore", className,
			)
		}
	}

	if f.Class != nil {
		if d.HasModifier("/A") {
			ctx.Classes.MarkInterface(f.Class)
		}
		pieces := strings.Split(name.ClassPath, "::")
		switch {
		case d.HasModifier("/ATTRGETTER"):
			f.Kind = Getter
		case d.HasModifier("/ATTRSETTER"):
			f.Kind = Setter
		case name.Name == pieces[len(pieces)-1]:
			f.Kind = Constructor
		default:
			f.Kind = Method
		}
	}

	if f.Kind == Constructor {
		f.Return = ctx.Types.Resolve(f.Class.FullName)
	} else {
		f.Return = ctx.Types.Resolve(d.Spec)
	}

	args, paired := newArguments(d.Args, ctx.Types)
	f.Args = args
	f.Identifier = identifier(f.FullName, f.Const, args)

	switch {
	case strings.HasPrefix(name.Name, "~"):
		f.ignore("destructor")
	case strings.HasPrefix(name.Name, "operator"):
		f.ignore("operator overload")
	case d.HasModifier("/H") || d.HasModifier("/I"):
		f.ignore("hidden")
	case f.Class != nil && f.Class.Ignored:
		f.ignore("class " + f.Class.FullName + " is ignored")
	case !paired:
		f.ignore("callback argument without userdata")
	}

	ctx.log().Debugw("function", "name", f.FullName, "kind", f.Kind, "identifier", f.Identifier)
	return f, nil
}

func identifier(fullName string, isConst bool, args []*Argument) string {
	var b strings.Builder
	b.WriteString(naming.Sanitize(strings.ReplaceAll(fullName, "::", "_")))
	if isConst {
		b.WriteString("_const")
	}
	for _, a := range args {
		b.WriteString("_")
		b.WriteString(a.Type.SafeID)
	}
	return b.String()
}

func (f *Function) ignore(reason string) {
	if f.ignored {
		return
	}
	f.ignored = true
	f.ignoreReason = reason
}

// Unsupported returns why the function cannot be emitted, or "" when it can.
// Type checks are evaluated on each call because interface status is only
// final once every class is registered.
func (f *Function) Unsupported() string {
	if f.ignored {
		return f.ignoreReason
	}

	if !f.Return.Supported() {
		return "can not map return type " + f.Return.Signature + ": " + f.Return.Reason
	}
	if reason := ignoredClass(f.Return); reason != "" {
		return reason
	}
	if f.Kind == Constructor && f.Class.Interface() {
		return "skip constructor of interface class"
	}
	if f.Kind != Constructor && (f.Return.IsInterface() ||
		(f.Return.Kind == types.RawReference && f.Return.Inner.IsInterface())) {
		return "returns interface class " + f.Return.TypeID
	}
	if f.Return.Kind == types.Callback {
		return "returns a callback"
	}

	for _, a := range f.Args {
		if !a.Type.Supported() {
			return "can not map type " + a.Type.Signature + " of " + a.Name + ": " + a.Type.Reason
		}
		if reason := ignoredClass(a.Type); reason != "" {
			return reason
		}
	}
	return ""
}

// ignoredClass reports a class ignored after its descriptor was resolved.
func ignoredClass(d *types.Descriptor) string {
	for x := d; x != nil; x = x.Inner {
		if x.Class != nil && x.Class.Ignored {
			return "class " + x.Class.FullName + " is ignored"
		}
	}
	return ""
}

// Instance reports whether the native call goes through a receiver.
func (f *Function) Instance() bool {
	switch f.Kind {
	case Method:
		return !f.Static
	case Getter, Setter:
		return true
	case Free, Constructor:
	}
	return false
}

// Receiver is the descriptor of the owning class.
func (f *Function) Receiver(reg *types.Registry) *types.Descriptor {
	if f.Class == nil {
		return nil
	}
	return reg.Resolve(f.Class.FullName)
}

// HostArgs are the arguments visible in the Go wrapper signature.
func (f *Function) HostArgs() []*Argument {
	args := make([]*Argument, 0, len(f.Args))
	for _, a := range f.Args {
		if !a.Userdata {
			args = append(args, a)
		}
	}
	return args
}

// NativeCall renders the native call expression over the staged argument
// expressions. Receiver access is rendered through recv.
func (f *Function) NativeCall(recv *types.Descriptor, args []string) string {
	joined := strings.Join(args, ", ")
	switch f.Kind {
	case Constructor:
		return f.Class.FullName + "(" + joined + ")"
	case Getter:
		return recv.NativeInstanceAccess(f.Name.Name)
	case Setter:
		return recv.NativeInstanceAccess(f.Name.Name) + " = " + joined
	case Method:
		if !f.Static {
			return recv.NativeInstanceAccess(f.Name.Name) + "(" + joined + ")"
		}
	case Free:
	}
	return f.FullName + "(" + joined + ")"
}

// Signature is the argument type list used to detect duplicate declarations.
func (f *Function) Signature() string {
	tags := make([]string, 0, len(f.Args))
	for _, a := range f.Args {
		tags = append(tags, a.Type.Signature)
	}
	sig := "(" + strings.Join(tags, ", ") + ")"
	if f.Const {
		sig += " const"
	}
	return sig
}

func (f *Function) String() string {
	if f.Class == nil {
		return fmt.Sprintf("%s (%s)", f.FullName, f.Kind)
	}
	return fmt.Sprintf("%s (%s) class %s . %s", f.FullName, f.Kind, f.Class.FullName, f.Name.Name)
}

// Accessors synthesizes the property accessors of a Handle class: a getter
// per property and a setter when the property is read-write and its type is
// not const. The setter shares the getter's descriptor.
func Accessors(ctx *Context, c *classes.Class) []*Function {
	if c.ValueRecord || c.Ghost || c.CallbackShape || c.Ignored {
		return nil
	}

	classPath := c.Name.Name
	if c.Name.ClassPath != "" {
		classPath = c.Name.ClassPath + "::" + c.Name.Name
	}

	out := make([]*Function, 0, 2*len(c.Props))
	for _, p := range c.Props {
		d := ctx.Types.Resolve(p.Type)
		base := naming.QualifiedName{
			Namespace: c.Name.Namespace,
			ClassPath: classPath,
			Name:      p.Name,
		}
		fullName := base.FullName()
		stem := naming.Sanitize(strings.ReplaceAll(fullName, "::", "_"))

		getter := &Function{
			Name:       base,
			FullName:   fullName,
			Kind:       Getter,
			Class:      c,
			Return:     d,
			Const:      true,
			Identifier: stem + "_get",
			Doc:        p.Doc,
			Module:     c.Module,
		}
		out = append(out, getter)

		if !p.ReadWrite || d.Const {
			continue
		}
		value := &Argument{Name: "val", GoName: "val", Type: d, Direction: In}
		out = append(out, &Function{
			Name:       base,
			FullName:   fullName,
			Kind:       Setter,
			Class:      c,
			Return:     ctx.Types.Resolve("void"),
			Args:       []*Argument{value},
			Identifier: stem + "_set",
			Doc:        p.Doc,
			Module:     c.Module,
		})
	}
	return out
}
