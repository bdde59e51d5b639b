package types

import (
	"github.com/dave/jennifer/jen"
)

// The host side of the boundary: Go fragments per descriptor, built with jennifer.

// AsRawName is the method through which a Go wrapper hands out its native pointer.
func (d *Descriptor) AsRawName() string {
	return "AsRaw" + d.ownerName()
}

// WrapperConstructor is the unexported function adopting a native pointer.
func (d *Descriptor) WrapperConstructor() string {
	return "new" + d.ownerName()
}

// TrampolineSymbol is the exported Go function a Callback is dispatched through.
func (d *Descriptor) TrampolineSymbol() string {
	return d.prefix + "_" + d.SafeID + "_trampoline"
}

func (d *Descriptor) ownerName() string {
	if d.Kind == RawReference {
		return d.Inner.ownerName()
	}
	return d.GoName
}

// C names a cgo identifier.
func C(name string) *jen.Statement {
	return jen.Qual("C", name)
}

func unsafePointer(c jen.Code) *jen.Statement {
	return jen.Qual("unsafe", "Pointer").Call(c)
}

func (d *Descriptor) rt(name string) *jen.Statement {
	return jen.Qual(d.runtime, name)
}

// cgoType is the cgo rendering of the scalar or record type.
func (d *Descriptor) cgoType() *jen.Statement {
	switch d.Kind {
	case Primitive:
		return C(d.Scalar.Cgo)
	case ValueRecord, Callback:
		return C(d.CppExtern)
	case Text, Handle, SharedHandle, Collection, RawReference, Unresolved:
	}
	return jen.Qual("unsafe", "Pointer")
}

// HostParamType is the type of the argument in the Go wrapper signature.
func (d *Descriptor) HostParamType(out bool) jen.Code {
	d.mustResolve()
	switch d.Kind {
	case Primitive:
		if d.mutable(out) {
			return jen.Op("*").Id(d.GoName)
		}
		return jen.Id(d.GoName)
	case Text:
		if out && !d.CString {
			return jen.Op("*").String()
		}
		return jen.String()
	case ValueRecord:
		if d.mutable(out) {
			return jen.Op("*").Id(d.GoName)
		}
		return jen.Id(d.GoName)
	case Handle:
		if d.IsInterface() {
			return jen.Id(d.GoName)
		}
		return jen.Op("*").Id(d.GoName)
	case SharedHandle, Collection:
		return jen.Op("*").Id(d.GoName)
	case Callback:
		return jen.Id(d.GoName)
	case RawReference:
		switch {
		case d.ByPointer():
			return d.Inner.HostParamType(false)
		case d.IsOpaquePointer():
			return jen.Qual("unsafe", "Pointer")
		}
		return jen.Op("*").Id(d.Inner.GoName)
	case Unresolved:
	}
	return nil
}

// HostABIType is the type of the argument in the binary-interface declaration.
func (d *Descriptor) HostABIType(out bool) jen.Code {
	d.mustResolve()
	switch d.Kind {
	case Primitive, ValueRecord:
		if d.mutable(out) {
			return jen.Op("*").Add(d.cgoType())
		}
		return d.cgoType()
	case Text:
		if out && !d.CString {
			return jen.Op("**").Add(C("char"))
		}
		return jen.Op("*").Add(C("char"))
	case Handle, SharedHandle, Collection:
		return jen.Qual("unsafe", "Pointer")
	case Callback:
		return d.cgoType()
	case RawReference:
		if d.ByPointer() || d.IsOpaquePointer() {
			return jen.Qual("unsafe", "Pointer")
		}
		return jen.Op("*").Add(d.Inner.cgoType())
	case Unresolved:
	}
	return nil
}

// HostPreCall renders statements staging the argument before the call.
func (d *Descriptor) HostPreCall(name string, out bool) []jen.Code {
	d.mustResolve()
	switch d.Kind {
	case Text:
		if out && !d.CString {
			return []jen.Code{jen.Var().Id(name + "Out").Op("*").Add(C("char"))}
		}
		return []jen.Code{
			jen.Id(name + "C").Op(":=").Add(C("CString")).Call(jen.Id(name)),
			jen.Defer().Id("cFree").Call(unsafePointer(jen.Id(name + "C"))),
		}
	case Callback:
		return []jen.Code{
			jen.Var().Id(name + "Fn").Add(d.cgoType()),
			jen.If(jen.Id(name).Op("!=").Nil()).Block(
				jen.Id(name + "Fn").Op("=").Add(d.cgoType()).Call(C(d.TrampolineSymbol())),
			),
		}
	case Primitive, ValueRecord, Handle, SharedHandle, Collection, RawReference, Unresolved:
	}
	return nil
}

// HostCallArg renders the expression passed to the binary-interface declaration.
func (d *Descriptor) HostCallArg(name string, out bool) jen.Code {
	d.mustResolve()
	switch d.Kind {
	case Primitive, ValueRecord:
		if d.mutable(out) {
			return jen.Parens(jen.Op("*").Add(d.cgoType())).Call(unsafePointer(jen.Id(name)))
		}
		if d.Kind == Primitive {
			return d.cgoType().Call(jen.Id(name))
		}
		return jen.Op("*").Parens(jen.Op("*").Add(d.cgoType())).Call(unsafePointer(jen.Op("&").Id(name)))
	case Text:
		if out && !d.CString {
			return jen.Op("&").Id(name + "Out")
		}
		return jen.Id(name + "C")
	case Handle, SharedHandle, Collection:
		return jen.Id(name).Dot(d.AsRawName()).Call()
	case Callback:
		return jen.Id(name + "Fn")
	case RawReference:
		switch {
		case d.ByPointer():
			return jen.Id(name).Dot(d.AsRawName()).Call()
		case d.IsOpaquePointer():
			return jen.Id(name)
		}
		return jen.Parens(jen.Op("*").Add(d.Inner.cgoType())).Call(unsafePointer(jen.Id(name)))
	case Unresolved:
	}
	return nil
}

// HostPostCall keeps borrowed wrappers alive until the native side is done
// with them.
func (d *Descriptor) HostPostCall(name string, out bool) []jen.Code {
	d.mustResolve()
	switch d.Kind {
	case Handle, SharedHandle, Collection:
		return []jen.Code{jen.Qual("runtime", "KeepAlive").Call(jen.Id(name))}
	case RawReference:
		if d.ByPointer() {
			return []jen.Code{jen.Qual("runtime", "KeepAlive").Call(jen.Id(name))}
		}
	case Primitive, Text, ValueRecord, Callback, Unresolved:
	}
	return nil
}

// HostReceiveOut copies text the callee wrote to an output argument. It runs
// only after the call succeeded, so a failed call leaves the argument as is.
func (d *Descriptor) HostReceiveOut(name string, out bool) []jen.Code {
	d.mustResolve()
	if d.Kind != Text || !out || d.CString {
		return nil
	}
	return []jen.Code{
		d.rt("ReceiveStringInto").Call(jen.Id(name), unsafePointer(jen.Id(name+"Out")), jen.Id("cFree")),
	}
}

// HostResultType is the value type of the wrapper result, nil for void.
func (d *Descriptor) HostResultType() jen.Code {
	d.mustResolve()
	switch d.Kind {
	case Primitive:
		if d.IsVoid() {
			return nil
		}
		return jen.Id(d.GoName)
	case Text:
		return jen.String()
	case ValueRecord, Callback:
		return jen.Id(d.GoName)
	case Handle, SharedHandle, Collection:
		return jen.Op("*").Id(d.GoName)
	case RawReference:
		switch {
		case d.ByPointer():
			return jen.Op("*").Id(d.Inner.GoName)
		case d.IsOpaquePointer():
			return jen.Qual("unsafe", "Pointer")
		}
		return jen.Op("*").Id(d.Inner.GoName)
	case Unresolved:
	}
	return nil
}

// HostZero is the zero value returned alongside an error.
func (d *Descriptor) HostZero() jen.Code {
	d.mustResolve()
	switch d.Kind {
	case Primitive:
		if d.IsBool() {
			return jen.False()
		}
		return jen.Lit(0)
	case Text:
		return jen.Lit("")
	case ValueRecord:
		return jen.Id(d.GoName).Values()
	case Handle, SharedHandle, Collection, Callback, RawReference:
		return jen.Nil()
	case Unresolved:
	}
	return nil
}

// HostReceive renders the statements converting the envelope result held in
// rv into the returned value. Nullable results fail with the null-result error.
func (d *Descriptor) HostReceive(rv string) []jen.Code {
	d.mustResolve()
	result := jen.Id(rv).Dot("result")
	nullCheck := jen.If(jen.Id(rv).Dot("result").Op("==").Nil()).Block(
		jen.Return(d.HostZero(), d.rt("ErrNullResult")),
	)

	switch d.Kind {
	case Primitive:
		if d.IsVoid() {
			return []jen.Code{jen.Return(jen.Nil())}
		}
		return []jen.Code{jen.Return(jen.Id(d.GoName).Call(result), jen.Nil())}
	case Text:
		receive := jen.Return(d.rt("ReceiveString").Call(unsafePointer(result), jen.Id("cFree")), jen.Nil())
		if d.CString {
			return []jen.Code{nullCheck, receive}
		}
		return []jen.Code{receive}
	case ValueRecord:
		return []jen.Code{jen.Return(
			jen.Op("*").Parens(jen.Op("*").Id(d.GoName)).Call(unsafePointer(jen.Op("&").Add(result))),
			jen.Nil(),
		)}
	case Handle, SharedHandle, Collection:
		return []jen.Code{nullCheck, jen.Return(jen.Id(d.WrapperConstructor()).Call(result), jen.Nil())}
	case Callback:
		// callbacks are never returned; functions doing so are ignored
		return []jen.Code{jen.Return(d.HostZero(), d.rt("ErrNullResult"))}
	case RawReference:
		switch {
		case d.ByPointer():
			return []jen.Code{nullCheck, jen.Return(jen.Id(d.WrapperConstructor()).Call(result), jen.Nil())}
		case d.IsOpaquePointer():
			return []jen.Code{nullCheck, jen.Return(result, jen.Nil())}
		}
		return []jen.Code{nullCheck, jen.Return(
			jen.Parens(jen.Op("*").Id(d.Inner.GoName)).Call(unsafePointer(result)),
			jen.Nil(),
		)}
	case Unresolved:
	}
	return nil
}

// HostFromC converts a C value received by an exported callback trampoline
// into the Go argument of the callback. Only scalar, text and opaque pointer
// arguments are accepted by callbacks.
func (d *Descriptor) HostFromC(name string) jen.Code {
	d.mustResolve()
	switch d.Kind {
	case Primitive:
		return jen.Id(d.GoName).Call(jen.Id(name))
	case Text:
		return C("GoString").Call(jen.Id(name))
	case RawReference:
		if d.IsOpaquePointer() {
			return jen.Id(name)
		}
		return jen.Parens(jen.Op("*").Id(d.Inner.GoName)).Call(unsafePointer(jen.Id(name)))
	case ValueRecord, Handle, SharedHandle, Collection, Callback, Unresolved:
	}
	return jen.Id(name)
}

// CallbackCompatible reports whether the descriptor can be an argument of a
// callback dispatched through an exported Go trampoline.
func (d *Descriptor) CallbackCompatible() bool {
	switch d.Kind {
	case Primitive:
		return !d.IsVoid() && !d.mutable(false)
	case Text:
		return d.CString
	case RawReference:
		return !d.ByPointer() && (d.IsOpaquePointer() || d.Inner.Kind == Primitive)
	case ValueRecord, Handle, SharedHandle, Collection, Callback, Unresolved:
	}
	return false
}
