package types

import (
	"gocxx/internal/errors"
)

// The native side of the boundary: C++ trampoline fragments per descriptor.
// Every method switches over all kinds; Unresolved descriptors never reach
// emission and panic if they do.

func (d *Descriptor) mustResolve() {
	if d.Kind == Unresolved {
		panic(errors.AssertionFailedf("unresolved type %s reached emission: %s", d.Signature, d.Reason))
	}
}

// mutable reports whether an argument of this type is written by the callee.
func (d *Descriptor) mutable(out bool) bool {
	return out || (d.ByRef && !d.Const)
}

// NativeParam renders the trampoline parameter declaration.
func (d *Descriptor) NativeParam(name string, out bool) string {
	d.mustResolve()
	switch d.Kind {
	case Primitive, ValueRecord:
		if d.mutable(out) {
			return d.CppExtern + "* " + name
		}
		return d.CppExtern + " " + name
	case Text:
		if d.CString {
			return d.CppExtern + " " + name
		}
		if out {
			return "char** " + name
		}
		return "const char* " + name
	case Handle, SharedHandle, Collection:
		return "void* " + name
	case Callback:
		return d.CppExtern + " " + name
	case RawReference:
		if d.ByPointer() {
			return "void* " + name
		}
		return d.CppExtern + " " + name
	case Unresolved:
	}
	return ""
}

// NativePreCall renders staging before the native call, if any.
func (d *Descriptor) NativePreCall(name string, out bool) string {
	d.mustResolve()
	switch d.Kind {
	case Text:
		if !d.CString && out {
			return "std::string " + name + "_out;"
		}
	case Primitive, ValueRecord, Handle, SharedHandle, Collection, Callback, RawReference, Unresolved:
	}
	return ""
}

// NativeCallArg renders the expression passed to the native function.
func (d *Descriptor) NativeCallArg(name string, out bool) string {
	d.mustResolve()
	switch d.Kind {
	case Primitive:
		if d.mutable(out) {
			return "*" + name
		}
		return name
	case Text:
		if d.CString {
			return name
		}
		if out {
			return name + "_out"
		}
		return "std::string(" + name + ")"
	case ValueRecord:
		if d.mutable(out) {
			return "*reinterpret_cast<" + d.CppType + "*>(" + name + ")"
		}
		return "*reinterpret_cast<" + d.CppType + "*>(&" + name + ")"
	case Handle, SharedHandle, Collection:
		return "*reinterpret_cast<" + d.CppType + "*>(" + name + ")"
	case Callback:
		return name
	case RawReference:
		if d.ByPointer() {
			return "reinterpret_cast<" + d.Inner.CppType + "*>(" + name + ")"
		}
		if d.IsOpaquePointer() {
			return name
		}
		return "reinterpret_cast<" + d.CppType + ">(" + name + ")"
	case Unresolved:
	}
	return ""
}

// NativePostCall renders staging after the native call, if any.
func (d *Descriptor) NativePostCall(name string, out bool) string {
	d.mustResolve()
	switch d.Kind {
	case Text:
		if !d.CString && out {
			return "*" + name + " = strdup(" + name + "_out.c_str());"
		}
	case Primitive, ValueRecord, Handle, SharedHandle, Collection, Callback, RawReference, Unresolved:
	}
	return ""
}

// ResultField is the C type of the envelope result field, empty for void.
func (d *Descriptor) ResultField() string {
	d.mustResolve()
	switch d.Kind {
	case Primitive:
		if d.IsVoid() {
			return ""
		}
		return d.CppExtern
	case Text:
		return "char*"
	case ValueRecord, Callback:
		return d.CppExtern
	case Handle, SharedHandle, Collection:
		return "void*"
	case RawReference:
		if d.ByPointer() {
			return "void*"
		}
		return d.CppExtern
	case Unresolved:
	}
	return ""
}

// NativeReturn renders the statements invoking call and returning the
// success envelope. For constructors call is the "Type(args)" expression.
func (d *Descriptor) NativeReturn(call string, ctor bool) []string {
	d.mustResolve()
	switch d.Kind {
	case Primitive:
		if d.IsVoid() {
			return []string{call + ";", "return { 0, NULL };"}
		}
		return []string{d.CppType + " ret = " + call + ";", "return { 0, NULL, ret };"}
	case Text:
		if d.CString {
			return []string{
				d.CppType + " ret = " + call + ";",
				"return { 0, NULL, ret ? strdup(ret) : NULL };",
			}
		}
		return []string{"std::string ret = " + call + ";", "return { 0, NULL, strdup(ret.c_str()) };"}
	case ValueRecord:
		return []string{
			d.CppType + " ret = " + call + ";",
			"return { 0, NULL, *reinterpret_cast<" + d.CppExtern + "*>(&ret) };",
		}
	case Handle, SharedHandle, Collection:
		if ctor {
			return []string{d.CppType + "* ret = new " + call + ";", "return { 0, NULL, ret };"}
		}
		return []string{d.CppType + " ret = " + call + ";", "return { 0, NULL, new " + d.CppType + "(ret) };"}
	case Callback:
		return []string{d.CppType + " ret = " + call + ";", "return { 0, NULL, ret };"}
	case RawReference:
		if d.ByPointer() {
			return []string{
				d.CppType + "* ret = " + call + ";",
				"if (ret == NULL) return { 0, NULL, NULL };",
				"return { 0, NULL, new " + d.Inner.CppType + "(*ret) };",
			}
		}
		return []string{
			d.CppType + " ret = " + call + ";",
			"return { 0, NULL, reinterpret_cast<" + d.CppExtern + ">(ret) };",
		}
	case Unresolved:
	}
	return nil
}

// NativeInstance renders the parameter declaration of a method receiver.
func (d *Descriptor) NativeInstance() string {
	d.mustResolve()
	if d.Kind == ValueRecord {
		return d.CppExtern + "* instance"
	}
	return "void* instance"
}

// NativeInstanceAccess renders access to a member of the receiver, e.g.
// "reinterpret_cast<cv::Mat*>(instance)->rows".
func (d *Descriptor) NativeInstanceAccess(member string) string {
	d.mustResolve()
	return "reinterpret_cast<" + d.CppType + "*>(instance)->" + member
}
