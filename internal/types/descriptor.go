// Package types classifies every native type spelling into one closed set of
// boundary-crossing strategies and renders each strategy on both sides of the
// boundary.
package types

import (
	"fmt"

	"gocxx/internal/classes"
	"gocxx/internal/config"
)

// Kind is the boundary-crossing strategy of a type.
type Kind int

const (
	// Primitive scalars cross by value with a declared C representation.
	Primitive Kind = iota
	// Text crosses as a NUL-terminated buffer; returned text is heap-duplicated.
	Text
	// ValueRecord structs share their layout on both sides and are copied.
	ValueRecord
	// Handle is an opaque pointer to a heap instance owned by one wrapper.
	Handle
	// SharedHandle is a reference-counted pointer to a Handle or scalar.
	SharedHandle
	// Collection is a native dynamic array reached through a shim ABI.
	Collection
	// Callback is a native function pointer type.
	Callback
	// RawReference is a non-owning pointer.
	RawReference
	// Unresolved types make their declaration unsupported.
	Unresolved
)

func (k Kind) String() string {
	switch k {
	case Primitive:
		return "primitive"
	case Text:
		return "text"
	case ValueRecord:
		return "value record"
	case Handle:
		return "handle"
	case SharedHandle:
		return "shared handle"
	case Collection:
		return "collection"
	case Callback:
		return "callback"
	case RawReference:
		return "raw reference"
	case Unresolved:
		return "unresolved"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Descriptor is the resolved form of one type spelling. Descriptors are
// created by Registry.Resolve and must not be modified afterwards.
type Descriptor struct {
	Kind Kind
	// Signature is the trimmed spelling this descriptor was resolved from.
	Signature string
	// TypeID is the spelling without const and reference modifiers.
	TypeID string
	ByRef  bool
	Const  bool

	// Inner is the element, pointee or managed type.
	Inner *Descriptor
	// Class is set for ValueRecord, Handle and Callback.
	Class *classes.Class
	// Scalar is set for Primitive.
	Scalar config.Primitive
	// CString marks Text spelled as a char pointer rather than a string class.
	CString bool
	// SmartPointer is the template spelling of a SharedHandle, e.g. "cv::Ptr".
	SmartPointer string
	// Reason explains an Unresolved descriptor.
	Reason string

	// CppType is the spelling of the type in the wrapped library.
	CppType string
	// CppExtern is the spelling used in the C binary interface.
	CppExtern string
	// SafeID is an identifier-safe tag used in function identifiers and shim names.
	SafeID string
	// CSafeID is an identifier-safe tag of CppExtern, naming the envelope.
	CSafeID string
	// GoName is the host type name, empty for void and raw pointers.
	GoName string

	prefix  string
	runtime string
}

// ByPointer reports whether values cross as an owning opaque pointer.
func (d *Descriptor) ByPointer() bool {
	switch d.Kind {
	case Handle, SharedHandle, Collection:
		return true
	case RawReference:
		return d.Inner.ByPointer()
	case Primitive, Text, ValueRecord, Callback, Unresolved:
		return false
	}
	return false
}

// CopyEligible reports whether values cross by copy. For every resolved
// descriptor exactly one of CopyEligible and ByPointer holds.
func (d *Descriptor) CopyEligible() bool {
	switch d.Kind {
	case Primitive, Text, ValueRecord, Callback:
		return true
	case RawReference:
		return !d.Inner.ByPointer()
	case Handle, SharedHandle, Collection, Unresolved:
		return false
	}
	return false
}

// Supported reports whether the descriptor resolved.
func (d *Descriptor) Supported() bool {
	return d.Kind != Unresolved
}

// IsVoid reports whether the descriptor is the void primitive.
func (d *Descriptor) IsVoid() bool {
	return d.Kind == Primitive && d.Scalar.Go == ""
}

// IsBool reports whether the descriptor is the bool primitive.
func (d *Descriptor) IsBool() bool {
	return d.Kind == Primitive && d.Scalar.Go == "bool"
}

// IsInterface reports whether the descriptor is a Handle of an interface class.
func (d *Descriptor) IsInterface() bool {
	return d.Kind == Handle && d.Class.Interface()
}

// IsOpaquePointer reports whether the descriptor is a void pointer.
func (d *Descriptor) IsOpaquePointer() bool {
	return d.Kind == RawReference && d.Inner.IsVoid()
}

// Nullable reports whether a returned value may be a null pointer that the
// host must reject.
func (d *Descriptor) Nullable() bool {
	switch d.Kind {
	case Handle, SharedHandle, Collection, RawReference:
		return true
	case Text:
		return d.CString
	}
	return false
}

// ElementCopyEligible reports whether collection elements are stored by
// value, which enables the contiguous data accessor for non-bool elements.
func (d *Descriptor) ElementCopyEligible() bool {
	return d.Inner != nil && (d.Inner.Kind == Primitive || d.Inner.Kind == ValueRecord)
}

// HasData reports whether a Collection exposes its contiguous storage.
func (d *Descriptor) HasData() bool {
	return d.Kind == Collection && d.ElementCopyEligible() && !d.Inner.IsBool()
}

// EnvelopeName is the C name of the result envelope returned for this type.
func (d *Descriptor) EnvelopeName() string {
	if d.IsVoid() {
		return d.prefix + "_return_value_void"
	}
	return d.prefix + "_return_value_" + d.CSafeID
}

// ShimSymbol names a shim operation of a Collection or SharedHandle.
func (d *Descriptor) ShimSymbol(op string) string {
	return d.prefix + "_" + d.SafeID + "_" + op
}

// DeleteSymbol names the destructor trampoline of an owning type.
func (d *Descriptor) DeleteSymbol() string {
	return d.ShimSymbol("delete")
}

// Prefix is the ABI symbol prefix this descriptor renders with.
func (d *Descriptor) Prefix() string {
	return d.prefix
}

func (d *Descriptor) String() string {
	if d.Kind == Unresolved {
		return fmt.Sprintf("%s (unresolved: %s)", d.Signature, d.Reason)
	}
	return fmt.Sprintf("%s (%s)", d.Signature, d.Kind)
}
