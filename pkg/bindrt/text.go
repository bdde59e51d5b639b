package bindrt

import (
	"unsafe"
)

// goString copies a NUL-terminated buffer.
func goString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}

	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

// ReceiveString copies text returned by a trampoline and releases the native
// buffer with free. A nil buffer yields "".
func ReceiveString(p unsafe.Pointer, free func(unsafe.Pointer)) string {
	if p == nil {
		return ""
	}

	s := goString(p)
	if free != nil {
		free(p)
	}
	return s
}

// ReceiveStringInto stores text written to an output argument into dst.
func ReceiveStringInto(dst *string, p unsafe.Pointer, free func(unsafe.Pointer)) {
	s := ReceiveString(p, free)
	if dst != nil {
		*dst = s
	}
}
