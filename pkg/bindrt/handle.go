package bindrt

import (
	"runtime"
	"sync"
	"unsafe"
)

// Handle owns one native instance and destroys it exactly once, either on
// Release or when the handle becomes unreachable. Using a handle concurrently
// with its Release is not supported.
type Handle struct {
	ptr     unsafe.Pointer
	release func(unsafe.Pointer)
	once    sync.Once
}

// NewHandle takes ownership of ptr. release is the destructor trampoline.
func NewHandle(ptr unsafe.Pointer, release func(unsafe.Pointer)) *Handle {
	h := &Handle{ptr: ptr, release: release}
	runtime.SetFinalizer(h, (*Handle).Release)
	return h
}

// Pointer returns the native pointer, nil after Release.
func (h *Handle) Pointer() unsafe.Pointer {
	if h == nil {
		return nil
	}
	return h.ptr
}

// Release destroys the native instance. Later calls do nothing.
func (h *Handle) Release() {
	if h == nil {
		return
	}

	h.once.Do(func() {
		runtime.SetFinalizer(h, nil)
		if h.ptr != nil && h.release != nil {
			h.release(h.ptr)
		}
		h.ptr = nil
	})
}

// Close releases the handle, satisfying io.Closer.
func (h *Handle) Close() error {
	h.Release()
	return nil
}

// Released reports whether the native instance is gone.
func (h *Handle) Released() bool {
	return h == nil || h.ptr == nil
}
