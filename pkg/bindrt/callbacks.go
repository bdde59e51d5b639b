package bindrt

import (
	"sync"
	"unsafe"
)

// Host closures passed as callbacks are kept here and handed to native code
// as an opaque id. Each call site owns a slot; registering into a slot again
// releases the closure it held.
var callbacks = struct {
	sync.Mutex
	next   uintptr
	byID   map[uintptr]any
	bySlot map[string]uintptr
}{
	byID:   make(map[uintptr]any),
	bySlot: make(map[string]uintptr),
}

// RegisterCallback stores fn under slot and returns the id passed as
// userdata. A nil fn only clears the slot and returns 0.
func RegisterCallback(slot string, fn any) uintptr {
	callbacks.Lock()
	defer callbacks.Unlock()

	if old, ok := callbacks.bySlot[slot]; ok {
		delete(callbacks.byID, old)
		delete(callbacks.bySlot, slot)
	}
	if fn == nil {
		return 0
	}

	callbacks.next++
	id := callbacks.next
	callbacks.byID[id] = fn
	callbacks.bySlot[slot] = id
	return id
}

// LookupCallback returns the closure registered under id.
func LookupCallback(id uintptr) (any, bool) {
	callbacks.Lock()
	defer callbacks.Unlock()

	fn, ok := callbacks.byID[id]
	return fn, ok
}

// Userdata converts a callback id into the opaque pointer handed to native
// code. The pointer is never dereferenced.
func Userdata(id uintptr) unsafe.Pointer {
	return *(*unsafe.Pointer)(unsafe.Pointer(&id))
}

// UserdataID recovers the callback id from the opaque pointer.
func UserdataID(p unsafe.Pointer) uintptr {
	return uintptr(p)
}

// ReleaseCallback drops the closure held by slot.
func ReleaseCallback(slot string) {
	RegisterCallback(slot, nil)
}

// CallbackCount returns the number of live closures.
func CallbackCount() int {
	callbacks.Lock()
	defer callbacks.Unlock()

	return len(callbacks.byID)
}
