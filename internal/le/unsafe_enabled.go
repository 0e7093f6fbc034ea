// We enable 64 bit LE platforms:

//go:build (amd64 || arm64 || ppc64le || riscv64) && !nounsafe && !purego && !appengine

package le

import (
	"unsafe"
)

// Load32 will load from b at index i.
// If the compiler can prove that b is at least 1 byte this will be without bounds check.
func Load32(b []byte, i int) uint32 {
	return *(*uint32)(unsafe.Pointer(uintptr(unsafe.Pointer(&b[0])) + uintptr(i)))
}

// Load64 will load from b at index i.
// If the compiler can prove that b is at least 1 byte this will be without bounds check.
func Load64(b []byte, i int) uint64 {
	return *(*uint64)(unsafe.Pointer(uintptr(unsafe.Pointer(&b[0])) + uintptr(i)))
}

// Store32 will store v at b.
func Store32(b []byte, v uint32) {
	*(*uint32)(unsafe.Pointer(&b[0])) = v
}

// Store64 will store v at b.
func Store64(b []byte, v uint64) {
	*(*uint64)(unsafe.Pointer(&b[0])) = v
}
