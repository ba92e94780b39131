package mesh

import "unsafe"

// dataPointer adapts a typed pointer to the unsafe.Pointer the slab
// allocator's Upload expects, for fixed-size records like light cubes and
// chunk descriptors.
func dataPointer[T any](v *T) unsafe.Pointer {
	return unsafe.Pointer(v)
}
