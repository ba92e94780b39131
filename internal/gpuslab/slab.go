// Package gpuslab implements a typed slab allocator over a persistently
// mapped GPU buffer: a fixed binding index, a capacity in elements, and a
// free list of (start, len) runs. It is the sub-allocation layer the mesher
// and chunk-descriptor/light-cube uploads all share, adapted from the
// teacher's chunkBufferManager persistent-buffer/fence machinery and
// generalized from "one chunk slot" to "one free run of any length".
package gpuslab

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.6-core/gl"

	"openglhelper"
)

// Allocation identifies a live run of elements within a Slab. Len zero means
// "never allocated, Start undefined" — the zero value is always a valid,
// unallocated Allocation.
type Allocation struct {
	Start int
	Len   int
}

type freeRun struct {
	start, len int
}

// Slab is a fixed binding-index persistent buffer sub-allocated by element
// count. Element size is fixed at construction; every record the caller
// uploads must be that many bytes. The free-list bookkeeping lives in
// freelist so it can be unit-tested without a GL context.
type Slab struct {
	binding   uint32
	elemSize  int
	buffer    *openglhelper.BufferObject
	fl        *freelist
	rendering bool
}

// New creates a slab with the given element size (bytes) and initial
// capacity (elements), bound at a fixed SSBO binding index. When
// reserveZeroSlot is set, element 0 is allocated immediately and left
// zeroed, matching the light-cube slab's "slot 0 is the neutral lightmap"
// requirement.
func New(binding uint32, elemSize, initialCapacity int, reserveZeroSlot bool) (*Slab, error) {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	buf, err := openglhelper.NewPersistentBuffer(gl.SHADER_STORAGE_BUFFER, elemSize*initialCapacity, false, true)
	if err != nil {
		return nil, fmt.Errorf("gpuslab: allocate backing buffer: %w", err)
	}

	s := &Slab{
		binding:  binding,
		elemSize: elemSize,
		buffer:   buf,
		fl:       newFreelist(initialCapacity, reserveZeroSlot),
	}
	if reserveZeroSlot {
		s.zeroRange(0, 1)
	}
	return s, nil
}

func (s *Slab) zeroRange(start, length int) {
	if length <= 0 {
		return
	}
	base := uintptr(s.buffer.MappedPtr) + uintptr(start*s.elemSize)
	dst := unsafe.Slice((*byte)(unsafe.Pointer(base)), length*s.elemSize)
	for i := range dst {
		dst[i] = 0
	}
}

// grow doubles capacity until it can hold n additional elements, copying the
// existing contents into a freshly mapped buffer.
func (s *Slab) grow(need int) error {
	oldCap := s.fl.capacity
	newCap := s.fl.growTarget(need)

	newBuf, err := openglhelper.NewPersistentBuffer(s.buffer.Type, s.elemSize*newCap, false, true)
	if err != nil {
		return fmt.Errorf("gpuslab: grow backing buffer: %w", err)
	}

	oldSize := s.elemSize * oldCap
	src := unsafe.Slice((*byte)(s.buffer.MappedPtr), oldSize)
	dst := unsafe.Slice((*byte)(newBuf.MappedPtr), oldSize)
	copy(dst, src)

	s.fl.grow(newCap)
	s.buffer.Delete()
	s.buffer = newBuf
	return nil
}

// Upload writes records into the slab, reusing alloc if it still fits and
// otherwise freeing it and allocating a fresh contiguous run (extending
// capacity via exponential doubling if no free run is large enough). The
// allocation handle is rewritten in place.
func (s *Slab) Upload(data unsafe.Pointer, elemCount int, alloc *Allocation) error {
	if elemCount == 0 {
		s.Free(alloc)
		return nil
	}
	if alloc.Len < elemCount {
		s.Free(alloc)
		start, ok := s.fl.take(elemCount)
		if !ok {
			if err := s.grow(elemCount); err != nil {
				return err
			}
			start, ok = s.fl.take(elemCount)
			if !ok {
				return fmt.Errorf("gpuslab: no free run of %d elements after growth", elemCount)
			}
		}
		alloc.Start = start
		alloc.Len = elemCount
	}

	byteOffset := alloc.Start * s.elemSize
	byteSize := elemCount * s.elemSize
	dst := unsafe.Slice((*byte)(unsafe.Pointer(uintptr(s.buffer.MappedPtr)+uintptr(byteOffset))), byteSize)
	src := unsafe.Slice((*byte)(data), byteSize)
	copy(dst, src)
	return nil
}

// Free returns alloc's run to the free list and zeroes alloc.
func (s *Slab) Free(alloc *Allocation) {
	if alloc.Len == 0 {
		return
	}
	s.fl.release(alloc.Start, alloc.Len)
	*alloc = Allocation{}
}

// BeginRender binds the slab at its fixed binding index. Any pending
// reallocation from Upload/grow since the last EndRender is visible to
// subsequent draws because the buffer is persistently coherent-mapped.
func (s *Slab) BeginRender() {
	s.rendering = true
	s.buffer.BindBase(s.binding)
}

// EndRender marks the render-thread bracket closed.
func (s *Slab) EndRender() {
	s.rendering = false
}

// Capacity returns the current element capacity.
func (s *Slab) Capacity() int {
	return s.fl.capacity
}

// Cleanup releases the backing buffer.
func (s *Slab) Cleanup() {
	s.buffer.Delete()
}
