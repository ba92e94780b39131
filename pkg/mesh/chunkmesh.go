package mesh

import (
	"sync"
	"sync/atomic"

	"github.com/duskline/voxelcore/internal/gpuslab"
	"github.com/duskline/voxelcore/pkg/voxel"
)

// lightGridSize is the coarse light-cube pointer grid's edge length: one
// pointer per 8^3 light cube sampled over a -8..+39 range around the mesh,
// covering the chunk plus a one-cube halo on every side.
const lightGridSize = 6

// BoundingRectToNeighborChunk is one direction's viewThrough rectangle as
// recorded by RegenerateMainMesh. The seam stitching passes do not read it;
// they walk the whole 32x32 boundary.
type BoundingRectToNeighborChunk struct {
	Valid    bool
	Min, Max [2]int
}

// ChunkMesh owns one Chunk, the three kind-specific PrimitiveMeshes derived
// from it, backreferences to its same-LOD neighbor meshes, the coarse
// light-cube pointer grid, its chunk-descriptor slot, and an octant
// visibility mask the LOD window manager maintains. Every mutating method
// (mesher, render-thread finish/upload) takes the non-reentrant Mu; workers
// hold it while meshing and the render thread only takes it briefly, via
// TryLock, at upload time.
type ChunkMesh struct {
	Chunk *voxel.Chunk

	Mu         sync.Mutex
	Primitives [3]*PrimitiveMesh // indexed by Kind

	neighbors [NumDirections]*ChunkMesh
	// neighborGeneration tracks the neighbor ChunkMesh's own generation
	// counter at the time this mesh last stitched against it, so
	// StitchSeams can tell "present and unchanged" from
	// "present and new" without a full face re-walk.
	neighborGeneration [NumDirections]uint64
	generation         uint64

	lightmap [lightGridSize * lightGridSize * lightGridSize]uint32

	DescriptorAlloc gpuslab.Allocation

	// VisibilityMask has one bit per octant; a bit is cleared while a
	// higher-resolution child mesh covers that octant. It starts with every
	// bit set and is only ever touched by the render thread's window sweep,
	// so it needs no atomic access of its own.
	VisibilityMask uint8

	// RefCount is relaxed atomic per the concurrency model: its lifetime is
	// otherwise protected by the LOD window and the clear list, so ordering
	// between increments/decrements doesn't need to be observed elsewhere.
	RefCount atomic.Int32

	Generated bool

	boundaries [NumDirections]BoundingRectToNeighborChunk

	// coarserNeighbors is consulted only when the same-LOD neighbor in a
	// direction is absent; it lets a child mesh degrade its seam gracefully
	// against a coarser LOD parent instead of leaving a hole.
	coarserNeighbors [NumDirections]*ChunkMesh

	// octant is this mesh's position (0-7, matching the visibility-mask
	// octant index) within its coarser-LOD parent; it selects which half of
	// the parent's volume to sample from when stitching against it.
	octant uint8
}

// NewChunkMesh creates an empty-but-positioned mesh wrapping chunk, with all
// three primitive kinds allocated but empty.
func NewChunkMesh(chunk *voxel.Chunk) *ChunkMesh {
	cm := &ChunkMesh{Chunk: chunk, VisibilityMask: 0xFF}
	for i := range cm.Primitives {
		cm.Primitives[i] = &PrimitiveMesh{}
	}
	return cm
}

// Neighbor returns the currently bound same-LOD neighbor mesh in dir, or
// nil if none is bound.
func (cm *ChunkMesh) Neighbor(dir Direction) *ChunkMesh {
	return cm.neighbors[dir]
}

// SetNeighbor binds (or clears, with nil) the same-LOD neighbor in dir.
func (cm *ChunkMesh) SetNeighbor(dir Direction, n *ChunkMesh) {
	cm.neighbors[dir] = n
}

// VertexCount sums the draw-safety vertex counts of all three primitives;
// it is zero until finish has completed at least once, which is the point
// at which a mesh becomes safe to draw.
func (cm *ChunkMesh) VertexCount() int {
	total := 0
	for _, p := range cm.Primitives {
		total += p.VertexCount
	}
	return total
}

// CoarserNeighbor returns the coarser-LOD mesh degraded-seam neighbor bound
// in dir, or nil.
func (cm *ChunkMesh) CoarserNeighbor(dir Direction) *ChunkMesh {
	return cm.coarserNeighbors[dir]
}

// SetCoarserNeighbor binds (or clears, with nil) the coarser-LOD neighbor
// used for a degraded seam in dir.
func (cm *ChunkMesh) SetCoarserNeighbor(dir Direction, n *ChunkMesh) {
	cm.coarserNeighbors[dir] = n
}

// Octant returns this mesh's octant index within its coarser-LOD parent.
func (cm *ChunkMesh) Octant() uint8 { return cm.octant }

// SetOctant records this mesh's octant index within its coarser-LOD parent.
func (cm *ChunkMesh) SetOctant(o uint8) { cm.octant = o }

// Retain/Release implement the relaxed-atomic reference count.
func (cm *ChunkMesh) Retain() { cm.RefCount.Add(1) }
func (cm *ChunkMesh) Release() int32 {
	return cm.RefCount.Add(-1)
}
