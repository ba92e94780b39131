package mesh

import (
	"unsafe"

	"github.com/duskline/voxelcore/internal/gpuslab"
)

// boundingRect records the min/max rectangle of cells along one chunk face
// that are viewThrough. The seam passes do not consult it; they walk the
// whole 32x32 boundary.
type boundingRect struct {
	valid    bool
	min, max [2]int // the two in-plane axes for this direction
}

func (r *boundingRect) include(a, b int) {
	if !r.valid {
		r.min = [2]int{a, b}
		r.max = [2]int{a, b}
		r.valid = true
		return
	}
	if a < r.min[0] {
		r.min[0] = a
	}
	if b < r.min[1] {
		r.min[1] = b
	}
	if a > r.max[0] {
		r.max[0] = a
	}
	if b > r.max[1] {
		r.max[1] = b
	}
}

// Kind selects which of a ChunkMesh's three PrimitiveMeshes a face belongs
// in, per the dispatch rule in Mesher.destination.
type Kind int

const (
	Opaque Kind = iota
	VoxelModel
	Transparent
)

// PrimitiveMesh holds one kind of face data for one chunk: the core faces
// (both cells inside this chunk) plus six per-direction neighbor lists (one
// side of a cross-chunk seam each), concatenated lazily by finish into a
// single upload to the face slab.
type PrimitiveMesh struct {
	Core      []FaceData
	Neighbors [NumDirections][]FaceData

	// pending holds the result of the last concat, valid once uploaded is
	// true; upload rebuilds it from core + neighbor lists on every call.
	pending  []FaceData
	uploaded bool

	Alloc       gpuslab.Allocation
	VertexCount int // faces * 4, set at the linearization point (finish)

	boundary [NumDirections]boundingRect
}

// Faces returns the total number of faces across core and all neighbor
// lists, i.e. what finish is about to upload.
func (p *PrimitiveMesh) Faces() int {
	n := len(p.Core)
	for _, nb := range p.Neighbors {
		n += len(nb)
	}
	return n
}

// concat rebuilds the contiguous upload buffer from core + neighbor lists.
func (p *PrimitiveMesh) concat() []FaceData {
	total := p.Faces()
	buf := make([]FaceData, 0, total)
	buf = append(buf, p.Core...)
	for _, nb := range p.Neighbors {
		buf = append(buf, nb...)
	}
	return buf
}

// AllFaces returns every face currently belonging to this primitive, core
// and neighbor lists concatenated, in upload order. Callers that need to
// re-sort draw order (the transparent pass) use this together with
// ReorderAndUpload instead of touching Core/Neighbors directly.
func (p *PrimitiveMesh) AllFaces() []FaceData {
	return p.concat()
}

// upload concatenates and writes this primitive mesh's faces to slab,
// freeing the allocation when there are no faces and otherwise letting the
// slab reallocate only when the existing allocation is too small, and sets
// VertexCount as the draw-safety linearization point.
func (p *PrimitiveMesh) upload(slab *gpuslab.Slab) error {
	faces := p.concat()
	p.pending = faces
	if len(faces) == 0 {
		slab.Free(&p.Alloc)
		p.VertexCount = 0
		p.uploaded = true
		return nil
	}
	if err := slab.Upload(unsafe.Pointer(&faces[0]), len(faces), &p.Alloc); err != nil {
		return err
	}
	p.VertexCount = len(faces) * 4
	p.uploaded = true
	return nil
}

// ReorderAndUpload re-uploads faces in a caller-chosen draw order without
// touching Core/Neighbors bookkeeping. It is used by the renderer's
// transparent pass, which re-sorts draw order by viewer distance every
// frame but must not disturb which faces are considered
// part of the mesh. faces must contain exactly the same faces Faces()
// currently reports, just reordered.
func (p *PrimitiveMesh) ReorderAndUpload(faces []FaceData, slab *gpuslab.Slab) error {
	if len(faces) == 0 {
		slab.Free(&p.Alloc)
		p.VertexCount = 0
		return nil
	}
	if err := slab.Upload(unsafe.Pointer(&faces[0]), len(faces), &p.Alloc); err != nil {
		return err
	}
	p.VertexCount = len(faces) * 4
	return nil
}

func (p *PrimitiveMesh) clearNeighbor(dir Direction) {
	p.Neighbors[dir] = nil
	p.boundary[dir] = boundingRect{}
}

func (p *PrimitiveMesh) appendFace(dir Direction, isNeighborList bool, f FaceData) {
	if isNeighborList {
		p.Neighbors[dir] = append(p.Neighbors[dir], f)
	} else {
		p.Core = append(p.Core, f)
	}
}
