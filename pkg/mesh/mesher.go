package mesh

import (
	"fmt"

	"github.com/duskline/voxelcore/internal/gpuslab"
	"github.com/duskline/voxelcore/pkg/voxel"
	"go.uber.org/zap"
)

// ErrLODMissing is returned when a stitch or finalize step needed a
// neighbor that has since been evicted by the LOD window manager; callers
// re-queue the affected mesh rather than treating this as fatal.
var ErrLODMissing = fmt.Errorf("mesh: referenced neighbor is no longer resident")

// Slabs bundles the three GPU slab allocators a finished mesh uploads into.
type Slabs struct {
	Faces       *gpuslab.Slab
	Descriptors *gpuslab.Slab
	Lights      *gpuslab.Slab
}

// ChunkDescriptor is the per-chunk record uploaded to the descriptor slab;
// the renderer indexes it by DescriptorAlloc.Start to recover world offset,
// voxel size and the mesh's lightmap pointer grid.
type ChunkDescriptor struct {
	WX, WY, WZ int32
	VoxelSize  int32
	Lightmap   [lightGridSize * lightGridSize * lightGridSize]uint32
}

// Mesher turns chunk content into FaceData and light-cube records. It is
// stateless aside from its collaborators, so it is safe to share across
// every worker-thread goroutine.
type Mesher struct {
	Attrs voxel.BlockAttributes
	Log   *zap.SugaredLogger
}

// NewMesher builds a Mesher bound to a block registry and logger.
func NewMesher(attrs voxel.BlockAttributes, log *zap.SugaredLogger) *Mesher {
	return &Mesher{Attrs: attrs, Log: log}
}

func modelFillsFace(m voxel.ModelRef, dir Direction) bool {
	if m.FullCube {
		return true
	}
	switch dir {
	case Up:
		return m.Max[1] == 16
	case Down:
		return m.Min[1] == 0
	case East:
		return m.Max[0] == 16
	case West:
		return m.Min[0] == 0
	case South:
		return m.Max[2] == 16
	case North:
		return m.Min[2] == 0
	default:
		return true
	}
}

// canBeSeenThroughOtherBlock decides whether self exposes a face toward
// other along dir.
func (m *Mesher) canBeSeenThroughOtherBlock(self, other voxel.Block, dir Direction) bool {
	if self.Type == 0 {
		return false
	}
	selfModel := m.Attrs.Model(self)
	freestanding := !selfModel.FullCube && !modelFillsFace(selfModel, dir)

	if freestanding {
		return true
	}
	if other.Type == 0 {
		return true
	}
	if self.Type != other.Type && m.Attrs.ViewThrough(other.Type) {
		return true
	}
	if m.Attrs.Model(other).ModelIndex != 0 {
		return true
	}
	return false
}

func (m *Mesher) destination(cm *ChunkMesh, typ uint16) *PrimitiveMesh {
	if m.Attrs.Transparent(typ) {
		return cm.Primitives[Transparent]
	}
	if m.Attrs.Model(voxel.Block{Type: typ}).ModelIndex != 0 {
		return cm.Primitives[VoxelModel]
	}
	return cm.Primitives[Opaque]
}

// emitFace appends a face at the exposed neighbor cell's local coordinates
// into the correct primitive mesh's core list (or its neighbor list for dir
// when toNeighborList is set), plus the inward back face
// for blocks that have one.
func (m *Mesher) emitFace(cm *ChunkMesh, self voxel.Block, x, y, z int, dir Direction, toNeighborList bool) {
	dx, dy, dz := dir.Delta()
	perm := m.Attrs.Model(self).Permutation
	face := PackFace(x+dx, y+dy, z+dz, false, dir, perm, self.Type, m.Attrs.Model(self).ModelIndex)
	dest := m.destination(cm, self.Type)
	dest.appendFace(dir, toNeighborList, face)

	if m.Attrs.HasBackFace(self.Type) {
		back := PackFace(x, y, z, true, dir.Opposite(), perm, self.Type, m.Attrs.Model(self).ModelIndex)
		cm.Primitives[Transparent].appendFace(dir, toNeighborList, back)
	}
}

// RegenerateMainMesh performs the full 32^3 enumeration: every non-air cell
// tests its 6 same-chunk neighbors for visibility and emits faces into the
// core lists. Cross-chunk neighbors are left to the stitching pass; this
// pass also records each direction's viewThrough boundary rectangle, which
// the stitching passes do not read (they walk the whole chunk face).
func (m *Mesher) RegenerateMainMesh(cm *ChunkMesh) {
	for i := range cm.Primitives {
		cm.Primitives[i].Core = cm.Primitives[i].Core[:0]
	}
	for i := range cm.boundaries {
		cm.boundaries[i] = BoundingRectToNeighborChunk{}
	}

	for x := 0; x < voxel.ChunkSize; x++ {
		for y := 0; y < voxel.ChunkSize; y++ {
			for z := 0; z < voxel.ChunkSize; z++ {
				self := cm.Chunk.GetBlock(x, y, z)
				if self.Type == 0 {
					continue
				}
				for dir := Direction(0); dir < NumDirections; dir++ {
					dx, dy, dz := dir.Delta()
					nx, ny, nz := x+dx, y+dy, z+dz
					if nx < 0 || nx >= voxel.ChunkSize || ny < 0 || ny >= voxel.ChunkSize || nz < 0 || nz >= voxel.ChunkSize {
						continue
					}
					other := cm.Chunk.GetBlock(nx, ny, nz)
					if m.canBeSeenThroughOtherBlock(self, other, dir) {
						m.emitFace(cm, self, x, y, z, dir, false)
					}
				}
			}
		}
	}

	m.recordBoundaries(cm)
	cm.generation++
}

func boundaryPlaneCoords(dir Direction, a, b int) (x, y, z int) {
	switch dir {
	case Up:
		return a, voxel.ChunkSize - 1, b
	case Down:
		return a, 0, b
	case East:
		return voxel.ChunkSize - 1, a, b
	case West:
		return 0, a, b
	case South:
		return a, b, voxel.ChunkSize - 1
	case North:
		return a, b, 0
	}
	return 0, 0, 0
}

func (m *Mesher) recordBoundaries(cm *ChunkMesh) {
	for dir := Direction(0); dir < NumDirections; dir++ {
		var rect boundingRect
		for a := 0; a < voxel.ChunkSize; a++ {
			for b := 0; b < voxel.ChunkSize; b++ {
				x, y, z := boundaryPlaneCoords(dir, a, b)
				blk := cm.Chunk.GetBlock(x, y, z)
				if m.Attrs.ViewThrough(blk.Type) {
					rect.include(a, b)
				}
			}
		}
		cm.boundaries[dir] = BoundingRectToNeighborChunk{Valid: rect.valid, Min: rect.min, Max: rect.max}
	}
}

// StitchSeams walks every direction and applies whichever of the four seam
// cases applies: present-and-unchanged
// (skip), present-and-new (full boundary walk both ways), coarser-LOD
// present (degraded one-sided sampling), or neither (clear).
func (m *Mesher) StitchSeams(cm *ChunkMesh) {
	for dir := Direction(0); dir < NumDirections; dir++ {
		if nb := cm.Neighbor(dir); nb != nil {
			if cm.neighborGeneration[dir] == nb.generation {
				continue // present and unchanged since last stitch
			}
			m.stitchSameLOD(cm, nb, dir)
			cm.neighborGeneration[dir] = nb.generation
			continue
		}
		if coarser := cm.CoarserNeighbor(dir); coarser != nil {
			m.stitchCoarser(cm, coarser, dir)
			continue
		}
		for i := range cm.Primitives {
			cm.Primitives[i].clearNeighbor(dir)
		}
	}
}

// stitchSameLOD re-walks the 32x32 boundary shared by cm and nb along dir,
// emitting faces into each side's neighbor list in both directions.
func (m *Mesher) stitchSameLOD(cm, nb *ChunkMesh, dir Direction) {
	opp := dir.Opposite()
	for i := range cm.Primitives {
		cm.Primitives[i].clearNeighbor(dir)
	}
	for i := range nb.Primitives {
		nb.Primitives[i].clearNeighbor(opp)
	}

	for a := 0; a < voxel.ChunkSize; a++ {
		for b := 0; b < voxel.ChunkSize; b++ {
			x, y, z := boundaryPlaneCoords(dir, a, b)
			nx, ny, nz := boundaryPlaneCoords(opp, a, b)

			self := cm.Chunk.GetBlock(x, y, z)
			other := nb.Chunk.GetBlock(nx, ny, nz)

			if m.canBeSeenThroughOtherBlock(self, other, dir) {
				m.emitFace(cm, self, x, y, z, dir, true)
			}
			if m.canBeSeenThroughOtherBlock(other, self, opp) {
				m.emitFace(nb, other, nx, ny, nz, opp, true)
			}
		}
	}
}

// stitchCoarser degrades the seam against a coarser-LOD mesh: only faces
// facing into cm are emitted, since we never push into the coarser mesh's
// own neighbor lists (so the transition degrades gracefully rather than
// corrupting the parent's own seams).
func (m *Mesher) stitchCoarser(cm, coarser *ChunkMesh, dir Direction) {
	for i := range cm.Primitives {
		cm.Primitives[i].clearNeighbor(dir)
	}

	oct := cm.Octant()
	ox, oy, oz := int(oct)&1, int(oct>>1)&1, int(oct>>2)&1

	for a := 0; a < voxel.ChunkSize; a++ {
		for b := 0; b < voxel.ChunkSize; b++ {
			x, y, z := boundaryPlaneCoords(dir, a, b)

			cx := ((x + ox*voxel.ChunkSize) >> 1) & (voxel.ChunkSize - 1)
			cy := ((y + oy*voxel.ChunkSize) >> 1) & (voxel.ChunkSize - 1)
			cz := ((z + oz*voxel.ChunkSize) >> 1) & (voxel.ChunkSize - 1)

			self := cm.Chunk.GetBlock(x, y, z)
			other := coarser.Chunk.GetBlock(cx, cy, cz)

			if m.canBeSeenThroughOtherBlock(self, other, dir) {
				m.emitFace(cm, self, x, y, z, dir, true)
			}
		}
	}
}

// lightFootprint returns the coarse 6x6x6 light-grid cells that an emitted
// face at (x,y,z) touches: a 3x3x3 footprint of 8-cube cells around it.
func lightFootprint(x, y, z int) (gx0, gy0, gz0, gx1, gy1, gz1 int) {
	// +8 shifts the chunk's [0,31] range into the grid's [1,4] core cells,
	// leaving index 0 and 5 as the -8..-1 and 32..39 halo.
	cellOf := func(v int) int {
		g := (v + 8) / 8
		if g < 0 {
			g = 0
		}
		if g > lightGridSize-1 {
			g = lightGridSize - 1
		}
		return g
	}
	cx, cy, cz := cellOf(x), cellOf(y), cellOf(z)
	clampLo := func(v int) int {
		if v-1 < 0 {
			return 0
		}
		return v - 1
	}
	clampHi := func(v int) int {
		if v+1 > lightGridSize-1 {
			return lightGridSize - 1
		}
		return v + 1
	}
	return clampLo(cx), clampLo(cy), clampLo(cz), clampHi(cx), clampHi(cy), clampHi(cz)
}

// GetLightAt resolves the six light channels (RGB sun, RGB block) at one
// voxel, crossing into a bound same-LOD neighbor if the coordinates leave
// this chunk, or into a bound coarser-LOD neighbor (the same octant
// downsample stitchCoarser uses) when no same-LOD neighbor is bound there,
// falling back to zero only when neither is resident.
func (m *Mesher) GetLightAt(cm *ChunkMesh, x, y, z int) [6]byte {
	if x < 0 || x >= voxel.ChunkSize || y < 0 || y >= voxel.ChunkSize || z < 0 || z >= voxel.ChunkSize {
		dir, wx, wy, wz := crossingDirection(x, y, z)
		if nb := cm.Neighbor(dir); nb != nil {
			return m.GetLightAt(nb, wx, wy, wz)
		}
		if coarser := cm.CoarserNeighbor(dir); coarser != nil {
			oct := cm.Octant()
			ox, oy, oz := int(oct)&1, int(oct>>1)&1, int(oct>>2)&1
			cx := ((x + ox*voxel.ChunkSize) >> 1) & (voxel.ChunkSize - 1)
			cy := ((y + oy*voxel.ChunkSize) >> 1) & (voxel.ChunkSize - 1)
			cz := ((z + oz*voxel.ChunkSize) >> 1) & (voxel.ChunkSize - 1)
			return m.GetLightAt(coarser, cx, cy, cz)
		}
		return [6]byte{}
	}
	b := cm.Chunk.GetBlock(x, y, z)
	light := m.Attrs.Light(b.Type)
	absorb := m.Attrs.Absorption(b.Type)
	sun := uint8(255 - absorb)
	return [6]byte{sun, sun, sun, light[0], light[1], light[2]}
}

func crossingDirection(x, y, z int) (Direction, int, int, int) {
	switch {
	case x < 0:
		return West, x + voxel.ChunkSize, y, z
	case x >= voxel.ChunkSize:
		return East, x - voxel.ChunkSize, y, z
	case y < 0:
		return Down, x, y + voxel.ChunkSize, z
	case y >= voxel.ChunkSize:
		return Up, x, y - voxel.ChunkSize, z
	case z < 0:
		return North, x, y, z + voxel.ChunkSize
	default:
		return South, x, y, z - voxel.ChunkSize
	}
}

// compressLight packs six byte channels into a 32-bit word, 5 bits per
// channel left-shifted at positions 25, 20, 15, 10, 5, 0.
func compressLight(c [6]byte) uint32 {
	var w uint32
	shifts := [6]uint{25, 20, 15, 10, 5, 0}
	for i, v := range c {
		w |= (uint32(v) >> 3 & 0x1F) << shifts[i]
	}
	return w
}

// Finish concatenates core + neighbor lists for each primitive, flags and
// rebuilds every light-cube the newly emitted faces touch, uploads the
// light cubes and the chunk descriptor, and is the linearization point
// after which the mesh may be drawn.
func (m *Mesher) Finish(cm *ChunkMesh, slabs Slabs) error {
	touched := make(map[[3]int]struct{})
	for _, p := range cm.Primitives {
		walkFaces(p, func(f FaceData) {
			gx0, gy0, gz0, gx1, gy1, gz1 := lightFootprint(f.X(), f.Y(), f.Z())
			for gx := gx0; gx <= gx1; gx++ {
				for gy := gy0; gy <= gy1; gy++ {
					for gz := gz0; gz <= gz1; gz++ {
						touched[[3]int{gx, gy, gz}] = struct{}{}
					}
				}
			}
		})
	}

	for cell := range touched {
		if err := m.uploadLightCube(cm, cell, slabs.Lights); err != nil {
			return err
		}
	}

	for i := range cm.Primitives {
		if err := cm.Primitives[i].upload(slabs.Faces); err != nil {
			return fmt.Errorf("mesh: upload primitive %d: %w", i, err)
		}
	}

	if err := m.uploadDescriptor(cm, slabs.Descriptors); err != nil {
		return err
	}

	cm.Generated = true
	cm.Chunk.ClearChanged()
	cm.Chunk.MarkCleaned()
	if m.Log != nil {
		m.Log.Debugw("mesh finished", "pos", cm.Chunk.Position, "vertices", cm.VertexCount())
	}
	return nil
}

func walkFaces(p *PrimitiveMesh, fn func(FaceData)) {
	for _, f := range p.Core {
		fn(f)
	}
	for _, nb := range p.Neighbors {
		for _, f := range nb {
			fn(f)
		}
	}
}

func (m *Mesher) uploadLightCube(cm *ChunkMesh, cell [3]int, lights *gpuslab.Slab) error {
	const cubeSide = 8
	var cube [cubeSide * cubeSide * cubeSide]uint32
	baseX := cell[0]*8 - 8
	baseY := cell[1]*8 - 8
	baseZ := cell[2]*8 - 8
	idx := 0
	for dx := 0; dx < cubeSide; dx++ {
		for dy := 0; dy < cubeSide; dy++ {
			for dz := 0; dz < cubeSide; dz++ {
				ch := m.GetLightAt(cm, baseX+dx, baseY+dy, baseZ+dz)
				cube[idx] = compressLight(ch)
				idx++
			}
		}
	}

	alloc := gpuslab.Allocation{}
	if err := lights.Upload(dataPointer(&cube[0]), len(cube), &alloc); err != nil {
		return fmt.Errorf("mesh: upload light cube: %w", err)
	}
	gi := cell[0]*lightGridSize*lightGridSize + cell[1]*lightGridSize + cell[2]
	cm.lightmap[gi] = uint32(alloc.Start)
	return nil
}

func (m *Mesher) uploadDescriptor(cm *ChunkMesh, descriptors *gpuslab.Slab) error {
	desc := ChunkDescriptor{
		WX:        cm.Chunk.Position.WX,
		WY:        cm.Chunk.Position.WY,
		WZ:        cm.Chunk.Position.WZ,
		VoxelSize: cm.Chunk.Position.VoxelSize,
		Lightmap:  cm.lightmap,
	}
	if err := descriptors.Upload(dataPointer(&desc), 1, &cm.DescriptorAlloc); err != nil {
		return fmt.Errorf("mesh: upload descriptor: %w", err)
	}
	return nil
}
