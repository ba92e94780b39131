package lod

import (
	"math"

	"github.com/duskline/voxelcore/pkg/mesh"
	"github.com/duskline/voxelcore/pkg/voxel"
)

// FrustumTester is the render collaborator's AABB visibility test; pkg/lod
// depends on the interface only; pkg/render provides the implementation, so
// nothing in this package imports pkg/render and the dependency stays one
// way.
type FrustumTester interface {
	TestAABB(pos [3]float64, dims [3]float64) bool
}

// RenderableMesh is one entry UpdateAndGetRenderChunks appends to its
// output list: a drawable, frustum-visible mesh at a known world position.
type RenderableMesh struct {
	Mesh *mesh.ChunkMesh
	Pos  voxel.ChunkPosition
}

func sizeShift(voxelSize int32) int {
	shift := 0
	for v := voxelSize; v > 1; v >>= 1 {
		shift++
	}
	return shift
}

// UpdateAndGetRenderChunks runs one frame's window update for every LOD
// level: computes the per-LOD render radius, iterates a sphere-in-box of
// candidate cells, reuses or creates nodes, tests frustum+drawability,
// clears occluded parent octants, sweeps evicted nodes (deferring to the
// clear list under worker contention), and issues one batched chunk
// request for everything newly needed.
func (wm *WindowManager) UpdateAndGetRenderChunks(playerWX, playerWY, playerWZ float64, rd int, lodFactor float64, frustum FrustumTester, out *[]RenderableMesh) {
	*out = (*out)[:0]
	var requested []voxel.ChunkPosition

	for k := range wm.levels {
		voxelSize := int32(1) << uint(k)
		radius := renderRadius(rd, k, lodFactor)
		radiusCells := radius / int(voxelSize) / voxel.ChunkSize
		if radiusCells < 1 {
			radiusCells = 1
		}

		lvl := wm.levels[k]
		lvl.mu.Lock()
		oldStorage := lvl.storage
		lvl.storage = make(map[cell]*ChunkMeshNode, len(oldStorage))

		centerX := int(playerWX) / (int(voxelSize) * voxel.ChunkSize)
		centerY := int(playerWY) / (int(voxelSize) * voxel.ChunkSize)
		centerZ := int(playerWZ) / (int(voxelSize) * voxel.ChunkSize)
		newOrigin := cell{x: centerX, y: centerY, z: centerZ}

		for dx := -radiusCells; dx <= radiusCells; dx++ {
			for dy := -radiusCells; dy <= radiusCells; dy++ {
				euclid := math.Sqrt(float64(dx*dx + dy*dy))
				if euclid > float64(radiusCells) {
					continue
				}
				for dz := -radiusCells; dz <= radiusCells; dz++ {
					if math.Sqrt(euclid*euclid+float64(dz*dz)) > float64(radiusCells) {
						continue
					}

					absX, absY, absZ := centerX+dx, centerY+dy, centerZ+dz
					c := cell{x: absX, y: absY, z: absZ}

					var node *ChunkMeshNode
					if old, ok := oldStorage[c]; ok {
						old.shouldBeRemoved = false
						node = old
					} else {
						pos := voxel.ChunkPosition{
							WX:        int32(absX) * voxelSize * voxel.ChunkSize,
							WY:        int32(absY) * voxelSize * voxel.ChunkSize,
							WZ:        int32(absZ) * voxelSize * voxel.ChunkSize,
							VoxelSize: voxelSize,
						}
						if cached, ok := wm.cache.take(pos); ok {
							cached.shouldBeRemoved = false
							node = cached
						} else {
							chunk := voxel.NewChunk(pos)
							node = &ChunkMeshNode{Mesh: mesh.NewChunkMesh(chunk), shouldBeRemoved: true}
							requested = append(requested, pos)
							priority := pos.Priority(playerWX, playerWY, playerWZ)
							wm.Enqueue(node, pos, priority)
						}
					}
					lvl.storage[c] = node

					worldPos := [3]float64{
						float64(int32(absX) * voxelSize * voxel.ChunkSize),
						float64(int32(absY) * voxelSize * voxel.ChunkSize),
						float64(int32(absZ) * voxelSize * voxel.ChunkSize),
					}
					side := float64(voxelSize) * float64(voxel.ChunkSize)
					drawable := node.Mesh != nil && node.Mesh.VisibilityMask != 0 && node.Mesh.VertexCount() != 0
					if frustum != nil && frustum.TestAABB(worldPos, [3]float64{side, side, side}) && drawable {
						*out = append(*out, RenderableMesh{Mesh: node.Mesh, Pos: node.Mesh.Chunk.Position})
					}

					if node.Mesh != nil && node.Mesh.Generated && k < len(wm.levels)-1 {
						shift := sizeShift(voxelSize)
						oi := octantIndex(absX, absY, absZ, shift)
						if parent, ok := wm.nodeAt(k+1, cell{x: absX >> 1, y: absY >> 1, z: absZ >> 1}); ok && parent.Mesh != nil {
							parent.Mesh.VisibilityMask &^= 1 << uint(oi)
						}
					}
				}
			}
		}
		lvl.origin = newOrigin
		lvl.mu.Unlock()

		wm.sweepEvicted(k, oldStorage, lvl.storage)
	}

	for k := range wm.levels {
		wm.bindNeighbors(k)
	}

	wm.retryClearList()

	if len(requested) > 0 && wm.source != nil {
		wm.source.RequestChunks(requested)
	}
}

// bindNeighbors wires each node's same-LOD ChunkMesh neighbor backrefs and,
// when a same-LOD neighbor is absent, its coarser-LOD degraded-seam
// neighbor, so the mesher's StitchSeams never needs to know about the
// window manager at all.
func (wm *WindowManager) bindNeighbors(k int) {
	lvl := wm.levels[k]
	lvl.mu.Lock()
	storage := lvl.storage
	lvl.mu.Unlock()

	dirs := []mesh.Direction{mesh.North, mesh.South, mesh.East, mesh.West, mesh.Up, mesh.Down}
	for c, node := range storage {
		if node.Mesh == nil {
			continue
		}
		for _, dir := range dirs {
			dx, dy, dz := dir.Delta()
			nc := cell{x: c.x + dx, y: c.y + dy, z: c.z + dz}
			if nb, ok := storage[nc]; ok {
				node.Mesh.SetNeighbor(dir, nb.Mesh)
				node.Mesh.SetCoarserNeighbor(dir, nil)
				continue
			}
			node.Mesh.SetNeighbor(dir, nil)
			if k < len(wm.levels)-1 {
				if parent, ok := wm.nodeAt(k+1, cell{x: c.x >> 1, y: c.y >> 1, z: c.z >> 1}); ok && parent.Mesh != nil {
					shift := sizeShift(int32(1) << uint(k))
					node.Mesh.SetOctant(uint8(octantIndex(c.x, c.y, c.z, shift)))
					node.Mesh.SetCoarserNeighbor(dir, parent.Mesh)
					continue
				}
			}
			node.Mesh.SetCoarserNeighbor(dir, nil)
		}
	}
}

// sweepEvicted handles every node from the previous frame's storage that
// did not get reused this frame.
func (wm *WindowManager) sweepEvicted(k int, oldStorage, newStorage map[cell]*ChunkMeshNode) {
	for c, node := range oldStorage {
		if _, stillLive := newStorage[c]; stillLive {
			continue
		}
		wm.evict(k, c, node)
	}
}

func (wm *WindowManager) evict(k int, c cell, node *ChunkMeshNode) {
	if node.Mesh == nil {
		return
	}
	if !node.Mesh.Mu.TryLock() {
		wm.clearMu.Lock()
		wm.clearList = append(wm.clearList, clearEntry{node: node, pos: node.Mesh.Chunk.Position})
		wm.clearMu.Unlock()
		return
	}
	node.Mesh.Mu.Unlock()
	wm.destroy(k, c, node)
}

// destroy re-sets the parent's octant bit (so the parent reappears in the
// evicted child's place) and refreshes the seams of the six same-LOD
// neighbors that bordered it.
func (wm *WindowManager) destroy(k int, c cell, node *ChunkMeshNode) {
	if node.Mesh == nil {
		return
	}
	voxelSize := int32(1) << uint(k)
	shift := sizeShift(voxelSize)
	if k < len(wm.levels)-1 {
		if parent, ok := wm.nodeAt(k+1, cell{x: c.x >> 1, y: c.y >> 1, z: c.z >> 1}); ok && parent.Mesh != nil {
			oi := octantIndex(c.x, c.y, c.z, shift)
			parent.Mesh.VisibilityMask |= 1 << uint(oi)
		}
	}
	wm.refreshNeighborSeams(k, c)
	wm.cache.put(node.Mesh.Chunk.Position, node)
}

func (wm *WindowManager) refreshNeighborSeams(k int, c cell) {
	offsets := []cell{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	for _, off := range offsets {
		nc := cell{x: c.x + off.x, y: c.y + off.y, z: c.z + off.z}
		if nb, ok := wm.nodeAt(k, nc); ok && nb.Mesh != nil {
			if nb.Mesh.Mu.TryLock() {
				wm.mesher.StitchSeams(nb.Mesh)
				nb.Mesh.Mu.Unlock()
			}
		}
	}
}

// retryClearList re-attempts every deferred eviction; entries still held by
// a worker remain queued for next frame.
func (wm *WindowManager) retryClearList() {
	wm.clearMu.Lock()
	pending := wm.clearList
	wm.clearList = nil
	wm.clearMu.Unlock()

	var stillPending []clearEntry
	for _, e := range pending {
		if e.node.Mesh == nil || e.node.Mesh.Mu.TryLock() {
			if e.node.Mesh != nil {
				e.node.Mesh.Mu.Unlock()
			}
			k := lodIndex(e.pos.VoxelSize)
			c := cell{
				x: int(e.pos.WX / e.pos.VoxelSize / voxel.ChunkSize),
				y: int(e.pos.WY / e.pos.VoxelSize / voxel.ChunkSize),
				z: int(e.pos.WZ / e.pos.VoxelSize / voxel.ChunkSize),
			}
			wm.destroy(k, c, e.node)
		} else {
			stillPending = append(stillPending, e)
		}
	}

	wm.clearMu.Lock()
	wm.clearList = append(wm.clearList, stillPending...)
	wm.clearMu.Unlock()
}

// GetBlock looks up a world-space block at voxelSize resolution in O(1) by
// computing the owning node's absolute chunk-cell index directly from world
// coordinates (storage is keyed by this absolute index, not an origin
// offset).
func (wm *WindowManager) GetBlock(wx, wy, wz, voxelSize int32) voxel.Block {
	k := lodIndex(voxelSize)
	if k < 0 || k >= len(wm.levels) {
		return voxel.Air
	}
	chunkSide := voxelSize * voxel.ChunkSize
	c := cell{x: int(wx / chunkSide), y: int(wy / chunkSide), z: int(wz / chunkSide)}
	node, ok := wm.nodeAt(k, c)
	if !ok || node.Mesh == nil {
		return voxel.Air
	}
	lx := int((wx % chunkSide) / voxelSize)
	ly := int((wy % chunkSide) / voxelSize)
	lz := int((wz % chunkSide) / voxelSize)
	return node.Mesh.Chunk.GetBlock(lx, ly, lz)
}

// GetNeighbor returns the same-LOD neighbor node one chunk away from pos in
// dir, or nil if none is resident.
func (wm *WindowManager) GetNeighbor(pos voxel.ChunkPosition, dir mesh.Direction) *ChunkMeshNode {
	k := lodIndex(pos.VoxelSize)
	if k < 0 || k >= len(wm.levels) {
		return nil
	}
	dx, dy, dz := dir.Delta()
	chunkSide := pos.VoxelSize * voxel.ChunkSize
	c := cell{
		x: int(pos.WX/chunkSide) + dx,
		y: int(pos.WY/chunkSide) + dy,
		z: int(pos.WZ/chunkSide) + dz,
	}
	node, ok := wm.nodeAt(k, c)
	if !ok {
		return nil
	}
	return node
}
