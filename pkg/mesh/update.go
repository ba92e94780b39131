package mesh

import "github.com/duskline/voxelcore/pkg/voxel"

// neighborMeshAndCell resolves the ChunkMesh and local cell coordinates a
// face in direction dir from (x,y,z) lands in: cm itself if the offset
// cell stays inside the chunk, otherwise the bound same-LOD neighbor.
func (m *Mesher) neighborMeshAndCell(cm *ChunkMesh, x, y, z int, dir Direction) (*ChunkMesh, int, int, int, bool) {
	dx, dy, dz := dir.Delta()
	nx, ny, nz := x+dx, y+dy, z+dz
	if nx >= 0 && nx < voxel.ChunkSize && ny >= 0 && ny < voxel.ChunkSize && nz >= 0 && nz < voxel.ChunkSize {
		return cm, nx, ny, nz, true
	}
	nb := cm.Neighbor(dir)
	if nb == nil {
		return nil, 0, 0, 0, false
	}
	_, wx, wy, wz := crossingDirection(nx, ny, nz)
	return nb, wx, wy, wz, true
}

// removeFaceAt drops the first front face that emitFace packed for the
// block at local cell (x,y,z) along dir (stored at the exposed cell one step
// along dir, wrapped into the chunk) from p's core list or, if the face was
// stitched across a chunk boundary, the matching neighbor list; it is a
// no-op if none matches (the face may have already been removed by a
// symmetric edit in the same UpdateBlock call).
func removeFaceAt(p *PrimitiveMesh, x, y, z int, dir Direction, onNeighborList bool) {
	list := &p.Core
	if onNeighborList {
		list = &p.Neighbors[dir]
	}
	dx, dy, dz := dir.Delta()
	const wrap = voxel.ChunkSize - 1
	ex, ey, ez := (x+dx)&wrap, (y+dy)&wrap, (z+dz)&wrap
	for i, f := range *list {
		if f.X() == ex && f.Y() == ey && f.Z() == ez && f.Normal() == dir && !f.IsBackFace() {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}

// removeBackFaceAt mirrors removeFaceAt for a block's inward back face: dir
// is the same direction emitFace packed it under (the list key), even though
// the back face's own Normal() is its opposite.
func removeBackFaceAt(p *PrimitiveMesh, x, y, z int, dir Direction, onNeighborList bool) {
	opp := dir.Opposite()
	list := &p.Core
	if onNeighborList {
		list = &p.Neighbors[dir]
	}
	for i, f := range *list {
		if f.X() == x && f.Y() == y && f.Z() == z && f.Normal() == opp && f.IsBackFace() {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}

// UpdateBlock applies a precise diff of the faces around (x,y,z) instead of
// a full re-mesh: for each of the six directions it checks whether the
// self-face and the opposite neighbor-face's visibility changed, adds or
// removes the affected faces, then writes the new block and calls Finish
// on every mesh touched.
func (m *Mesher) UpdateBlock(cm *ChunkMesh, x, y, z int, newBlock voxel.Block, slabs Slabs) error {
	oldBlock := cm.Chunk.GetBlock(x, y, z)
	touchedNeighbors := map[*ChunkMesh]struct{}{}

	for dir := Direction(0); dir < NumDirections; dir++ {
		nbMesh, nx, ny, nz, ok := m.neighborMeshAndCell(cm, x, y, z, dir)
		if !ok {
			continue
		}
		neighborBlock := nbMesh.Chunk.GetBlock(nx, ny, nz)

		wasVisible := m.canBeSeenThroughOtherBlock(oldBlock, neighborBlock, dir)
		willBeVisible := m.canBeSeenThroughOtherBlock(newBlock, neighborBlock, dir)
		if wasVisible && !willBeVisible {
			removeFaceAt(m.destination(cm, oldBlock.Type), x, y, z, dir, nbMesh != cm)
			if m.Attrs.HasBackFace(oldBlock.Type) {
				removeBackFaceAt(cm.Primitives[Transparent], x, y, z, dir, nbMesh != cm)
			}
		} else if !wasVisible && willBeVisible {
			m.emitFace(cm, newBlock, x, y, z, dir, nbMesh != cm)
		}

		opp := dir.Opposite()
		neighborWasVisible := m.canBeSeenThroughOtherBlock(neighborBlock, oldBlock, opp)
		neighborWillBeVisible := m.canBeSeenThroughOtherBlock(neighborBlock, newBlock, opp)
		if neighborWasVisible && !neighborWillBeVisible {
			removeFaceAt(m.destination(nbMesh, neighborBlock.Type), nx, ny, nz, opp, nbMesh != cm)
			if m.Attrs.HasBackFace(neighborBlock.Type) {
				removeBackFaceAt(nbMesh.Primitives[Transparent], nx, ny, nz, opp, nbMesh != cm)
			}
			if nbMesh != cm {
				touchedNeighbors[nbMesh] = struct{}{}
			}
		} else if !neighborWasVisible && neighborWillBeVisible {
			m.emitFace(nbMesh, neighborBlock, nx, ny, nz, opp, nbMesh != cm)
			if nbMesh != cm {
				touchedNeighbors[nbMesh] = struct{}{}
			}
		}
	}

	for nb := range touchedNeighbors {
		if err := m.Finish(nb, slabs); err != nil {
			return err
		}
	}

	cm.Chunk.UpdateBlock(x, y, z, newBlock)
	return m.Finish(cm, slabs)
}
