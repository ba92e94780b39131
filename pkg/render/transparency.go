package render

import (
	"github.com/duskline/voxelcore/pkg/mesh"
)

// sortTransparentFaces implements the cull-then-bucket-sort pass: a face is
// culled when it faces away from the viewer along its own normal axis,
// except on the chunk's own boundary plane (coordinate zero along that
// axis) which is never culled since a neighbor chunk may still need to see
// through it. The surviving faces are bucketed by Manhattan distance to
// the viewer in chunk cells, descending (farthest first), with back faces
// ordered before front faces within each bucket so they render first.
func sortTransparentFaces(faces []mesh.FaceData, viewerChunkLocal [3]int) []mesh.FaceData {
	culled := make([]mesh.FaceData, 0, len(faces))
	for _, f := range faces {
		if shouldBeCulled(f, viewerChunkLocal) {
			continue
		}
		culled = append(culled, f)
	}

	maxDist := 0
	dist := make([]int, len(culled))
	for i, f := range culled {
		d := manhattanDistance(f, viewerChunkLocal)
		dist[i] = d
		if d > maxDist {
			maxDist = d
		}
	}

	buckets := make([][]mesh.FaceData, maxDist+1)
	for i, f := range culled {
		buckets[dist[i]] = append(buckets[dist[i]], f)
	}

	sorted := make([]mesh.FaceData, 0, len(culled))
	for d := maxDist; d >= 0; d-- {
		bucket := buckets[d]
		back := make([]mesh.FaceData, 0, len(bucket))
		front := make([]mesh.FaceData, 0, len(bucket))
		for _, f := range bucket {
			if f.IsBackFace() {
				back = append(back, f)
			} else {
				front = append(front, f)
			}
		}
		sorted = append(sorted, back...)
		sorted = append(sorted, front...)
	}
	return sorted
}

func shouldBeCulled(f mesh.FaceData, viewerChunkLocal [3]int) bool {
	switch f.Normal() {
	case mesh.East:
		if f.X() == 0 {
			return false
		}
		return viewerChunkLocal[0] < f.X()
	case mesh.West:
		if f.X() == 0 {
			return false
		}
		return viewerChunkLocal[0] > f.X()
	case mesh.Up:
		if f.Y() == 0 {
			return false
		}
		return viewerChunkLocal[1] < f.Y()
	case mesh.Down:
		if f.Y() == 0 {
			return false
		}
		return viewerChunkLocal[1] > f.Y()
	case mesh.North:
		if f.Z() == 0 {
			return false
		}
		return viewerChunkLocal[2] < f.Z()
	case mesh.South:
		if f.Z() == 0 {
			return false
		}
		return viewerChunkLocal[2] > f.Z()
	default:
		return false
	}
}

func manhattanDistance(f mesh.FaceData, viewerChunkLocal [3]int) int {
	return absInt(viewerChunkLocal[0]-f.X()) + absInt(viewerChunkLocal[1]-f.Y()) + absInt(viewerChunkLocal[2]-f.Z())
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
