package render

import (
	"math"

	"github.com/duskline/voxelcore/pkg/voxel"
	"github.com/go-gl/mathgl/mgl32"
)

// BlockSource resolves the block occupying a world-space cell at voxel
// size 1, the resolution the selection ray always walks at.
type BlockSource interface {
	GetBlock(wx, wy, wz, voxelSize int32) voxel.Block
}

// RayHit is the result of a successful block-selection raycast.
type RayHit struct {
	BlockX, BlockY, BlockZ int32
	Block                  voxel.Block
	Normal                 mgl32.Vec3
}

// Raycast walks the voxel grid from origin along dir (normalized) for up
// to RaycastMaxDistance world units using the Amanatides & Woo DDA
// algorithm, stopping at the first non-air block whose oriented AABB (the
// block's 16-unit model bounds, scaled by 1/16) the ray actually
// intersects.
func Raycast(blocks BlockSource, attrs voxel.BlockAttributes, origin, dir mgl32.Vec3) (RayHit, bool) {
	x := int32(math.Floor(float64(origin.X())))
	y := int32(math.Floor(float64(origin.Y())))
	z := int32(math.Floor(float64(origin.Z())))

	stepX, tDeltaX, tMaxX := ddaAxis(origin.X(), dir.X())
	stepY, tDeltaY, tMaxY := ddaAxis(origin.Y(), dir.Y())
	stepZ, tDeltaZ, tMaxZ := ddaAxis(origin.Z(), dir.Z())

	var normal mgl32.Vec3
	t := float32(0)

	for t <= RaycastMaxDistance {
		b := blocks.GetBlock(x, y, z, 1)
		if b.Type != 0 && intersectOrientedAABB(attrs.Model(b), x, y, z, origin, dir) {
			return RayHit{BlockX: x, BlockY: y, BlockZ: z, Block: b, Normal: normal}, true
		}

		if tMaxX < tMaxY && tMaxX < tMaxZ {
			x += stepX
			t = tMaxX
			tMaxX += tDeltaX
			normal = mgl32.Vec3{-float32(stepX), 0, 0}
		} else if tMaxY < tMaxZ {
			y += stepY
			t = tMaxY
			tMaxY += tDeltaY
			normal = mgl32.Vec3{0, -float32(stepY), 0}
		} else {
			z += stepZ
			t = tMaxZ
			tMaxZ += tDeltaZ
			normal = mgl32.Vec3{0, 0, -float32(stepZ)}
		}
	}
	return RayHit{}, false
}

// ddaAxis computes one axis's step direction, the parametric distance
// between grid-line crossings, and the initial distance to the first
// crossing, per Amanatides & Woo.
func ddaAxis(originAxis, dirAxis float32) (step int32, tDelta, tMax float32) {
	if dirAxis > 0 {
		step = 1
		tDelta = 1 / dirAxis
		cellBoundary := float32(math.Floor(float64(originAxis))) + 1
		tMax = (cellBoundary - originAxis) * tDelta
	} else if dirAxis < 0 {
		step = -1
		tDelta = 1 / -dirAxis
		cellBoundary := float32(math.Floor(float64(originAxis)))
		tMax = (originAxis - cellBoundary) * tDelta
	} else {
		tDelta = math.MaxFloat32
		tMax = math.MaxFloat32
	}
	return
}

// intersectOrientedAABB refines a cell hit against the block's actual
// model bounds (full cubes always intersect; partial models, like slabs
// or stairs, may not).
func intersectOrientedAABB(model voxel.ModelRef, cx, cy, cz int32, origin, dir mgl32.Vec3) bool {
	if model.FullCube {
		return true
	}
	min := mgl32.Vec3{
		float32(cx) + float32(model.Min[0])/16,
		float32(cy) + float32(model.Min[1])/16,
		float32(cz) + float32(model.Min[2])/16,
	}
	max := mgl32.Vec3{
		float32(cx) + float32(model.Max[0])/16,
		float32(cy) + float32(model.Max[1])/16,
		float32(cz) + float32(model.Max[2])/16,
	}

	tMin, tMax := float32(0), float32(RaycastMaxDistance)
	for axis := 0; axis < 3; axis++ {
		o, d := axisOf(origin, axis), axisOf(dir, axis)
		lo, hi := axisOf(min, axis), axisOf(max, axis)
		if d == 0 {
			if o < lo || o > hi {
				return false
			}
			continue
		}
		inv := 1 / d
		t1 := (lo - o) * inv
		t2 := (hi - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return false
		}
	}
	return true
}

func axisOf(v mgl32.Vec3, axis int) float32 {
	switch axis {
	case 0:
		return v.X()
	case 1:
		return v.Y()
	default:
		return v.Z()
	}
}
