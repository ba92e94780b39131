package render

import "github.com/go-gl/mathgl/mgl32"

// plane is a point-and-normal half-space: points p satisfy the plane iff
// normal.Dot(p-point) >= 0.
type plane struct {
	point  mgl32.Vec3
	normal mgl32.Vec3
}

// Frustum is five of the six view-frustum planes — far, right, left, top,
// bottom — with the near plane intentionally omitted, since nothing ever
// needs to be culled for being too close to the camera in this renderer.
type Frustum struct {
	planes [5]plane
}

// NewFrustum builds the frustum from the combined view-projection matrix.
func NewFrustum(viewProj mgl32.Mat4, camPos mgl32.Vec3) *Frustum {
	// Extract the four side/far planes from the view-projection matrix rows
	// (Gribb/Hartmann method), skipping the near plane.
	m := viewProj

	row := func(i int) mgl32.Vec4 {
		return mgl32.Vec4{m.At(i, 0), m.At(i, 1), m.At(i, 2), m.At(i, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	mkPlane := func(v mgl32.Vec4) plane {
		n := mgl32.Vec3{v[0], v[1], v[2]}
		length := n.Len()
		if length == 0 {
			return plane{point: camPos, normal: mgl32.Vec3{0, 0, 1}}
		}
		n = n.Mul(1 / length)
		d := v[3] / length
		// A point p on the plane satisfies n.p + d = 0; express as point+normal.
		point := n.Mul(-d)
		return plane{point: point, normal: n}
	}

	left := mkPlane(r3.Add(r0))
	right := mkPlane(r3.Sub(r0))
	bottom := mkPlane(r3.Add(r1))
	top := mkPlane(r3.Sub(r1))
	far := mkPlane(r3.Sub(r2))

	return &Frustum{planes: [5]plane{far, right, left, top, bottom}}
}

// TestAABB reports whether the AABB anchored at pos with the given
// per-axis dims is at least partially inside the frustum, with a
// FrustumMargin safety margin applied to every plane so boundary chunks
// aren't culled a frame early. Implements lod.FrustumTester.
func (f *Frustum) TestAABB(pos [3]float64, dims [3]float64) bool {
	min := mgl32.Vec3{float32(pos[0]), float32(pos[1]), float32(pos[2])}
	max := mgl32.Vec3{float32(pos[0] + dims[0]), float32(pos[1] + dims[1]), float32(pos[2] + dims[2])}

	for _, p := range f.planes {
		// The most-positive corner along the plane's normal: for each axis,
		// pick max if the normal component is positive, else min.
		corner := mgl32.Vec3{
			pickAxis(p.normal.X(), min.X(), max.X()),
			pickAxis(p.normal.Y(), min.Y(), max.Y()),
			pickAxis(p.normal.Z(), min.Z(), max.Z()),
		}
		if p.normal.Dot(corner.Sub(p.point)) < -FrustumMargin {
			return false
		}
	}
	return true
}

func pickAxis(normalComponent, lo, hi float32) float32 {
	if normalComponent >= 0 {
		return hi
	}
	return lo
}
