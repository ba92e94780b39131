package render

import (
	"testing"

	"github.com/duskline/voxelcore/pkg/mesh"
)

func TestSortTransparentFacesOrdersFarthestBucketFirst(t *testing.T) {
	viewer := [3]int{0, 0, 0}
	near := mesh.PackFace(1, 0, 0, false, mesh.Up, 0, 1, 0)
	far := mesh.PackFace(5, 0, 0, false, mesh.Up, 0, 1, 0)

	sorted := sortTransparentFaces([]mesh.FaceData{near, far}, viewer)
	if len(sorted) != 2 {
		t.Fatalf("expected both faces to survive culling, got %d", len(sorted))
	}
	if sorted[0] != far || sorted[1] != near {
		t.Fatal("expected the farther face to sort before the nearer one")
	}
}

func TestSortTransparentFacesOrdersBackBeforeFrontWithinBucket(t *testing.T) {
	viewer := [3]int{0, 0, 0}
	front := mesh.PackFace(3, 0, 0, false, mesh.Up, 0, 1, 0)
	back := mesh.PackFace(3, 0, 0, true, mesh.Up, 0, 1, 0)

	sorted := sortTransparentFaces([]mesh.FaceData{front, back}, viewer)
	if len(sorted) != 2 {
		t.Fatalf("expected both faces to survive culling, got %d", len(sorted))
	}
	if !sorted[0].IsBackFace() || sorted[1].IsBackFace() {
		t.Fatal("expected the back face to sort before the front face within the same bucket")
	}
}

func TestSortTransparentFacesCullsFacesBehindViewer(t *testing.T) {
	viewer := [3]int{5, 0, 0}
	// West-normal face at x=3: the viewer at x=5 is on its +X side, behind
	// the face, so it faces away.
	culled := mesh.PackFace(3, 0, 0, false, mesh.West, 0, 1, 0)

	sorted := sortTransparentFaces([]mesh.FaceData{culled}, viewer)
	if len(sorted) != 0 {
		t.Fatalf("expected the face facing away from the viewer to be culled, got %d survivors", len(sorted))
	}
}

func TestSortTransparentFacesNeverCullsOwnBoundaryPlane(t *testing.T) {
	viewer := [3]int{31, 0, 0}
	// West-normal face at the chunk's own x=0 boundary, with the viewer
	// behind it: never culled, a neighbor chunk may still need to see
	// through it.
	boundary := mesh.PackFace(0, 0, 0, false, mesh.West, 0, 1, 0)

	sorted := sortTransparentFaces([]mesh.FaceData{boundary}, viewer)
	if len(sorted) != 1 {
		t.Fatal("expected a face on the chunk's own boundary plane to never be culled")
	}
}
