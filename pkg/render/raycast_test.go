package render

import (
	"testing"

	"github.com/duskline/voxelcore/pkg/voxel"
	"github.com/go-gl/mathgl/mgl32"
)

// gridSource is a BlockSource backed by a sparse map, for raycast tests.
type gridSource struct {
	blocks map[[3]int32]voxel.Block
}

func newGridSource() *gridSource {
	return &gridSource{blocks: make(map[[3]int32]voxel.Block)}
}

func (g *gridSource) set(x, y, z int32, b voxel.Block) {
	g.blocks[[3]int32{x, y, z}] = b
}

func (g *gridSource) GetBlock(wx, wy, wz, voxelSize int32) voxel.Block {
	return g.blocks[[3]int32{wx, wy, wz}]
}

func TestRaycastHitsFirstSolidBlockAlongAxis(t *testing.T) {
	blocks := newGridSource()
	blocks.set(5, 0, 0, voxel.Block{Type: 1})
	attrs := voxel.NewRegistry()

	hit, ok := Raycast(blocks, attrs, mgl32.Vec3{0, 0.5, 0.5}, mgl32.Vec3{1, 0, 0})
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.BlockX != 5 || hit.BlockY != 0 || hit.BlockZ != 0 {
		t.Fatalf("expected hit at (5,0,0), got (%d,%d,%d)", hit.BlockX, hit.BlockY, hit.BlockZ)
	}
}

func TestRaycastMissesWhenNoBlockInRange(t *testing.T) {
	blocks := newGridSource()
	attrs := voxel.NewRegistry()

	_, ok := Raycast(blocks, attrs, mgl32.Vec3{0, 0.5, 0.5}, mgl32.Vec3{1, 0, 0})
	if ok {
		t.Fatal("expected no hit through empty air")
	}
}

func TestRaycastRespectsMaxDistance(t *testing.T) {
	blocks := newGridSource()
	blocks.set(int32(RaycastMaxDistance)+5, 0, 0, voxel.Block{Type: 1})
	attrs := voxel.NewRegistry()

	_, ok := Raycast(blocks, attrs, mgl32.Vec3{0, 0.5, 0.5}, mgl32.Vec3{1, 0, 0})
	if ok {
		t.Fatal("expected no hit beyond RaycastMaxDistance")
	}
}

func TestRaycastSkipsPartialModelMissedByRay(t *testing.T) {
	blocks := newGridSource()
	// A half-height slab occupying only the lower 8 of 16 model units.
	slabType := uint16(2)
	blocks.set(3, 0, 0, voxel.Block{Type: slabType})
	attrs := voxel.NewRegistry()
	attrs.Register(slabType, voxel.RegisterOpts{
		Solid: true,
		Model: func(data uint16) voxel.ModelRef {
			return voxel.ModelRef{Min: [3]uint8{0, 0, 0}, Max: [3]uint8{16, 8, 16}}
		},
	})

	// Ray travels at y = 0.9 within the cell, above the slab's 0.5-unit top.
	_, ok := Raycast(blocks, attrs, mgl32.Vec3{0, 0.9, 0.5}, mgl32.Vec3{1, 0, 0})
	if ok {
		t.Fatal("expected the ray passing above a half-height slab to miss it")
	}
}

func TestRaycastHitsPartialModelWhenRayPassesThroughIt(t *testing.T) {
	blocks := newGridSource()
	slabType := uint16(2)
	blocks.set(3, 0, 0, voxel.Block{Type: slabType})
	attrs := voxel.NewRegistry()
	attrs.Register(slabType, voxel.RegisterOpts{
		Solid: true,
		Model: func(data uint16) voxel.ModelRef {
			return voxel.ModelRef{Min: [3]uint8{0, 0, 0}, Max: [3]uint8{16, 8, 16}}
		},
	})

	hit, ok := Raycast(blocks, attrs, mgl32.Vec3{0, 0.25, 0.5}, mgl32.Vec3{1, 0, 0})
	if !ok {
		t.Fatal("expected the ray passing through a half-height slab's bounds to hit it")
	}
	if hit.BlockX != 3 {
		t.Fatalf("expected hit at x=3, got %d", hit.BlockX)
	}
}
