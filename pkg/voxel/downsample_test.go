package voxel

import "testing"

func TestUpdateFromLowerResolutionAllAirLeavesParentAir(t *testing.T) {
	// Arrange
	parent := NewChunk(ChunkPosition{VoxelSize: 2})
	child := NewChunk(ChunkPosition{VoxelSize: 1})
	reg := NewRegistry()

	// Act
	UpdateFromLowerResolution(parent, child, 0, reg)

	// Assert
	for i := 0; i < ChunkVolume; i++ {
		if parent.Blocks[i].Type != 0 {
			t.Fatalf("expected parent to remain all-air, found block at index %d", i)
		}
	}
	if parent.WasChanged() {
		t.Error("expected no change recorded for an all-air absorption")
	}
}

func TestUpdateFromLowerResolutionAllSolidFillsOctant(t *testing.T) {
	// Arrange
	parent := NewChunk(ChunkPosition{VoxelSize: 2})
	child := NewChunk(ChunkPosition{VoxelSize: 1})
	reg := NewRegistry()
	reg.Register(1, RegisterOpts{Solid: true})
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				child.UpdateBlockInGeneration(x, y, z, Block{Type: 1})
			}
		}
	}

	// Act
	UpdateFromLowerResolution(parent, child, 0, reg)

	// Assert
	half := ChunkSize / 2
	for x := 0; x < half; x++ {
		for y := 0; y < half; y++ {
			for z := 0; z < half; z++ {
				if parent.GetBlock(x, y, z).Type != 1 {
					t.Fatalf("expected octant cell (%d,%d,%d) to be filled from the all-solid child", x, y, z)
				}
			}
		}
	}
	if !parent.WasChanged() {
		t.Error("expected the parent to be marked changed")
	}
}

func TestUpdateFromLowerResolutionOnlyTouchesSelectedOctant(t *testing.T) {
	// Arrange
	parent := NewChunk(ChunkPosition{VoxelSize: 2})
	child := NewChunk(ChunkPosition{VoxelSize: 1})
	reg := NewRegistry()
	reg.Register(1, RegisterOpts{Solid: true})
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				child.UpdateBlockInGeneration(x, y, z, Block{Type: 1})
			}
		}
	}

	// octant 0 means the low-x/low-y/low-z half.
	// Act
	UpdateFromLowerResolution(parent, child, 0, reg)

	// Assert: the opposite-corner cell in the untouched octant must stay air.
	if parent.GetBlock(ChunkSize-1, ChunkSize-1, ChunkSize-1).Type != 0 {
		t.Error("expected cells outside the selected octant to remain untouched")
	}
}

func TestUpdateFromLowerResolutionSkipsAirSubCells(t *testing.T) {
	// Arrange: one solid cell in an otherwise-air 2x2x2 group must still be chosen.
	parent := NewChunk(ChunkPosition{VoxelSize: 2})
	child := NewChunk(ChunkPosition{VoxelSize: 1})
	reg := NewRegistry()
	reg.Register(1, RegisterOpts{Solid: true})
	child.UpdateBlockInGeneration(0, 0, 0, Block{Type: 1})

	// Act
	UpdateFromLowerResolution(parent, child, 0, reg)

	// Assert
	if parent.GetBlock(0, 0, 0).Type != 1 {
		t.Error("expected the single solid sub-cell to be chosen over its air neighbors")
	}
}
