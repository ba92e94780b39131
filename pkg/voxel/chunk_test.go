package voxel

import "testing"

func TestChunkGetBlockOutOfBoundsIsAir(t *testing.T) {
	// Arrange
	c := NewChunk(ChunkPosition{VoxelSize: 1})

	// Act
	b := c.GetBlock(-1, 0, 0)

	// Assert
	if b != Air {
		t.Errorf("expected Air for out-of-bounds read, got %+v", b)
	}
}

func TestChunkUpdateBlockRoundTrip(t *testing.T) {
	// Arrange
	c := NewChunk(ChunkPosition{VoxelSize: 1})
	want := Block{Type: 3, Data: 7}

	// Act
	c.UpdateBlock(1, 2, 3, want)
	got := c.GetBlock(1, 2, 3)

	// Assert
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !c.WasChanged() {
		t.Error("expected WasChanged after UpdateBlock")
	}
}

func TestChunkUpdateBlockOutOfBoundsPanics(t *testing.T) {
	// Arrange
	c := NewChunk(ChunkPosition{VoxelSize: 1})
	defer func() {
		// Assert
		if recover() == nil {
			t.Error("expected panic for out-of-bounds UpdateBlock")
		}
	}()

	// Act
	c.UpdateBlock(32, 0, 0, Block{Type: 1})
}

func TestChunkUpdateBlockIfDegradable(t *testing.T) {
	// Arrange
	c := NewChunk(ChunkPosition{VoxelSize: 1})
	reg := NewRegistry()
	reg.Register(1, RegisterOpts{Degradable: true})
	reg.Register(2, RegisterOpts{Degradable: false})
	c.UpdateBlock(0, 0, 0, Block{Type: 1})
	c.UpdateBlock(1, 0, 0, Block{Type: 2})

	// Act
	appliedOverGrass := c.UpdateBlockIfDegradable(0, 0, 0, Block{Type: 9}, reg)
	appliedOverStone := c.UpdateBlockIfDegradable(1, 0, 0, Block{Type: 9}, reg)

	// Assert
	if !appliedOverGrass {
		t.Error("expected degradable block to be overwritten")
	}
	if appliedOverStone {
		t.Error("expected non-degradable block to be left alone")
	}
	if c.GetBlock(0, 0, 0).Type != 9 {
		t.Error("degradable cell was not updated")
	}
	if c.GetBlock(1, 0, 0).Type != 2 {
		t.Error("non-degradable cell was unexpectedly overwritten")
	}
}

func TestChunkClearAndMarkCleaned(t *testing.T) {
	// Arrange
	c := NewChunk(ChunkPosition{VoxelSize: 1})
	c.UpdateBlock(0, 0, 0, Block{Type: 1})

	// Act
	c.ClearChanged()
	c.MarkCleaned()

	// Assert
	if c.WasChanged() {
		t.Error("expected WasChanged to be false after ClearChanged")
	}
	if !c.WasCleaned() {
		t.Error("expected WasCleaned to be true after MarkCleaned")
	}
}

func TestChunkForEachBlockSkipsAir(t *testing.T) {
	// Arrange
	c := NewChunk(ChunkPosition{VoxelSize: 1})
	c.UpdateBlock(0, 0, 0, Block{Type: 5})
	c.UpdateBlock(1, 1, 1, Block{Type: 6})
	visited := 0

	// Act
	c.ForEachBlock(func(x, y, z int, b Block) {
		visited++
	})

	// Assert
	if visited != 2 {
		t.Errorf("expected 2 non-air blocks visited, got %d", visited)
	}
}
