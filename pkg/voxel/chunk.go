package voxel

import "sync"

// index packs local cell coordinates into the chunk's flat storage offset.
// y occupies the high bits so that a full xz-plane is contiguous.
func index(x, y, z int) int {
	return (x << ChunkSizeShift) | (y << (2 * ChunkSizeShift)) | z
}

func inBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkSize && y >= 0 && y < ChunkSize && z >= 0 && z < ChunkSize
}

// Chunk is a dense 32x32x32 grid of blocks at a single chunk position.
// Its own mutators only ever protect the Blocks array and the dirty flags;
// callers coordinate chunk-to-mesh visibility (WasCleaned) and structural
// generation (Generated) at a higher level.
type Chunk struct {
	Position ChunkPosition
	Blocks   [ChunkVolume]Block

	mu sync.Mutex

	// wasChanged is set by any mutator and cleared once the mesher has
	// consumed the change. wasCleaned additionally tracks whether the
	// chunk's shared neighbor-facing state (seam faces, lightmap) has been
	// reconciled after the change.
	wasChanged bool
	wasCleaned bool

	// generated is false until world generation has filled this chunk for
	// the first time (MarkGenerated). UpdateBlock and UpdateBlockIfDegradable
	// mark the chunk changed whether or not it is set.
	generated bool
}

// NewChunk allocates an all-air chunk at the given position.
func NewChunk(pos ChunkPosition) *Chunk {
	return &Chunk{Position: pos}
}

// GetBlock returns the block at local coordinates, or Air if out of bounds.
func (c *Chunk) GetBlock(x, y, z int) Block {
	if !inBounds(x, y, z) {
		return Air
	}
	return c.Blocks[index(x, y, z)]
}

func (c *Chunk) setChanged() {
	c.wasChanged = true
	c.wasCleaned = false
}

// UpdateBlock overwrites a cell unconditionally and marks the chunk dirty.
// x, y, z must lie within [0, ChunkSize); callers are expected to have
// already resolved cross-chunk coordinates before calling this.
func (c *Chunk) UpdateBlock(x, y, z int, b Block) {
	if !inBounds(x, y, z) {
		panic("voxel: UpdateBlock coordinates out of chunk bounds")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Blocks[index(x, y, z)] = b
	c.setChanged()
}

// UpdateBlockIfDegradable overwrites a cell only if it holds air or its
// current occupant is marked degradable in attrs (e.g. grass trampled by a placed block, snow
// melted by placed lava). Reports whether the update applied.
func (c *Chunk) UpdateBlockIfDegradable(x, y, z int, b Block, attrs BlockAttributes) bool {
	if !inBounds(x, y, z) {
		panic("voxel: UpdateBlockIfDegradable coordinates out of chunk bounds")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.Blocks[index(x, y, z)]
	if cur.Type != 0 && !attrs.Degradable(cur.Type) {
		return false
	}
	c.Blocks[index(x, y, z)] = b
	c.setChanged()
	return true
}

// UpdateBlockInGeneration writes a cell during initial world generation,
// before the chunk has ever been meshed. It never touches the dirty flags:
// the first mesh pass always does a full sweep regardless of them.
func (c *Chunk) UpdateBlockInGeneration(x, y, z int, b Block) {
	if !inBounds(x, y, z) {
		panic("voxel: UpdateBlockInGeneration coordinates out of chunk bounds")
	}
	c.Blocks[index(x, y, z)] = b
}

// MarkGenerated records that initial generation has completed.
func (c *Chunk) MarkGenerated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generated = true
	c.setChanged()
}

// Generated reports whether initial generation has completed.
func (c *Chunk) Generated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generated
}

// WasChanged reports whether any mutator has run since the last ClearChanged.
func (c *Chunk) WasChanged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wasChanged
}

// ClearChanged is called by the mesher once it has consumed a pending
// change; wasCleaned is left for the caller to set once neighbor-facing
// state (seams, lightmap) has also been reconciled.
func (c *Chunk) ClearChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wasChanged = false
}

// MarkCleaned records that neighbor-facing state has been reconciled for
// the current content of the chunk.
func (c *Chunk) MarkCleaned() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wasCleaned = true
}

// WasCleaned reports whether neighbor-facing state is up to date.
func (c *Chunk) WasCleaned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.wasCleaned
}

// ForEachBlock visits every non-air cell with x outermost, then y, then z
// innermost. This is not ascending storage-offset order, in which y is the
// outermost axis.
func (c *Chunk) ForEachBlock(fn func(x, y, z int, b Block)) {
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				b := c.Blocks[index(x, y, z)]
				if b.Type != 0 {
					fn(x, y, z, b)
				}
			}
		}
	}
}
