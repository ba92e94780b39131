// Package lod implements the LOD window manager: one ring of chunk nodes
// per detail level around the player, octant visibility masks coupling a
// low-detail parent to its high-detail children, and the deferred
// destruction needed when a worker thread is meshing a node the render
// thread wants to evict.
package lod

import (
	"sync"
	"time"

	"github.com/duskline/voxelcore/pkg/mesh"
	"github.com/duskline/voxelcore/pkg/voxel"
)

// ChunkMeshNode is one cell of a per-LOD storage array.
type ChunkMeshNode struct {
	Mesh             *mesh.ChunkMesh
	shouldBeRemoved  bool
	drawableChildren uint8 // not written by the window manager (stays zero); octant coverage lives in Mesh.VisibilityMask
}

// ChunkSource is the external collaborator that resolves missing chunks:
// the window manager batches positions it needs and hands them to
// RequestChunks; populated grids arrive later through ApplyChunkData.
type ChunkSource interface {
	RequestChunks(positions []voxel.ChunkPosition)
}

// cell is an absolute chunk-cell index (world coordinate divided by the
// LOD's chunk side); per-LOD storage is keyed by it.
type cell struct{ x, y, z int }

type lodLevel struct {
	mu      sync.Mutex
	storage map[cell]*ChunkMeshNode
	origin  cell // lastX, lastY, lastZ
}

// clearEntry is one node awaiting deferred destruction because a worker
// held its mesh mutex at sweep time.
type clearEntry struct {
	node *ChunkMeshNode
	pos  voxel.ChunkPosition
}

// updatableEntry is a mesh whose finalize-and-stitch step is still pending,
// ordered by rendering priority.
type updatableEntry struct {
	node     *ChunkMeshNode
	pos      voxel.ChunkPosition
	priority float64
}

// WindowManager owns every LOD's storage array, the pending block-update
// list, and the amortized finalize queue.
type WindowManager struct {
	levels    []*lodLevel
	mesher    *mesh.Mesher
	slabs     mesh.Slabs
	source    ChunkSource
	chunkSize int32

	clearMu   sync.Mutex
	clearList []clearEntry

	updatableMu   sync.Mutex
	updatableList []updatableEntry

	blockUpdateMu   sync.Mutex
	blockUpdateList []blockUpdate

	cache *evictionCache
}

type blockUpdate struct {
	pos     voxel.ChunkPosition
	x, y, z int
	block   voxel.Block
}

// NewWindowManager constructs a manager with maxLOD+1 levels.
func NewWindowManager(maxLOD int, mesher *mesh.Mesher, slabs mesh.Slabs, source ChunkSource) *WindowManager {
	wm := &WindowManager{
		mesher: mesher,
		slabs:  slabs,
		source: source,
		cache:  newEvictionCache(256),
	}
	for k := 0; k <= maxLOD; k++ {
		wm.levels = append(wm.levels, &lodLevel{storage: make(map[cell]*ChunkMeshNode)})
	}
	return wm
}

func octantIndex(x, y, z, sizeShift int) int {
	return (x>>sizeShift)&1 | ((y>>sizeShift)&1)<<1 | ((z>>sizeShift)&1)<<2
}

// renderRadius computes maxRD_k = RD * 32 * 2^k, scaled by LODFactor for
// k > 0, truncated to whole world units.
func renderRadius(rd int, k int, lodFactor float64) int {
	base := float64(rd) * float64(voxel.ChunkSize) * float64(int(1)<<uint(k))
	if k > 0 {
		base *= lodFactor
	}
	return int(base)
}

// QueueBlockUpdate enqueues a block edit to be applied on the next
// UpdateMeshes call, ahead of any finalize work.
func (wm *WindowManager) QueueBlockUpdate(pos voxel.ChunkPosition, x, y, z int, b voxel.Block) {
	wm.blockUpdateMu.Lock()
	defer wm.blockUpdateMu.Unlock()
	wm.blockUpdateList = append(wm.blockUpdateList, blockUpdate{pos: pos, x: x, y: y, z: z, block: b})
}

func (wm *WindowManager) drainBlockUpdates() []blockUpdate {
	wm.blockUpdateMu.Lock()
	defer wm.blockUpdateMu.Unlock()
	pending := wm.blockUpdateList
	wm.blockUpdateList = nil
	return pending
}

func (wm *WindowManager) nodeAt(k int, c cell) (*ChunkMeshNode, bool) {
	lvl := wm.levels[k]
	lvl.mu.Lock()
	defer lvl.mu.Unlock()
	n, ok := lvl.storage[c]
	return n, ok
}

// findNodeByPosition locates the live node for pos at its own LOD, if any.
func (wm *WindowManager) findNodeByPosition(pos voxel.ChunkPosition) *ChunkMeshNode {
	k := lodIndex(pos.VoxelSize)
	if k < 0 || k >= len(wm.levels) {
		return nil
	}
	chunkSide := pos.VoxelSize * voxel.ChunkSize
	lvl := wm.levels[k]
	lvl.mu.Lock()
	defer lvl.mu.Unlock()
	c := cell{
		x: int(pos.WX / chunkSide),
		y: int(pos.WY / chunkSide),
		z: int(pos.WZ / chunkSide),
	}
	return lvl.storage[c]
}

func lodIndex(voxelSize int32) int {
	k := 0
	for v := voxelSize; v > 1; v >>= 1 {
		k++
	}
	return k
}

// UpdateMeshes applies queued block updates, then pops the highest-priority
// pending finalize entry repeatedly until deadline passes. A "LOD missing"
// finalize failure re-queues the entry instead of surfacing as fatal.
func (wm *WindowManager) UpdateMeshes(deadline time.Time) {
	for _, bu := range wm.drainBlockUpdates() {
		node := wm.findNodeByPosition(bu.pos)
		if node == nil || node.Mesh == nil {
			continue
		}
		node.Mesh.Mu.Lock()
		err := wm.mesher.UpdateBlock(node.Mesh, bu.x, bu.y, bu.z, bu.block, wm.slabs)
		node.Mesh.Mu.Unlock()
		if err != nil && wm.mesher.Log != nil {
			wm.mesher.Log.Warnw("block update failed", "error", err)
		}
	}

	for time.Now().Before(deadline) {
		entry, ok := wm.popHighestPriority()
		if !ok {
			return
		}
		if err := wm.finalizeEntry(entry); err != nil {
			wm.requeue(entry)
			return
		}
	}
}

func (wm *WindowManager) popHighestPriority() (updatableEntry, bool) {
	wm.updatableMu.Lock()
	defer wm.updatableMu.Unlock()
	if len(wm.updatableList) == 0 {
		return updatableEntry{}, false
	}
	best := 0
	for i, e := range wm.updatableList {
		if e.priority > wm.updatableList[best].priority {
			best = i
		}
	}
	entry := wm.updatableList[best]
	wm.updatableList = append(wm.updatableList[:best], wm.updatableList[best+1:]...)
	return entry, true
}

func (wm *WindowManager) requeue(entry updatableEntry) {
	wm.updatableMu.Lock()
	defer wm.updatableMu.Unlock()
	wm.updatableList = append(wm.updatableList, entry)
}

func (wm *WindowManager) finalizeEntry(entry updatableEntry) error {
	if entry.node == nil || entry.node.Mesh == nil {
		return mesh.ErrLODMissing
	}
	cm := entry.node.Mesh
	cm.Mu.Lock()
	defer cm.Mu.Unlock()
	wm.mesher.RegenerateMainMesh(cm)
	wm.mesher.StitchSeams(cm)
	return wm.mesher.Finish(cm, wm.slabs)
}

// Enqueue schedules a node's mesh to be finalized by a future UpdateMeshes
// call, at the given rendering priority.
func (wm *WindowManager) Enqueue(node *ChunkMeshNode, pos voxel.ChunkPosition, priority float64) {
	wm.updatableMu.Lock()
	defer wm.updatableMu.Unlock()
	wm.updatableList = append(wm.updatableList, updatableEntry{node: node, pos: pos, priority: priority})
}

// ChunkReady reports whether the resident node at pos has received and
// finished generating its content (its mesh may still be pending
// finalize; readiness here concerns the block data only).
func (wm *WindowManager) ChunkReady(pos voxel.ChunkPosition) bool {
	node := wm.findNodeByPosition(pos)
	return node != nil && node.Mesh != nil && node.Mesh.Chunk.Generated()
}

// ApplyChunkData writes a fully populated block grid, delivered by the
// external chunk source with x outermost, y middle and z innermost (the
// order Chunk.ForEachBlock walks), into the resident node at pos and
// re-enqueues it for meshing. It is a no-op if the chunk has since scrolled
// out of every LOD's window or the payload is the wrong size — the
// population simply arrived too late or malformed to matter.
func (wm *WindowManager) ApplyChunkData(pos voxel.ChunkPosition, blocks []voxel.Block, priority float64) {
	if len(blocks) != voxel.ChunkVolume {
		return
	}
	node := wm.findNodeByPosition(pos)
	if node == nil || node.Mesh == nil {
		return
	}
	chunk := node.Mesh.Chunk
	i := 0
	for x := 0; x < voxel.ChunkSize; x++ {
		for y := 0; y < voxel.ChunkSize; y++ {
			for z := 0; z < voxel.ChunkSize; z++ {
				chunk.UpdateBlockInGeneration(x, y, z, blocks[i])
				i++
			}
		}
	}
	chunk.MarkGenerated()
	wm.Enqueue(node, pos, priority)
}
