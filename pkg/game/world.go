// Package game wires the mesher, the LOD window manager, the GPU slabs,
// and the network client together, and drives the worker pool that keeps
// meshes finalized off the render thread. It is the teacher's
// pkg/game.ChunkManager's successor, generalized from one flat chunk map
// to the multi-level window the LOD system needs.
package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/duskline/voxelcore/pkg/config"
	"github.com/duskline/voxelcore/pkg/lod"
	"github.com/duskline/voxelcore/pkg/mesh"
	"github.com/duskline/voxelcore/pkg/network"
	"github.com/duskline/voxelcore/pkg/voxel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Attrs bundles the window manager's block lookup with the registry's
// block attributes, satisfying render.BlockSourceAttrs without pkg/game
// needing to import pkg/render itself.
type Attrs struct {
	*lod.WindowManager
	*voxel.Registry
}

// World owns every long-lived collaborator a running client needs: the
// block registry, the mesher, the per-LOD window manager, the network
// connection, and the worker pool that drains the window manager's
// finalize queue concurrently with the render loop.
type World struct {
	Registry *voxel.Registry
	Mesher   *mesh.Mesher
	Window   *lod.WindowManager
	Client   *network.Client
	Slabs    mesh.Slabs
	Attrs    Attrs

	pool pond.Pool
	log  *zap.SugaredLogger

	lastPlayerMu  sync.RWMutex
	lastPlayerPos [3]float64
}

// NewWorld constructs a World around an already-dialed network client and
// allocated GPU slabs. Block registration is the caller's responsibility
// (it is content, not infrastructure) and must happen before NewWorld.
func NewWorld(registry *voxel.Registry, client *network.Client, slabs mesh.Slabs, log *zap.SugaredLogger) *World {
	mesher := mesh.NewMesher(registry, log)

	var source lod.ChunkSource = noopChunkSource{}
	if client != nil {
		source = client
	}
	wm := lod.NewWindowManager(config.HighestLOD(), mesher, slabs, source)

	w := &World{
		Registry: registry,
		Mesher:   mesher,
		Window:   wm,
		Client:   client,
		Slabs:    slabs,
		Attrs:    Attrs{WindowManager: wm, Registry: registry},
		log:      log,
	}

	if client != nil {
		client.OnChunkReceive = func(pos voxel.ChunkPosition, blocks []voxel.Block) {
			w.Window.ApplyChunkData(pos, blocks, w.priorityFor(pos))
		}
		client.OnMonoChunk = func(pos voxel.ChunkPosition, block voxel.Block) {
			blocks := make([]voxel.Block, voxel.ChunkVolume)
			for i := range blocks {
				blocks[i] = block
			}
			w.Window.ApplyChunkData(pos, blocks, w.priorityFor(pos))
		}
	}

	return w
}

// noopChunkSource is used when a World has no network connection (a
// singleplayer configuration with all content generated locally); chunk
// requests are simply dropped rather than forwarded anywhere.
type noopChunkSource struct{}

func (noopChunkSource) RequestChunks(positions []voxel.ChunkPosition) {}

// StartWorkers launches numWorkers long-lived goroutines on a pond pool,
// each repeatedly draining the window manager's finalize queue in
// frame-sized slices. A pond.Pool is used for the worker-group lifecycle
// (bounded concurrency, graceful StopAndWait) rather than submitting one
// task per chunk, since the window manager already owns its own
// mutex-guarded priority queue — the pool's job is keeping N goroutines
// alive pulling from it, not scheduling individual chunk jobs.
func (w *World) StartWorkers(numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	w.pool = pond.NewPool(numWorkers)
	for i := 0; i < numWorkers; i++ {
		w.pool.Submit(w.workerLoop)
	}
}

func (w *World) priorityFor(pos voxel.ChunkPosition) float64 {
	w.lastPlayerMu.RLock()
	defer w.lastPlayerMu.RUnlock()
	return pos.Priority(w.lastPlayerPos[0], w.lastPlayerPos[1], w.lastPlayerPos[2])
}

func (w *World) workerLoop() {
	const slice = 4 * time.Millisecond
	for {
		w.Window.UpdateMeshes(time.Now().Add(slice))
		time.Sleep(time.Millisecond)
	}
}

// StopWorkers stops the worker pool and waits for its goroutines to exit.
// The worker loops never return on their own (they run until the process
// exits), so this is best-effort cleanup for tests and graceful shutdown
// paths rather than something a normal frame loop calls.
func (w *World) StopWorkers() {
	if w.pool != nil {
		w.pool.StopAndWait()
	}
}

// Tick runs one frame's window update: sweeps the LOD levels around the
// player, requesting anything newly missing, and returns the meshes ready
// to draw this frame.
func (w *World) Tick(playerWX, playerWY, playerWZ float64, frustum lod.FrustumTester, out *[]lod.RenderableMesh) {
	w.lastPlayerMu.Lock()
	w.lastPlayerPos = [3]float64{playerWX, playerWY, playerWZ}
	w.lastPlayerMu.Unlock()
	w.Window.UpdateAndGetRenderChunks(playerWX, playerWY, playerWZ, config.RenderDistance(), config.LODFactor(), frustum, out)
}

// PreloadChunks blocks until every listed position has received its block
// data (or ctx is canceled), so the first rendered frame isn't a mostly
// empty world while the initial network round-trip is still in flight.
// Requires each position's node to already be resident - call Tick once
// before preloading so UpdateAndGetRenderChunks has had a chance to both
// create the nodes and issue the requests for them.
func (w *World) PreloadChunks(ctx context.Context, positions []voxel.ChunkPosition) error {
	if len(positions) == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, pos := range positions {
		pos := pos
		g.Go(func() error {
			ticker := time.NewTicker(5 * time.Millisecond)
			defer ticker.Stop()
			for {
				if w.Window.ChunkReady(pos) {
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
			}
		})
	}
	return g.Wait()
}

// Close tears down the network connection.
func (w *World) Close() error {
	w.StopWorkers()
	if w.Client != nil {
		return w.Client.Close()
	}
	return nil
}

// EditBlock applies a local block edit immediately (so the player sees it
// without round-tripping through the server) and forwards it to the
// server so other clients converge on the same state.
func (w *World) EditBlock(pos voxel.ChunkPosition, lx, ly, lz int, block voxel.Block) error {
	w.Window.QueueBlockUpdate(pos, lx, ly, lz, block)
	if w.Client == nil {
		return nil
	}
	wx := pos.WX + int32(lx)*pos.VoxelSize
	wy := pos.WY + int32(ly)*pos.VoxelSize
	wz := pos.WZ + int32(lz)*pos.VoxelSize
	if err := w.Client.SendUpdateBlock(block.Type, wx, wy, wz); err != nil {
		return fmt.Errorf("game: failed to send block edit: %w", err)
	}
	return nil
}
