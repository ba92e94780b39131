package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"
	"unsafe"

	"github.com/duskline/voxelcore/internal/gpuslab"
	"github.com/duskline/voxelcore/internal/logging"
	"github.com/duskline/voxelcore/pkg/config"
	"github.com/duskline/voxelcore/pkg/game"
	"github.com/duskline/voxelcore/pkg/lod"
	"github.com/duskline/voxelcore/pkg/mesh"
	"github.com/duskline/voxelcore/pkg/network"
	"github.com/duskline/voxelcore/pkg/render"
	"github.com/duskline/voxelcore/pkg/voxel"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

const (
	facesBinding       = 3
	descriptorsBinding = 7
	lightsBinding      = 8

	initialSlabCapacity = 1 << 16
)

func init() {
	// OpenGL calls must come from the thread that created the context.
	runtime.LockOSThread()
}

func main() {
	serverAddr := flag.String("server", "", "server address (empty for singleplayer)")
	playerName := flag.String("name", "Player", "player display name")
	renderDist := flag.Int("renderdist", 12, "render distance, in LOD-0 chunks")
	lodFactor := flag.Float64("lodfactor", 1.5, "coarser-LOD radius multiplier")
	highestLOD := flag.Int("maxlod", 4, "highest LOD level to maintain")
	workers := flag.Int("workers", runtime.NumCPU(), "mesh-finalize worker count")
	shaderDir := flag.String("shaders", "shaders", "directory containing the GLSL shader sources")
	debug := flag.Bool("debug", false, "enable development logging")
	bloom := flag.Bool("bloom", true, "enable the bloom post-process pass")
	flag.Parse()

	logger, err := logging.New(*debug)
	if err != nil {
		log.Fatalf("failed to initialize logging: %v", err)
	}
	defer logger.Sync()

	config.SetRenderDistance(*renderDist)
	config.SetLODFactor(*lodFactor)
	config.SetHighestLOD(*highestLOD)
	config.SetBloom(*bloom)

	registry := registerBlocks()

	slabs, err := allocateSlabs()
	if err != nil {
		logger.Fatalw("failed to allocate GPU slabs", "error", err)
	}
	defer slabs.Faces.Cleanup()
	defer slabs.Descriptors.Cleanup()
	defer slabs.Lights.Cleanup()

	var client *network.Client
	if *serverAddr != "" {
		client, err = network.NewClient(*serverAddr, logger)
		if err != nil {
			logger.Fatalw("failed to connect to server", "error", err, "address", *serverAddr)
		}
		client.SetEntityName(*playerName)
		client.SetRenderDistance(uint8(*renderDist))
		if err := client.SendClientMetadata(); err != nil {
			logger.Fatalw("failed to send client metadata", "error", err)
		}
		defer client.Close()
	}

	world := game.NewWorld(registry, client, slabs, logger)
	world.StartWorkers(*workers)
	defer world.StopWorkers()

	if client != nil {
		go func() {
			if err := client.ProcessPackets(); err != nil {
				logger.Warnw("network connection closed", "error", err)
			}
		}()
	}

	renderer, err := render.NewRenderer(1280, 720, "voxelcore", config.VSync(), slabs, *shaderDir)
	if err != nil {
		logger.Fatalw("failed to initialize renderer", "error", err)
	}
	defer renderer.Cleanup()

	renderer.Camera().SetPosition(mgl32.Vec3{0, 80, 0})

	if config.Bloom() {
		if bloomPass, err := loadBloomPass(renderer, *shaderDir); err != nil {
			logger.Warnw("failed to initialize bloom pass", "error", err)
		} else {
			renderer.EnableBloom(bloomPass)
		}
	}

	preloadSpawnArea(renderer, world, logger)

	runGameLoop(renderer, world)
}

// preloadSpawnArea runs one window sweep to create and request the
// chunks immediately around spawn, then waits (with a generous but
// bounded timeout) for them to arrive before the render loop starts, so
// the player doesn't spawn inside an empty, still-loading world.
func preloadSpawnArea(renderer *render.Renderer, world *game.World, logger *zap.SugaredLogger) {
	pos := renderer.Camera().Position()
	frustum := render.NewFrustum(renderer.Camera().ProjectionMatrix().Mul4(renderer.Camera().ViewMatrix()), pos)

	var visible []lod.RenderableMesh
	world.Tick(float64(pos.X()), float64(pos.Y()), float64(pos.Z()), frustum, &visible)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := world.PreloadChunks(ctx, spawnPositions(pos, 2)); err != nil {
		logger.Warnw("spawn area did not finish loading in time", "error", err)
	}
}

// spawnPositions lists every LOD-0 chunk position within radius chunks of
// center, in world space.
func spawnPositions(center mgl32.Vec3, radius int32) []voxel.ChunkPosition {
	cx := int32(center.X()) / voxel.ChunkSize
	cy := int32(center.Y()) / voxel.ChunkSize
	cz := int32(center.Z()) / voxel.ChunkSize

	var out []voxel.ChunkPosition
	for x := cx - radius; x <= cx+radius; x++ {
		for y := cy - radius; y <= cy+radius; y++ {
			for z := cz - radius; z <= cz+radius; z++ {
				out = append(out, voxel.ChunkPosition{
					WX: x * voxel.ChunkSize, WY: y * voxel.ChunkSize, WZ: z * voxel.ChunkSize,
					VoxelSize: 1,
				})
			}
		}
	}
	return out
}

func allocateSlabs() (mesh.Slabs, error) {
	faces, err := gpuslab.New(facesBinding, int(unsafe.Sizeof(mesh.FaceData(0))), initialSlabCapacity, false)
	if err != nil {
		return mesh.Slabs{}, fmt.Errorf("face slab: %w", err)
	}
	descriptors, err := gpuslab.New(descriptorsBinding, int(unsafe.Sizeof(mesh.ChunkDescriptor{})), 1024, false)
	if err != nil {
		return mesh.Slabs{}, fmt.Errorf("descriptor slab: %w", err)
	}
	lights, err := gpuslab.New(lightsBinding, int(unsafe.Sizeof(uint32(0))), initialSlabCapacity, true)
	if err != nil {
		return mesh.Slabs{}, fmt.Errorf("light slab: %w", err)
	}
	return mesh.Slabs{Faces: faces, Descriptors: descriptors, Lights: lights}, nil
}

func loadBloomPass(renderer *render.Renderer, shaderDir string) (*render.BloomPass, error) {
	blurVert, err := readShader(shaderDir, "bloom_blur.vert")
	if err != nil {
		return nil, err
	}
	blurFrag, err := readShader(shaderDir, "bloom_blur.frag")
	if err != nil {
		return nil, err
	}
	compVert, err := readShader(shaderDir, "bloom_composite.vert")
	if err != nil {
		return nil, err
	}
	compFrag, err := readShader(shaderDir, "bloom_composite.frag")
	if err != nil {
		return nil, err
	}
	w, h := renderer.Window().Size()
	return render.NewBloomPass(w, h, blurVert, blurFrag, compVert, compFrag)
}

func readShader(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("read shader %s: %w", name, err)
	}
	return string(data), nil
}

// registerBlocks seeds the block registry with the small fixed palette the
// renderer and mesher need for face-visibility and lighting tests. A real
// deployment would load this from content data; this module ships none.
func registerBlocks() *voxel.Registry {
	reg := voxel.NewRegistry()
	reg.Register(1, voxel.RegisterOpts{Solid: true})
	reg.Register(2, voxel.RegisterOpts{Solid: true})
	reg.Register(3, voxel.RegisterOpts{Solid: true, Transparent: true, ViewThrough: true, HasBackFace: true})
	reg.Register(4, voxel.RegisterOpts{Solid: true, Light: [3]uint8{255, 200, 120}})
	return reg
}

func runGameLoop(renderer *render.Renderer, world *game.World) {
	last := time.Now()
	var visible []lod.RenderableMesh

	for !renderer.ShouldClose() {
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		cam := renderer.Camera()
		cam.ProcessKeyboardInput(dt, renderer.Window())

		pos := cam.Position()
		frustum := render.NewFrustum(cam.ProjectionMatrix().Mul4(cam.ViewMatrix()), pos)

		world.Tick(float64(pos.X()), float64(pos.Y()), float64(pos.Z()), frustum, &visible)

		renderer.RenderFrame(visible, pos, mgl32.Vec3{0.15, 0.17, 0.2}, world.Attrs)

		renderer.Window().SwapBuffers()
		renderer.Window().PollEvents()
	}

	fmt.Println("shutting down")
}
