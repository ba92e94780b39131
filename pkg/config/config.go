// Package config holds the process-wide, mutex-guarded render/LOD settings
// a running instance exposes to in-game tuning: render distance, the
// coarser-LOD radius multiplier, the LOD ceiling, bloom, FOV, and vsync.
package config

import "sync"

// settings is the package-level singleton; every getter/setter below locks
// the same mutex, in the style of dantero-ps-mini-mc-go's config package.
type settings struct {
	mu sync.RWMutex

	renderDistance int     // in chunks, at LOD 0
	lodFactor      float64 // radius multiplier applied to k>0 LOD levels
	highestLOD     int     // LOD ceiling, capped at 5
	bloom          bool
	fov            float32
	vsync          bool
}

var global = &settings{
	renderDistance: 12,
	lodFactor:      1.5,
	highestLOD:     5,
	bloom:          true,
	fov:            70,
	vsync:          true,
}

// HighestLODCap is the hard ceiling on HighestLOD: beyond this the octant
// visibility mask and the per-level storage arrays stop paying for
// themselves against the detail they'd add.
const HighestLODCap = 5

// RenderDistance returns the current render distance, in chunks.
func RenderDistance() int {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.renderDistance
}

// SetRenderDistance sets the render distance, clamped to a sane range.
func SetRenderDistance(distance int) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if distance < 2 {
		distance = 2
	}
	if distance > 64 {
		distance = 64
	}
	global.renderDistance = distance
}

// LODFactor returns the radius multiplier applied to LOD levels above 0.
func LODFactor() float64 {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.lodFactor
}

// SetLODFactor sets the LOD radius multiplier, clamped to [1, 4].
func SetLODFactor(factor float64) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if factor < 1 {
		factor = 1
	}
	if factor > 4 {
		factor = 4
	}
	global.lodFactor = factor
}

// HighestLOD returns the current LOD ceiling.
func HighestLOD() int {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.highestLOD
}

// SetHighestLOD sets the LOD ceiling, clamped to [0, HighestLODCap].
func SetHighestLOD(lod int) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if lod < 0 {
		lod = 0
	}
	if lod > HighestLODCap {
		lod = HighestLODCap
	}
	global.highestLOD = lod
}

// Bloom returns whether the bloom post-process pass is enabled.
func Bloom() bool {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.bloom
}

// SetBloom toggles the bloom post-process pass.
func SetBloom(enabled bool) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.bloom = enabled
}

// FOV returns the configured field of view, in degrees. render.Camera
// keeps its own FOV and does not read this setting.
func FOV() float32 {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.fov
}

// SetFOV sets the configured field of view, clamped to [1, 120].
func SetFOV(fov float32) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if fov < 1 {
		fov = 1
	}
	if fov > 120 {
		fov = 120
	}
	global.fov = fov
}

// VSync returns whether the swap chain waits for vertical blank.
func VSync() bool {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.vsync
}

// SetVSync toggles vsync. Takes effect the next time the renderer's window
// is created; it does not re-create an already-open window.
func SetVSync(enabled bool) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.vsync = enabled
}
