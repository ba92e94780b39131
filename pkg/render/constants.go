package render

import "github.com/go-gl/glfw/v3.3/glfw"

// Key bindings and key-state aliases, re-exported from glfw so callers
// never need to import it directly for basic movement handling.
const (
	KeyW     = glfw.KeyW
	KeyA     = glfw.KeyA
	KeyS     = glfw.KeyS
	KeyD     = glfw.KeyD
	KeySpace = glfw.KeySpace
)

const (
	Press   = glfw.Press
	Release = glfw.Release
)

// Camera defaults.
const (
	DefaultMoveSpeed   = 10.0
	DefaultRotateSpeed = 0.1

	DefaultYaw   = -90.0 // facing -Z
	DefaultPitch = 0.0

	DefaultFOV = 45.0
	MinFOV     = 1.0
	MaxFOV     = 45.0

	MaxPitch = 89.0
	MinPitch = -89.0
)

// FrustumMargin is the safety margin (world units) added to every plane
// test so a chunk straddling a plane isn't culled a frame early.
const FrustumMargin = 128.0

// RaycastMaxDistance bounds the block-selection DDA walk.
const RaycastMaxDistance = 6.0
