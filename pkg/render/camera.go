package render

import (
	"math"

	"openglhelper"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera implements a 3D fly camera: Euler-angle orientation, mouse-look,
// scroll-to-zoom FOV, and a perspective projection kept in sync with the
// window's size.
type Camera struct {
	position mgl32.Vec3
	worldUp  mgl32.Vec3
	front    mgl32.Vec3
	up       mgl32.Vec3
	right    mgl32.Vec3

	yaw   float32
	pitch float32

	fov         float32
	moveSpeed   float32
	rotateSpeed float32

	lastX      float64
	lastY      float64
	firstMouse bool

	projection mgl32.Mat4
	width      int
	height     int
}

// NewCamera creates a camera at position with sensible defaults.
func NewCamera(position mgl32.Vec3) *Camera {
	c := &Camera{
		position:    position,
		worldUp:     mgl32.Vec3{0, 1, 0},
		front:       mgl32.Vec3{0, 0, -1},
		yaw:         DefaultYaw,
		pitch:       DefaultPitch,
		fov:         DefaultFOV,
		moveSpeed:   DefaultMoveSpeed,
		rotateSpeed: DefaultRotateSpeed,
		firstMouse:  true,
		width:       800,
		height:      600,
	}
	c.updateCameraVectors()
	c.updateProjectionMatrix()
	return c
}

func (c *Camera) updateCameraVectors() {
	front := mgl32.Vec3{
		float32(math.Cos(float64(mgl32.DegToRad(c.yaw))) * math.Cos(float64(mgl32.DegToRad(c.pitch)))),
		float32(math.Sin(float64(mgl32.DegToRad(c.pitch)))),
		float32(math.Sin(float64(mgl32.DegToRad(c.yaw))) * math.Cos(float64(mgl32.DegToRad(c.pitch)))),
	}
	c.front = front.Normalize()
	c.right = c.front.Cross(c.worldUp).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
}

func (c *Camera) updateProjectionMatrix() {
	aspect := float32(c.width) / float32(c.height)
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.fov), aspect, 0.1, 1000.0)
}

// UpdateProjectionMatrix recomputes the projection for a new window size.
func (c *Camera) UpdateProjectionMatrix(width, height int) {
	c.width = width
	c.height = height
	c.updateProjectionMatrix()
}

// ViewMatrix returns the current look-at view matrix.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.position, c.position.Add(c.front), c.up)
}

// ProjectionMatrix returns the current perspective projection.
func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return c.projection
}

// Position returns the camera's world-space position.
func (c *Camera) Position() mgl32.Vec3 { return c.position }

// SetPosition moves the camera.
func (c *Camera) SetPosition(pos mgl32.Vec3) { c.position = pos }

// Orientation returns the current yaw/pitch in degrees.
func (c *Camera) Orientation() (yaw, pitch float32) { return c.yaw, c.pitch }

// SetRotation sets yaw/pitch directly, clamping pitch to avoid gimbal lock.
func (c *Camera) SetRotation(yaw, pitch float32) {
	c.yaw = yaw
	c.pitch = clampF32(pitch, MinPitch, MaxPitch)
	c.updateCameraVectors()
}

// LookAt points the camera at target.
func (c *Camera) LookAt(target mgl32.Vec3) {
	direction := target.Sub(c.position).Normalize()
	c.yaw = mgl32.RadToDeg(float32(math.Atan2(float64(direction.Z()), float64(direction.X()))))
	c.pitch = mgl32.RadToDeg(float32(math.Asin(float64(direction.Y()))))
	c.updateCameraVectors()
}

// FrontVector, RightVector, UpVector expose the camera's basis.
func (c *Camera) FrontVector() mgl32.Vec3 { return c.front }
func (c *Camera) RightVector() mgl32.Vec3 { return c.right }
func (c *Camera) UpVector() mgl32.Vec3    { return c.up }

// ProcessKeyboardInput applies WASD+space/shift fly movement for one frame.
func (c *Camera) ProcessKeyboardInput(deltaTime float32, window *openglhelper.Window) {
	speed := c.moveSpeed * deltaTime

	if window.GetKeyState(KeyW) == Press {
		c.position = c.position.Add(c.front.Mul(speed))
	}
	if window.GetKeyState(KeyS) == Press {
		c.position = c.position.Sub(c.front.Mul(speed))
	}
	if window.GetKeyState(KeyA) == Press {
		c.position = c.position.Sub(c.right.Mul(speed))
	}
	if window.GetKeyState(KeyD) == Press {
		c.position = c.position.Add(c.right.Mul(speed))
	}
	if window.GetKeyState(KeySpace) == Press {
		c.position = c.position.Add(c.worldUp.Mul(speed))
	}
	if window.GetKeyState(glfw.KeyLeftShift) == Press {
		c.position = c.position.Sub(c.worldUp.Mul(speed))
	}
}

// HandleMouseMovement updates yaw/pitch from a cursor-position callback.
func (c *Camera) HandleMouseMovement(xpos, ypos float64) {
	if c.firstMouse {
		c.lastX, c.lastY = xpos, ypos
		c.firstMouse = false
		return
	}

	xoffset := float32(xpos-c.lastX) * c.rotateSpeed
	yoffset := float32(c.lastY-ypos) * c.rotateSpeed // reversed: y runs top to bottom
	c.lastX, c.lastY = xpos, ypos

	c.yaw += xoffset
	c.pitch = clampF32(c.pitch+yoffset, MinPitch, MaxPitch)
	c.updateCameraVectors()
}

// HandleMouseScroll zooms the FOV in response to a scroll callback.
func (c *Camera) HandleMouseScroll(yoffset float64) {
	c.fov = clampF32(c.fov-float32(yoffset), MinFOV, MaxFOV)
	c.updateProjectionMatrix()
}

// ResetMouseState re-arms the first-mouse-sample flag, used after toggling
// mouse capture so the next movement doesn't jump.
func (c *Camera) ResetMouseState() { c.firstMouse = true }

func clampF32(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
