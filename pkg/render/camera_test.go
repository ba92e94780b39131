package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCameraHandleMouseScrollClampsFOV(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 0})

	c.HandleMouseScroll(1000)
	if _, pitch := c.Orientation(); pitch != DefaultPitch {
		t.Fatal("scroll should not touch pitch")
	}
	if c.fov != MinFOV {
		t.Fatalf("expected fov clamped to MinFOV, got %v", c.fov)
	}

	c.HandleMouseScroll(-1000)
	if c.fov != MaxFOV {
		t.Fatalf("expected fov clamped to MaxFOV, got %v", c.fov)
	}
}

func TestCameraSetRotationClampsPitch(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 0})

	c.SetRotation(45, 1000)
	if _, pitch := c.Orientation(); pitch != MaxPitch {
		t.Fatalf("expected pitch clamped to MaxPitch, got %v", pitch)
	}

	c.SetRotation(45, -1000)
	if _, pitch := c.Orientation(); pitch != MinPitch {
		t.Fatalf("expected pitch clamped to MinPitch, got %v", pitch)
	}
}

func TestCameraHandleMouseMovementFirstSampleIsAbsorbed(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 0})
	startYaw, startPitch := c.Orientation()

	c.HandleMouseMovement(100, 100)

	yaw, pitch := c.Orientation()
	if yaw != startYaw || pitch != startPitch {
		t.Fatal("expected the first mouse sample to only prime lastX/lastY, not rotate the camera")
	}
}

func TestCameraHandleMouseMovementRotatesOnSubsequentSample(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 0})
	c.HandleMouseMovement(100, 100)
	startYaw, _ := c.Orientation()

	c.HandleMouseMovement(150, 100)

	yaw, _ := c.Orientation()
	if yaw == startYaw {
		t.Fatal("expected yaw to change after a second mouse sample with a nonzero x delta")
	}
}

func TestCameraLookAtPointsFrontAtTarget(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 0})
	c.LookAt(mgl32.Vec3{10, 0, 0})

	front := c.FrontVector()
	if front.X() < 0.99 {
		t.Fatalf("expected front vector to point toward +X, got %v", front)
	}
}

func TestCameraUpdateProjectionMatrixReflectsAspectRatio(t *testing.T) {
	c := NewCamera(mgl32.Vec3{0, 0, 0})
	c.UpdateProjectionMatrix(1920, 1080)

	proj := c.ProjectionMatrix()
	if proj == (mgl32.Mat4{}) {
		t.Fatal("expected a nonzero projection matrix")
	}
}
