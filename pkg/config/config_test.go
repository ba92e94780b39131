package config

import "testing"

func TestSetRenderDistanceClampsToRange(t *testing.T) {
	SetRenderDistance(0)
	if got := RenderDistance(); got != 2 {
		t.Fatalf("expected render distance clamped to 2, got %d", got)
	}

	SetRenderDistance(1000)
	if got := RenderDistance(); got != 64 {
		t.Fatalf("expected render distance clamped to 64, got %d", got)
	}

	SetRenderDistance(16)
	if got := RenderDistance(); got != 16 {
		t.Fatalf("expected render distance 16, got %d", got)
	}
}

func TestSetHighestLODClampsToCap(t *testing.T) {
	SetHighestLOD(100)
	if got := HighestLOD(); got != HighestLODCap {
		t.Fatalf("expected highest LOD clamped to %d, got %d", HighestLODCap, got)
	}

	SetHighestLOD(-5)
	if got := HighestLOD(); got != 0 {
		t.Fatalf("expected highest LOD clamped to 0, got %d", got)
	}
}

func TestSetLODFactorClampsToRange(t *testing.T) {
	SetLODFactor(0.1)
	if got := LODFactor(); got != 1 {
		t.Fatalf("expected LOD factor clamped to 1, got %v", got)
	}

	SetLODFactor(100)
	if got := LODFactor(); got != 4 {
		t.Fatalf("expected LOD factor clamped to 4, got %v", got)
	}
}

func TestSetFOVClampsToRange(t *testing.T) {
	SetFOV(0)
	if got := FOV(); got != 1 {
		t.Fatalf("expected FOV clamped to 1, got %v", got)
	}

	SetFOV(1000)
	if got := FOV(); got != 120 {
		t.Fatalf("expected FOV clamped to 120, got %v", got)
	}
}

func TestBloomAndVSyncToggle(t *testing.T) {
	SetBloom(false)
	if Bloom() {
		t.Fatal("expected bloom disabled")
	}
	SetBloom(true)
	if !Bloom() {
		t.Fatal("expected bloom enabled")
	}

	SetVSync(false)
	if VSync() {
		t.Fatal("expected vsync disabled")
	}
	SetVSync(true)
	if !VSync() {
		t.Fatal("expected vsync enabled")
	}
}
