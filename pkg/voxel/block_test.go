package voxel

import "testing"

func TestRegistryAirDefaults(t *testing.T) {
	// Arrange
	reg := NewRegistry()

	// Act & Assert
	if !reg.Transparent(0) || !reg.ViewThrough(0) {
		t.Error("expected air (type 0) to be transparent and view-through by default")
	}
	if reg.Solid(0) {
		t.Error("expected air to never be solid")
	}
}

func TestRegistryUnknownTypeFallsBackToFullCube(t *testing.T) {
	// Arrange
	reg := NewRegistry()

	// Act
	m := reg.Model(Block{Type: 99})

	// Assert
	if !m.FullCube {
		t.Error("expected an unregistered block type to resolve to the full-cube model")
	}
}

func TestRegistryRegisteredModelIsUsed(t *testing.T) {
	// Arrange
	reg := NewRegistry()
	reg.Register(1, RegisterOpts{
		Solid: true,
		Model: func(data uint16) ModelRef {
			return ModelRef{ModelIndex: 3, Permutation: uint8(data)}
		},
	})

	// Act
	m := reg.Model(Block{Type: 1, Data: 2})

	// Assert
	if m.ModelIndex != 3 || m.Permutation != 2 {
		t.Errorf("expected registered model function to be used, got %+v", m)
	}
}
