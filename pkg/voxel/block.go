// Package voxel implements the chunk storage model: dense per-chunk block
// grids, chunk position identity and hashing, and the low-resolution
// downsampling used to keep coarser LOD chunks in sync with their children.
package voxel

// Block is the packed per-voxel payload: a type id and an opaque data field
// (rotation, growth stage, liquid level, ...) interpreted by the block
// registry, never by the grid itself.
type Block struct {
	Type uint16
	Data uint16
}

// Air is the zero value block; every mutator and the mesher treat Type 0
// as empty space.
var Air = Block{}

// ModelRef describes the rotated model a block resolves to: which mesh
// variant to draw, which of its rotations, and (for non-cube models) the
// oriented bounding box used by face-visibility tests and the selection
// raycast.
type ModelRef struct {
	ModelIndex  uint16
	Permutation uint8
	Min, Max    [3]uint8 // 16-unit cells, i.e. 0..16 per axis
	FullCube    bool
}

// BlockAttributes is the external block-registry/texture-atlas collaborator.
// The mesher only ever reads through this interface; it never owns block
// definitions.
type BlockAttributes interface {
	Transparent(typ uint16) bool
	ViewThrough(typ uint16) bool
	Solid(typ uint16) bool
	Degradable(typ uint16) bool
	HasBackFace(typ uint16) bool
	Light(typ uint16) [3]uint8   // emissive light, RGB
	Absorption(typ uint16) uint8 // how much this block dims passing light
	Model(b Block) ModelRef
}

// Registry is a concurrency-safe, map-backed BlockAttributes implementation.
// Reads never block each other; registration is expected to happen once at
// startup before any mesher goroutine is spawned.
type Registry struct {
	defs map[uint16]blockDef
}

type blockDef struct {
	transparent bool
	viewThrough bool
	solid       bool
	degradable  bool
	hasBackFace bool
	light       [3]uint8
	absorption  uint8
	model       func(data uint16) ModelRef
}

// fullCubeModel is the model every block defaults to unless registered
// otherwise: a unit cube occupying the entire 16-unit cell, no rotation.
var fullCubeModel = ModelRef{ModelIndex: 0, Permutation: 0, Min: [3]uint8{0, 0, 0}, Max: [3]uint8{16, 16, 16}, FullCube: true}

// NewRegistry creates an empty registry; type id 0 (air) is implicitly
// transparent and view-through with no model, and need not be registered.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[uint16]blockDef)}
}

// RegisterOpts configures a single block type.
type RegisterOpts struct {
	Transparent bool
	ViewThrough bool
	Solid       bool
	Degradable  bool
	HasBackFace bool
	Light       [3]uint8
	Absorption  uint8
	// Model, if set, computes a per-block-data model reference (for blocks
	// whose rotation or shape depends on Block.Data). If nil, the block is
	// a full cube.
	Model func(data uint16) ModelRef
}

// Register installs or replaces the definition for a block type id.
func (r *Registry) Register(typ uint16, opts RegisterOpts) {
	r.defs[typ] = blockDef{
		transparent: opts.Transparent,
		viewThrough: opts.ViewThrough,
		solid:       opts.Solid,
		degradable:  opts.Degradable,
		hasBackFace: opts.HasBackFace,
		light:       opts.Light,
		absorption:  opts.Absorption,
		model:       opts.Model,
	}
}

func (r *Registry) lookup(typ uint16) (blockDef, bool) {
	if typ == 0 {
		return blockDef{transparent: true, viewThrough: true}, true
	}
	d, ok := r.defs[typ]
	return d, ok
}

func (r *Registry) Transparent(typ uint16) bool {
	d, _ := r.lookup(typ)
	return d.transparent
}

func (r *Registry) ViewThrough(typ uint16) bool {
	d, _ := r.lookup(typ)
	return d.viewThrough
}

func (r *Registry) Solid(typ uint16) bool {
	d, ok := r.lookup(typ)
	if typ == 0 {
		return false
	}
	return ok && d.solid
}

func (r *Registry) Degradable(typ uint16) bool {
	d, _ := r.lookup(typ)
	return d.degradable
}

func (r *Registry) HasBackFace(typ uint16) bool {
	d, _ := r.lookup(typ)
	return d.hasBackFace
}

func (r *Registry) Light(typ uint16) [3]uint8 {
	d, _ := r.lookup(typ)
	return d.light
}

func (r *Registry) Absorption(typ uint16) uint8 {
	d, _ := r.lookup(typ)
	return d.absorption
}

// Model resolves a block's rotated model. Unknown model functions or a nil
// Model fall back to the full cube, per the data-error policy of substituting
// a safe default rather than failing the mesh.
func (r *Registry) Model(b Block) ModelRef {
	d, ok := r.lookup(b.Type)
	if !ok || d.model == nil {
		return fullCubeModel
	}
	return d.model(b.Data)
}
