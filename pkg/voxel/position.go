package voxel

// ChunkSize is the fixed edge length of the dense voxel grid, in cells,
// regardless of VoxelSize.
const ChunkSize = 32

// ChunkSizeShift is log2(ChunkSize), used for the packed index layout
// (x<<5)|(y<<10)|z and for dividing world coordinates into chunk cells.
const ChunkSizeShift = 5

// ChunkVolume is the number of blocks stored per chunk.
const ChunkVolume = ChunkSize * ChunkSize * ChunkSize

// MaxLOD is the highest supported LOD exponent (voxelSize up to 2^MaxLOD).
const MaxLOD = 5

// ChunkPosition identifies a chunk by its world-space corner and voxel size.
// Two positions are equal iff all four fields match.
type ChunkPosition struct {
	WX, WY, WZ int32
	VoxelSize  int32
}

// voxelSizeShift returns log2(VoxelSize); VoxelSize is always a power of two
// in [1, 2^MaxLOD].
func (p ChunkPosition) voxelSizeShift() uint {
	shift := uint(0)
	for v := p.VoxelSize; v > 1; v >>= 1 {
		shift++
	}
	return shift
}

// ChunkSide is the world-space edge length of the chunk at this position.
func (p ChunkPosition) ChunkSide() int32 {
	return ChunkSize * p.VoxelSize
}

// Hash spreads the four identity fields through shift-and-multiply so that
// adjacent chunk positions do not collide in open-addressed maps.
func (p ChunkPosition) Hash() uint64 {
	const (
		prime1 = 0x9E3779B185EBCA87
		prime2 = 0xC2B2AE3D27D4EB4F
		prime3 = 0x165667B19E3779F9
	)
	h := uint64(p.VoxelSize) * prime3
	h = (h ^ uint64(uint32(p.WX))) * prime1
	h ^= h >> 29
	h = (h ^ uint64(uint32(p.WY))) * prime2
	h ^= h >> 32
	h = (h ^ uint64(uint32(p.WZ))) * prime1
	h ^= h >> 29
	return h
}

// aabb returns the world-space min/max corners of this chunk's bounding box.
func (p ChunkPosition) aabb() (minX, minY, minZ, maxX, maxY, maxZ int64) {
	side := int64(p.ChunkSide())
	minX, minY, minZ = int64(p.WX), int64(p.WY), int64(p.WZ)
	return minX, minY, minZ, minX + side, minY + side, minZ + side
}

func clampAxis(v, lo, hi int64) int64 {
	if v < lo {
		return lo - v
	}
	if v > hi {
		return v - hi
	}
	return 0
}

// MinDistanceSquared returns the squared distance from point to the closest
// point on this chunk's AABB, clamped to zero when the point is inside.
func (p ChunkPosition) MinDistanceSquared(x, y, z float64) float64 {
	minX, minY, minZ, maxX, maxY, maxZ := p.aabb()
	dx := clampAxis(int64(x), minX, maxX)
	dy := clampAxis(int64(y), minY, maxY)
	dz := clampAxis(int64(z), minZ, maxZ)
	return float64(dx*dx + dy*dy + dz*dz)
}

// MaxDistanceSquared returns the squared distance from point to the farthest
// point on this chunk's AABB.
func (p ChunkPosition) MaxDistanceSquared(x, y, z float64) float64 {
	minX, minY, minZ, maxX, maxY, maxZ := p.aabb()
	farX := maxF(absF(float64(minX)-x), absF(float64(maxX)-x))
	farY := maxF(absF(float64(minY)-y), absF(float64(maxY)-y))
	farZ := maxF(absF(float64(minZ)-z), absF(float64(maxZ)-z))
	return farX*farX + farY*farY + farZ*farZ
}

// CenterDistanceSquared returns the squared distance from point to this
// chunk's AABB center.
func (p ChunkPosition) CenterDistanceSquared(x, y, z float64) float64 {
	minX, minY, minZ, maxX, maxY, maxZ := p.aabb()
	cx := float64(minX+maxX) / 2
	cy := float64(minY+maxY) / 2
	cz := float64(minZ+maxZ) / 2
	dx, dy, dz := cx-x, cy-y, cz-z
	return dx*dx + dy*dy + dz*dz
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// log2i returns floor(log2(v)) for v a positive power of two.
func log2i(v int32) float64 {
	n := 0.0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// Priority computes the rendering priority bias toward near, high-detail
// chunks: p = -minDist²/voxelSize² + 2·log2(voxelSize)·chunkSide².
func (p ChunkPosition) Priority(x, y, z float64) float64 {
	minDist2 := p.MinDistanceSquared(x, y, z)
	vs := float64(p.VoxelSize)
	side := float64(p.ChunkSide())
	return -minDist2/(vs*vs) + 2*log2i(p.VoxelSize)*side*side
}
