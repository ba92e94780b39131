package voxel

// subIndex encodes a 2x2x2 sub-cell offset into the same bit layout used
// both for the sub-cell's own identity and for the permutation table below:
// bit 2 is x, bit 1 is z, bit 0 is y.
func subIndex(dx, dy, dz int) int {
	return dx*4 + dz*2 + dy
}

// neighborScore scores one face-neighbor of a sub-cell: a neighbor that
// falls outside the child chunk (the chunk border) scores 1, a transparent
// interior neighbor scores 5, and an opaque interior neighbor scores 0.
func neighborScore(child *Chunk, x, y, z int, attrs BlockAttributes) int {
	if !inBounds(x, y, z) {
		return 1
	}
	b := child.GetBlock(x, y, z)
	if attrs.Transparent(b.Type) {
		return 5
	}
	return 0
}

func scoreSubCell(child *Chunk, x, y, z int, attrs BlockAttributes) int {
	return neighborScore(child, x-1, y, z, attrs) +
		neighborScore(child, x+1, y, z, attrs) +
		neighborScore(child, x, y-1, z, attrs) +
		neighborScore(child, x, y+1, z, attrs) +
		neighborScore(child, x, y, z-1, attrs) +
		neighborScore(child, x, y, z+1, attrs)
}

// UpdateFromLowerResolution absorbs one octant of a higher-detail child
// chunk into its coarser parent. octant selects which half of the parent's
// 32^3 volume the child covers on each axis: bit 0 is x, bit 1 is y, bit 2
// is z (matching the visibility-mask octant index).
//
// For every parent cell in that half, the corresponding 2x2x2 group of
// child cells is scored and one representative sub-cell is chosen via a
// deterministic permutation over the *parent* cell's own parity, not the
// sub-cell's relative position within its group; this is preserved exactly
// as the downsampling is known to depend on it for its visual character.
func UpdateFromLowerResolution(parent *Chunk, child *Chunk, octant int, attrs BlockAttributes) {
	ox := octant & 1
	oy := (octant >> 1) & 1
	oz := (octant >> 2) & 1

	half := ChunkSize / 2
	changed := false

	parent.mu.Lock()
	defer parent.mu.Unlock()

	for px := ox * half; px < ox*half+half; px++ {
		for py := oy * half; py < oy*half+half; py++ {
			for pz := oz * half; pz < oz*half+half; pz++ {
				cx, cy, cz := (px-ox*half)*2, (py-oy*half)*2, (pz-oz*half)*2

				var scores [8]int
				var blocks [8]Block
				var isAir [8]bool
				maxScore := -1
				for i := 0; i < 8; i++ {
					dx, dy, dz := (i>>2)&1, i&1, (i>>1)&1
					b := child.GetBlock(cx+dx, cy+dy, cz+dz)
					idx := subIndex(dx, dy, dz)
					blocks[idx] = b
					isAir[idx] = b.Type == 0
					if isAir[idx] {
						continue
					}
					s := scoreSubCell(child, cx+dx, cy+dy, cz+dz, attrs)
					scores[idx] = s
					if s > maxScore {
						maxScore = s
					}
				}

				if maxScore < 0 {
					// every sub-cell is air; leave the parent cell as air.
					continue
				}

				perm := (px&1)*4 + (pz&1)*2 + (py & 1)
				chosen := -1
				for i := 0; i < 8; i++ {
					cand := perm ^ i
					if isAir[cand] {
						continue
					}
					if scores[cand] >= maxScore-1 {
						chosen = cand
						break
					}
				}
				if chosen < 0 {
					continue
				}

				parent.Blocks[index(px, py, pz)] = blocks[chosen]
				changed = true
			}
		}
	}

	if changed {
		parent.setChanged()
	}
}
