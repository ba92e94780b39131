package lod

import "github.com/duskline/voxelcore/pkg/voxel"

// evictionCache caps how many fully-destroyed-but-recently-used nodes are
// kept around keyed by position, so a player oscillating across a window
// boundary doesn't force a full mesh regeneration every time they cross
// back and forth. This is strictly additional bookkeeping on top of the
// clear list, not a replacement for it: nothing here changes when a node
// is considered drawable or when its octant bit flips.
type evictionCache struct {
	maxEntries int
	order      []voxel.ChunkPosition
	nodes      map[voxel.ChunkPosition]*ChunkMeshNode
}

func newEvictionCache(maxEntries int) *evictionCache {
	return &evictionCache{
		maxEntries: maxEntries,
		nodes:      make(map[voxel.ChunkPosition]*ChunkMeshNode),
	}
}

// put stores node under pos, evicting the least-recently-inserted entry
// once the cache is at capacity.
func (c *evictionCache) put(pos voxel.ChunkPosition, node *ChunkMeshNode) {
	if _, exists := c.nodes[pos]; !exists {
		c.order = append(c.order, pos)
	}
	c.nodes[pos] = node
	for len(c.order) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.nodes, oldest)
	}
}

// take removes and returns the cached node for pos, if present.
func (c *evictionCache) take(pos voxel.ChunkPosition) (*ChunkMeshNode, bool) {
	node, ok := c.nodes[pos]
	if !ok {
		return nil, false
	}
	delete(c.nodes, pos)
	for i, p := range c.order {
		if p == pos {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return node, true
}
