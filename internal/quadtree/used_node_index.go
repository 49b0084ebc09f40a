package quadtree

import (
	"github.com/ecopia-map/quadtree_tiler/internal/tileset"
)

type usedNode struct {
	parentID  string
	hasParent bool
	tile      *tileset.Tile
}

// The nodes of a single quadtree level referenced by at least one leaf chain.
// ids keeps the registration order so that the resulting tree is deterministic.
type levelIndex struct {
	ids   []string
	nodes map[string]*usedNode
}

// UsedNodeIndex maps, level by level, the referenced node ids to their parent id and placeholder tile.
// Ids are registered first and resolved to node records afterwards.
type UsedNodeIndex struct {
	levels []*levelIndex
}

func newUsedNodeIndex(maxLevel int) *UsedNodeIndex {
	levels := make([]*levelIndex, maxLevel+1)
	for i := range levels {
		levels[i] = &levelIndex{
			nodes: make(map[string]*usedNode),
		}
	}
	return &UsedNodeIndex{levels: levels}
}

func (idx *UsedNodeIndex) NumLevels() int {
	return len(idx.levels)
}

// Reference registers the id at the given level, once
func (idx *UsedNodeIndex) Reference(level int, id string) {
	l := idx.levels[level]
	if _, ok := l.nodes[id]; ok {
		return
	}
	l.ids = append(l.ids, id)
	l.nodes[id] = &usedNode{}
}

func (idx *UsedNodeIndex) IsReferenced(level int, id string) bool {
	_, ok := idx.levels[level].nodes[id]
	return ok
}

// Referenced returns the ids of the level in registration order
func (idx *UsedNodeIndex) Referenced(level int) []string {
	return idx.levels[level].ids
}

func (idx *UsedNodeIndex) get(level int, id string) *usedNode {
	return idx.levels[level].nodes[id]
}

// Tile returns the placeholder tile of a resolved node, nil if the node is unknown or unresolved
func (idx *UsedNodeIndex) Tile(level int, id string) *tileset.Tile {
	n := idx.get(level, id)
	if n == nil {
		return nil
	}
	return n.tile
}
