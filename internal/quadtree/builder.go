package quadtree

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
	"github.com/ecopia-map/quadtree_tiler/internal/tileset"
)

var (
	ErrUnresolvedNode = errors.New("unresolved quadtree node")
	ErrInvalidChain   = errors.New("invalid ancestor chain")
)

type BuildOptions struct {
	// Geometric error of the internal tiles, indexed by quadtree level
	LevelGeometricErrors []float64
	LeafGeometricError   float64
	LeafLod              int
}

// Result of the tree reconstruction. Tiles is the hierarchy below the quadtree root,
// Leaves the flat list of all the leaf tiles, in reading order.
type Result struct {
	Tiles  []*tileset.Tile
	Leaves []*tileset.Tile
}

type pendingLeaf struct {
	tile        *tileset.Tile
	parentID    string
	parentLevel int
}

// Rebuilds the tile hierarchy from the flat leaf ancestor chains and the quadtree node records.
// Every ancestor referenced by a chain has to resolve to exactly one node record.
type Builder struct {
	resolver NodeResolver
	maxLevel int
	options  BuildOptions

	index   *UsedNodeIndex
	pending []pendingLeaf
	leafIDs map[string]struct{}
}

func NewBuilder(resolver NodeResolver, maxLevel int, options BuildOptions) (*Builder, error) {
	if maxLevel < 0 {
		return nil, fmt.Errorf("invalid quadtree max level %d", maxLevel)
	}
	if len(options.LevelGeometricErrors) < maxLevel+1 {
		return nil, fmt.Errorf("got %d level geometric errors for %d quadtree levels", len(options.LevelGeometricErrors), maxLevel+1)
	}

	return &Builder{
		resolver: resolver,
		maxLevel: maxLevel,
		options:  options,
		index:    newUsedNodeIndex(maxLevel),
		leafIDs:  make(map[string]struct{}),
	}, nil
}

// BuildTree is a shortcut for NewBuilder followed by Build
func BuildTree(ctx context.Context, chains ChainReader, resolver NodeResolver, maxLevel int, options BuildOptions) (*Result, error) {
	builder, err := NewBuilder(resolver, maxLevel, options)
	if err != nil {
		return nil, err
	}
	return builder.Build(ctx, chains)
}

func (b *Builder) Build(ctx context.Context, chains ChainReader) (*Result, error) {
	if err := chains(ctx, b.AddChain); err != nil {
		return nil, err
	}
	glog.Infof("read %d leaves", len(b.pending))

	if err := b.resolveLevels(ctx); err != nil {
		return nil, err
	}

	top, err := b.attachLeaves()
	if err != nil {
		return nil, err
	}

	if err := b.linkLevels(); err != nil {
		return nil, err
	}

	result := &Result{
		Leaves: make([]*tileset.Tile, 0, len(b.pending)),
	}
	// the quadtree root only anchors the hierarchy and is never exposed
	for _, id := range b.index.Referenced(0) {
		result.Tiles = append(result.Tiles, b.index.Tile(0, id).Children...)
	}
	result.Tiles = append(result.Tiles, top...)
	for _, p := range b.pending {
		result.Leaves = append(result.Leaves, p.tile)
	}

	return result, nil
}

// AddChain registers the ancestors of a leaf and creates its tile
func (b *Builder) AddChain(record AncestorChainRecord) error {
	if record.LeafID == "" {
		return fmt.Errorf("%w: leaf without id", ErrInvalidChain)
	}
	if _, ok := b.leafIDs[record.LeafID]; ok {
		return fmt.Errorf("%w: duplicated leaf %q", ErrInvalidChain, record.LeafID)
	}
	if len(record.Ancestors) > b.maxLevel+1 {
		return fmt.Errorf("%w: leaf %q has %d ancestors, quadtree has %d levels", ErrInvalidChain, record.LeafID, len(record.Ancestors), b.maxLevel+1)
	}
	if record.Extent == nil {
		return fmt.Errorf("%w: leaf %q has no extent", ErrInvalidChain, record.LeafID)
	}

	for i, id := range record.Ancestors {
		if id == "" {
			return fmt.Errorf("%w: leaf %q has an empty ancestor id", ErrInvalidChain, record.LeafID)
		}
		b.index.Reference(record.AncestorLevel(i), id)
	}

	extent := *record.Extent
	tile := tileset.NewTile(record.LeafID, &extent)
	tile.GeometricError = b.options.LeafGeometricError
	tile.Lod = b.options.LeafLod

	p := pendingLeaf{tile: tile, parentLevel: -1}
	if len(record.Ancestors) > 0 {
		p.parentID = record.Ancestors[0]
		p.parentLevel = record.AncestorLevel(0)
	}

	b.leafIDs[record.LeafID] = struct{}{}
	b.pending = append(b.pending, p)
	return nil
}

func (b *Builder) resolveLevels(ctx context.Context) error {
	for level := 0; level < b.index.NumLevels(); level++ {
		ids := b.index.Referenced(level)
		if len(ids) == 0 {
			continue
		}

		records, err := b.resolver.ResolveNodes(ctx, ids, level)
		if err != nil {
			return err
		}

		for _, record := range records {
			if err := b.resolveNode(level, record); err != nil {
				return err
			}
		}

		for _, id := range ids {
			if b.index.Tile(level, id) == nil {
				return fmt.Errorf("%w: node %q at level %d", ErrUnresolvedNode, id, level)
			}
		}
		glog.Infof("resolved %d nodes at level %d", len(ids), level)
	}
	return nil
}

func (b *Builder) resolveNode(level int, record NodeRecord) error {
	if record.Level != level || !b.index.IsReferenced(level, record.ID) {
		return fmt.Errorf("%w: unexpected node %q at level %d", ErrUnresolvedNode, record.ID, record.Level)
	}

	n := b.index.get(level, record.ID)
	if n.tile != nil {
		return fmt.Errorf("%w: node %q at level %d resolved more than once", ErrUnresolvedNode, record.ID, level)
	}

	if level > 0 {
		if !record.HasParent {
			return fmt.Errorf("%w: node %q at level %d has no parent", ErrUnresolvedNode, record.ID, level)
		}
		n.parentID = record.ParentID
		n.hasParent = true
	}

	tile := tileset.NewTile("", geometry.NewEmptyBoundingBox())
	tile.GeometricError = b.options.LevelGeometricErrors[level]
	tile.Lod = level
	n.tile = tile
	return nil
}

// attaches every leaf to its immediate parent, returning the leaves without any ancestor
func (b *Builder) attachLeaves() ([]*tileset.Tile, error) {
	var top []*tileset.Tile
	for _, p := range b.pending {
		if p.parentLevel < 0 {
			top = append(top, p.tile)
			continue
		}
		parent := b.index.Tile(p.parentLevel, p.parentID)
		if parent == nil {
			return nil, fmt.Errorf("%w: parent %q of leaf %q", ErrUnresolvedNode, p.parentID, p.tile.ID)
		}
		parent.AddChild(p.tile)
	}
	return top, nil
}

// links every internal tile to its parent, deepest level first
func (b *Builder) linkLevels() error {
	for level := b.index.NumLevels() - 1; level >= 1; level-- {
		for _, id := range b.index.Referenced(level) {
			n := b.index.get(level, id)
			parent := b.index.Tile(level-1, n.parentID)
			if parent == nil {
				return fmt.Errorf("%w: parent %q of node %q at level %d", ErrUnresolvedNode, n.parentID, id, level)
			}
			parent.AddChild(n.tile)
		}
	}
	return nil
}
