package quadtree

import (
	"context"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
)

// One record per leaf tile, as read from the leaves table.
// Ancestors go from the immediate parent of the leaf up to the quadtree root,
// so the ancestor at index i sits at level len(Ancestors)-1-i.
type AncestorChainRecord struct {
	LeafID    string
	Ancestors []string
	Extent    *geometry.BoundingBox
}

func (r *AncestorChainRecord) AncestorLevel(i int) int {
	return len(r.Ancestors) - 1 - i
}

// One record per internal quadtree node. The root has no parent.
type NodeRecord struct {
	ID        string
	ParentID  string
	HasParent bool
	Level     int
}

// ChainReader streams the ancestor chains of all leaves to fn, stopping at the first error
type ChainReader func(ctx context.Context, fn func(AncestorChainRecord) error) error

type NodeResolver interface {
	ResolveNodes(ctx context.Context, ids []string, level int) ([]NodeRecord, error)
}
