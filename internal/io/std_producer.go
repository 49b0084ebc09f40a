package io

import (
	"context"
	"sync"

	"github.com/ecopia-map/quadtree_tiler/internal/tileset"
)

type StandardProducer struct {
	leaves     []*tileset.Tile
	compressor Compressor
}

func NewStandardProducer(leaves []*tileset.Tile, compressor Compressor) *StandardProducer {
	return &StandardProducer{
		leaves:     leaves,
		compressor: compressor,
	}
}

// Submits one WorkUnit per leaf tile to the provided work channel, stopping early when the context is cancelled.
// Closes the channel when all work is submitted.
func (p *StandardProducer) Produce(ctx context.Context, work chan<- *WorkUnit, wg *sync.WaitGroup) {
	defer wg.Done()
	defer close(work)

	for _, leaf := range p.leaves {
		if ctx.Err() != nil {
			return
		}
		unit := &WorkUnit{
			Tile: leaf,
			Name: tileset.ContentURI(leaf.ID) + p.compressor.Extension(),
		}
		select {
		case work <- unit:
		case <-ctx.Done():
			return
		}
	}
}
