package io

import (
	"context"
	"sync"

	"github.com/ecopia-map/quadtree_tiler/internal/data"
	"github.com/ecopia-map/quadtree_tiler/internal/tileset"
)

type Consumer interface {
	Consume(ctx context.Context, work <-chan *WorkUnit, errchan chan<- error, wg *sync.WaitGroup)
}

// GeometryFetcher reads the geometry records of a leaf tile. Implementations are used by a single
// worker at a time.
type GeometryFetcher interface {
	GeometrySubset(ctx context.Context, tile *tileset.Tile) ([]*data.GeometryRecord, error)
	Close() error
}

// FetcherFactory opens a fetcher for the exclusive use of one worker
type FetcherFactory func(ctx context.Context) (GeometryFetcher, error)
