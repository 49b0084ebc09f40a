package io

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/ecopia-map/quadtree_tiler/internal/b3dm"
	"github.com/ecopia-map/quadtree_tiler/internal/data"
	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
)

type StandardConsumer struct {
	fetchers       FetcherFactory
	sink           OutputSink
	compressor     Compressor
	skipped        *SkipList
	progress       *ProgressReporter
	translation    geometry.Coordinate
	attributesName string
	maxTriangles   int
	skipExisting   bool
}

func NewStandardConsumer(fetchers FetcherFactory, sink OutputSink, compressor Compressor, skipped *SkipList, progress *ProgressReporter, opts WriterOptions) *StandardConsumer {
	return &StandardConsumer{
		fetchers:       fetchers,
		sink:           sink,
		compressor:     compressor,
		skipped:        skipped,
		progress:       progress,
		translation:    opts.Translation,
		attributesName: opts.AttributesName,
		maxTriangles:   opts.MaxTriangles,
		skipExisting:   opts.SkipExisting,
	}
}

// Continually consumes WorkUnits submitted to a work channel producing the corresponding b3dm files.
// Continues working until the work channel is closed or an error is raised. In this last case submits
// the error to the error channel before quitting. The fetcher is opened lazily and always closed on exit.
func (c *StandardConsumer) Consume(ctx context.Context, work <-chan *WorkUnit, errchan chan<- error, wg *sync.WaitGroup) {
	defer wg.Done()

	var fetcher GeometryFetcher
	defer func() {
		if fetcher == nil {
			return
		}
		if err := fetcher.Close(); err != nil {
			glog.Warningf("closing geometry fetcher: %v", err)
		}
	}()

	for ctx.Err() == nil {
		var unit *WorkUnit
		var ok bool
		select {
		case unit, ok = <-work:
		case <-ctx.Done():
			return
		}
		if !ok {
			// channel was closed by producer
			return
		}

		if fetcher == nil && !c.exists(unit) {
			f, err := c.fetchers(ctx)
			if err != nil {
				errchan <- err
				return
			}
			fetcher = f
		}

		if err := c.doWork(ctx, fetcher, unit); err != nil {
			glog.Errorf("tile %s: %v", unit.Tile.ID, err)
			errchan <- fmt.Errorf("tile %s: %w", unit.Tile.ID, err)
			return
		}
		c.progress.Tick()
	}
}

func (c *StandardConsumer) exists(unit *WorkUnit) bool {
	return c.skipExisting && c.sink.Exists(unit.Name)
}

// Takes a WorkUnit and writes the corresponding content file, unless it already exists or is too large
func (c *StandardConsumer) doWork(ctx context.Context, fetcher GeometryFetcher, unit *WorkUnit) error {
	if c.exists(unit) {
		return nil
	}

	records, err := fetcher.GeometrySubset(ctx, unit.Tile)
	if err != nil {
		return err
	}

	mesh, err := data.TriangulateRecords(records)
	if err != nil {
		return err
	}
	if mesh.DegeneratedTriangles > 0 {
		glog.V(1).Infof("tile %s: dropped %d degenerated triangles", unit.Tile.ID, mesh.DegeneratedTriangles)
	}

	if c.maxTriangles > 0 && len(mesh.Triangles) > c.maxTriangles {
		glog.Warningf("skipping tile %s: %d triangles, limit is %d", unit.Tile.ID, len(mesh.Triangles), c.maxTriangles)
		c.skipped.Add(unit.Tile.ID)
		return nil
	}

	content, err := b3dm.Encode(mesh, c.translation, c.attributesName)
	if err != nil {
		return err
	}

	content, err = c.compressor.Compress(content)
	if err != nil {
		return err
	}

	return c.sink.WriteBytes(unit.Name, content)
}
