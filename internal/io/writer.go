package io

import (
	"context"
	"sync"

	"github.com/golang/glog"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
	"github.com/ecopia-map/quadtree_tiler/internal/tileset"
)

const SkippedTilesFileName = "skippedtiles.txt"

type WriterOptions struct {
	MaxWorkers int
	// 0 disables the limit
	MaxTriangles int
	SkipExisting bool
	// batch table property name of the attributes, empty to omit the batch table
	AttributesName string
	// origin of the tileset local frame, subtracted from every vertex
	Translation geometry.Coordinate
}

// WriteTiles writes the content of every leaf tile with a pool of MaxWorkers consumers, each one owning
// its own fetcher. The first worker error cancels the others and is returned. On success returns the ids of
// the tiles skipped because they exceed the triangle limit.
func WriteTiles(ctx context.Context, leaves []*tileset.Tile, fetchers FetcherFactory, sink OutputSink, compressor Compressor, opts WriterOptions) ([]string, error) {
	numConsumers := opts.MaxWorkers
	if numConsumers < 1 {
		numConsumers = 1
	}
	if numConsumers > len(leaves) && len(leaves) > 0 {
		numConsumers = len(leaves)
	}

	skipped := NewSkipList()
	progress := NewProgressReporter(len(leaves))

	consumers := make([]Consumer, numConsumers)
	for i := range consumers {
		consumers[i] = NewStandardConsumer(fetchers, sink, compressor, skipped, progress, opts)
	}
	err := runWorkers(ctx, NewStandardProducer(leaves, compressor), consumers)
	progress.Close()

	if err != nil {
		return nil, err
	}
	if progress.Count() != len(leaves) {
		// interrupted from the outside
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, context.Canceled
	}

	ids := skipped.IDs()
	glog.Infof("processed %d tiles, %d over the triangle limit", progress.Count(), len(ids))
	return ids, nil
}

// runWorkers feeds the consumers from the producer and waits for all of them. The first consumer
// error stops the producer and the remaining consumers, and is returned.
func runWorkers(ctx context.Context, producer Producer, consumers []Consumer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// init channel where to submit work with a buffer 5 times greater than the number of consumer
	workChannel := make(chan *WorkUnit, len(consumers)*5)

	// init channel where consumers can eventually submit errors that prevented them to finish the job
	errorChannel := make(chan error, len(consumers))

	var wg sync.WaitGroup

	wg.Add(1)
	go producer.Produce(ctx, workChannel, &wg)

	for _, consumer := range consumers {
		wg.Add(1)
		go consumer.Consume(ctx, workChannel, errorChannel, &wg)
	}

	var firstErr error
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for waiting := true; waiting; {
		select {
		case err := <-errorChannel:
			if firstErr == nil {
				firstErr = err
				cancel()
			}
		case <-done:
			waiting = false
		}
	}
	close(errorChannel)
	for err := range errorChannel {
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WriteSkipReport persists the skipped tile ids, one per line
func WriteSkipReport(sink OutputSink, ids []string) error {
	return sink.WriteLines(SkippedTilesFileName, ids)
}
