package pkg

import (
	"context"
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/ecopia-map/quadtree_tiler/internal/geometry"
	"github.com/ecopia-map/quadtree_tiler/internal/io"
	"github.com/ecopia-map/quadtree_tiler/internal/quadtree"
	"github.com/ecopia-map/quadtree_tiler/internal/store"
	"github.com/ecopia-map/quadtree_tiler/internal/tiler"
	"github.com/ecopia-map/quadtree_tiler/internal/tileset"
	"github.com/ecopia-map/quadtree_tiler/pkg/algorithm_manager"
	"github.com/ecopia-map/quadtree_tiler/tools"
)

type TilerIndex struct {
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewTiler(algorithmManager algorithm_manager.AlgorithmManager) tiler.ITiler {
	return &TilerIndex{
		algorithmManager: algorithmManager,
	}
}

// The tile hierarchy along with everything needed to place it on the globe
type indexedTileset struct {
	tiles           []*tileset.Tile
	leaves          []*tileset.Tile
	translation     geometry.Coordinate
	box             []float64
	geometricErrors []float64
}

// Starts the tiling process: reads the quadtree, writes the tileset.json, then the content of every leaf
func (tilerIndex *TilerIndex) RunTiler(ctx context.Context, opts *tiler.TilerOptions) error {
	indexOptions := opts.TilerIndexOptions
	converter := tilerIndex.algorithmManager.GetCoordinateConverterAlgorithm()
	defer converter.Cleanup()

	if !converter.IsSupportedSrid(opts.Srid) {
		return fmt.Errorf("%w: unsupported srid %d", tiler.ErrConfiguration, opts.Srid)
	}

	source, err := store.Open(ctx, opts, tilerIndex.algorithmManager.GetElevationCorrectionAlgorithm())
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	indexed, err := tilerIndex.readTileset(ctx, source, opts)
	if err != nil {
		return err
	}

	numTiles := tileset.CountTiles(indexed.tiles, 0)
	tools.LogOutput(fmt.Sprintf("tiles with features: %d", numTiles))

	transform, err := converter.RootTransform(indexed.translation, opts.Srid)
	if err != nil {
		return err
	}

	tools.LogOutput("> writing tileset.json...")
	sink := io.NewFileSystemSink(indexOptions.Output)
	tilesetJson, err := tileset.ToJson(indexed.tiles, transform, indexed.box, indexed.geometricErrors[0], opts.RefineMode.String())
	if err != nil {
		return err
	}
	if err := sink.WriteBytes(tileset.TilesetFileName, tilesetJson); err != nil {
		return err
	}

	compressor, err := io.NewCompressor(indexOptions.Compression)
	if err != nil {
		return err
	}

	tools.LogOutput(fmt.Sprintf("> writing %d tiles with %d threads...", len(indexed.leaves), indexOptions.EffectiveThreads()))
	fetchers := func(ctx context.Context) (io.GeometryFetcher, error) {
		session, err := source.Session(ctx)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
	skipped, err := io.WriteTiles(ctx, indexed.leaves, fetchers, sink, compressor, io.WriterOptions{
		MaxWorkers:     indexOptions.EffectiveThreads(),
		MaxTriangles:   indexOptions.MaxTriangles,
		SkipExisting:   indexOptions.SkipTiles,
		AttributesName: opts.Columns.Attributes.Name,
		Translation:    indexed.translation,
	})
	if err != nil {
		return err
	}

	if len(skipped) > 0 {
		tools.LogOutput(fmt.Sprintf("skipped %d tiles over %d triangles, see %s", len(skipped), indexOptions.MaxTriangles, io.SkippedTilesFileName))
	}
	return io.WriteSkipReport(sink, skipped)
}

// readTileset rebuilds the tile hierarchy on a single session, closed before the tiles are written
func (tilerIndex *TilerIndex) readTileset(ctx context.Context, source *store.Source, opts *tiler.TilerOptions) (*indexedTileset, error) {
	session, err := source.Session(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = session.Close() }()

	lods, err := session.Lods(ctx)
	if err != nil {
		return nil, err
	}
	glog.Infof("lod levels: %v", lods)

	geometricErrors, err := tiler.ResolveGeometricErrors(opts.TilerIndexOptions.GeometricErrors, lods, opts.Columns.Lod.Present)
	if err != nil {
		return nil, err
	}
	tools.LogOutput(fmt.Sprintf("geometric errors: %v", geometricErrors))

	bbox, err := session.BoundingBox(ctx)
	if err != nil {
		return nil, err
	}
	tools.LogOutput(fmt.Sprintf("3D bounding box: %v", bbox.GetAsArray()))

	translation := bbox.Center()
	box := geometry.TranslateRotateX(bbox, translation.Negate(), math.Pi/2).GetBox()
	// the root volume carries the height, the tiles are only translated horizontally
	box[11] += translation.Z
	translation.Z = 0

	maxLevel, err := session.MaxLevel(ctx)
	if err != nil {
		return nil, err
	}

	tools.LogOutput(fmt.Sprintf("> reading quadtree of %d levels...", maxLevel+1))
	result, err := quadtree.BuildTree(ctx, session.ChainReader(maxLevel), session, maxLevel, quadtree.BuildOptions{
		LevelGeometricErrors: tileset.GetLevelGeometricErrors(geometricErrors[0], maxLevel),
		LeafGeometricError:   geometricErrors[len(geometricErrors)-1],
		LeafLod:              lods[len(lods)-1],
	})
	if err != nil {
		return nil, err
	}

	tileset.CalculateBoundingVolumes(result.Tiles, translation)

	return &indexedTileset{
		tiles:           result.Tiles,
		leaves:          result.Leaves,
		translation:     translation,
		box:             box,
		geometricErrors: geometricErrors,
	}, nil
}
