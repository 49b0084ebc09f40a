package pkg

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/ecopia-map/quadtree_tiler/internal/io"
	"github.com/ecopia-map/quadtree_tiler/internal/tiler"
	"github.com/ecopia-map/quadtree_tiler/internal/tileset"
	"github.com/ecopia-map/quadtree_tiler/tools"
)

// suffixes a content file may carry when the tiles were compressed
var contentSuffixes = []string{"", ".gz", ".zst"}

type TilerVerify struct{}

func NewTilerVerify() tiler.ITiler {
	return &TilerVerify{}
}

// Checks an existing tileset.json, dropping the tiles whose content is missing or whose bounding volume is broken
func (tilerVerify *TilerVerify) RunTiler(ctx context.Context, opts *tiler.TilerOptions) error {
	verifyOptions := opts.TilerVerifyOptions

	content, err := os.ReadFile(filepath.Join(verifyOptions.Input, tileset.TilesetFileName))
	if err != nil {
		return err
	}
	if err := tileset.Validate(content); err != nil {
		return fmt.Errorf("%s does not follow the tileset schema: %w", tileset.TilesetFileName, err)
	}

	ts, err := tileset.Parse(content)
	if err != nil {
		return err
	}

	contentExists := func(uri string) bool {
		for _, suffix := range contentSuffixes {
			if tools.FileExists(filepath.Join(verifyOptions.Input, filepath.FromSlash(uri)+suffix)) {
				return true
			}
		}
		return false
	}
	report := tileset.Prune(ts, contentExists, verifyOptions.Threshold)

	for _, uri := range report.MissingContent {
		glog.Warningf("missing content %s", uri)
	}
	for _, uri := range report.InvalidBoundingVolume {
		glog.Warningf("invalid bounding volume for %s", uri)
	}
	tools.LogOutput(fmt.Sprintf("missing content: %d, invalid bounding volumes: %d, emptied tiles: %d, remaining tiles: %d",
		len(report.MissingContent), len(report.InvalidBoundingVolume), report.EmptyTiles, report.RemainingContent))

	if verifyOptions.DryRun {
		return nil
	}

	output := verifyOptions.Output
	if output == "" {
		output = verifyOptions.Input
	}
	fixed, err := json.MarshalIndent(ts, "", "\t")
	if err != nil {
		return err
	}
	return io.NewFileSystemSink(output).WriteBytes(tileset.TilesetFileName, fixed)
}
