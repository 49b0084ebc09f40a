package tiler

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ecopia-map/quadtree_tiler/internal/tileset"
)

var ErrConfiguration = errors.New("configuration error")

type RefineMode string
type Compression string

const (
	RefineModeAdd     RefineMode = "ADD"
	RefineModeReplace RefineMode = "REPLACE"
)

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

const (
	DialectPostgis = "postgis"
	DialectSqlite  = "sqlite"
)

func (e RefineMode) String() string {
	if e == RefineModeAdd {
		return "ADD"
	} else if e == RefineModeReplace {
		return "REPLACE"
	}
	return ""
}

func ParseRefineMode(value string) RefineMode {
	normalizedValue := strings.Trim(strings.ToUpper(value), " ")
	if normalizedValue == "ADD" {
		return RefineModeAdd
	} else if normalizedValue == "REPLACE" {
		return RefineModeReplace
	}
	return ""
}

func ParseCompression(value string) (Compression, error) {
	switch Compression(strings.ToLower(strings.TrimSpace(value))) {
	case CompressionNone:
		return CompressionNone, nil
	case CompressionGzip:
		return CompressionGzip, nil
	case CompressionZstd:
		return CompressionZstd, nil
	}
	return CompressionNone, fmt.Errorf("%w: unsupported compression %q, must be one of [gzip|zstd]", ErrConfiguration, value)
}

// An optional column of the geometry table. Present is resolved once from the configured name.
type OptionalColumn struct {
	Name    string
	Present bool
}

func NewOptionalColumn(name string) OptionalColumn {
	name = strings.TrimSpace(name)
	return OptionalColumn{Name: name, Present: name != ""}
}

// Columns of the geometry table
type ColumnConfig struct {
	Geometry   string
	ID         string
	TileID     string
	Color      OptionalColumn // array of hex colors, one for the whole feature or one per face
	Attributes OptionalColumn // array of attribute values, only the first is written to the batch table
	Lod        OptionalColumn
}

type TableConfig struct {
	Geometry string
	Quadtree string
	Leaves   string
}

// Contains the options needed for the tiling process
type TilerOptions struct {
	Command    string
	Dialect    string  // postgis or sqlite
	Connection string  // connection string or sqlite file
	Srid       int     // EPSG code of the input geometries, 0 for a plain translation transform
	ZOffset    float64 // Z Offset in meters to apply to the geometries
	Tables     TableConfig
	Columns    ColumnConfig
	RefineMode RefineMode // Refine mode to use to generate the tileset

	TilerIndexOptions  *TilerIndexOptions
	TilerVerifyOptions *TilerVerifyOptions
}

type TilerIndexOptions struct {
	Output          string    // Output Cesium Tileset folder
	GeometricErrors []float64 // Geometric errors, coarsest first, as given by the user
	MaxThreads      int       // -1 selects the number of cpus
	MaxTriangles    int       // tiles with more triangles are skipped, 0 means no limit
	SkipTiles       bool      // do not rewrite tiles already present in the output
	Compression     Compression
}

type TilerVerifyOptions struct {
	Input     string // folder containing the tileset.json to verify
	Output    string // folder where to write the cleaned tileset.json, defaults to Input
	Threshold float64
	DryRun    bool
}

// ParseGeometricErrors parses a comma separated list of numbers such as "500,0"
func ParseGeometricErrors(value string) ([]float64, error) {
	var errs []float64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := decimal.NewFromString(part)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid geometric error %q", ErrConfiguration, part)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("%w: negative geometric error %q", ErrConfiguration, part)
		}
		f, _ := d.Float64()
		errs = append(errs, f)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no geometric errors in %q", ErrConfiguration, value)
	}
	return errs, nil
}

// ResolveGeometricErrors checks the user geometric errors against the lod levels of the geometry table.
// Without lod column there is a single level and exactly two errors are expected (level and leaves).
// With a lod column the errors are recomputed from the first one when too few are given.
func ResolveGeometricErrors(geometricErrors []float64, lods []int, lodColumnPresent bool) ([]float64, error) {
	if len(geometricErrors) == 0 {
		return nil, fmt.Errorf("%w: no geometric errors", ErrConfiguration)
	}
	if !lodColumnPresent {
		if len(geometricErrors) != len(lods)+1 {
			return nil, fmt.Errorf("%w: %d geometric errors given for lod levels %v, expected %d", ErrConfiguration, len(geometricErrors), lods, len(lods)+1)
		}
		return geometricErrors, nil
	}
	if len(lods) >= len(geometricErrors) {
		return tileset.GetGeometricErrors(geometricErrors[0], lods), nil
	}
	return geometricErrors, nil
}

// EffectiveThreads returns the number of workers to start
func (opt *TilerIndexOptions) EffectiveThreads() int {
	if opt.MaxThreads <= 0 {
		return runtime.NumCPU()
	}
	return opt.MaxThreads
}

// SridChecker tells whether geometries in the given srid can be placed on the globe
type SridChecker interface {
	IsSupportedSrid(srid int) bool
}

// Validate reports every configuration problem at once. srids may be nil for commands
// that do not read geometries.
func (opt *TilerOptions) Validate(srids SridChecker) error {
	var problems []string
	switch opt.Command {
	case "index":
		problems = opt.validateIndex(srids)
	case "verify":
		if opt.TilerVerifyOptions == nil || opt.TilerVerifyOptions.Input == "" {
			problems = append(problems, "input folder is required")
		} else if opt.TilerVerifyOptions.Threshold <= 0 {
			problems = append(problems, "threshold must be positive")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown command %q", opt.Command))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrConfiguration, strings.Join(problems, ", "))
	}
	return nil
}

func (opt *TilerOptions) validateIndex(srids SridChecker) []string {
	var problems []string
	if srids != nil && !srids.IsSupportedSrid(opt.Srid) {
		problems = append(problems, fmt.Sprintf("unsupported srid %d", opt.Srid))
	}
	if opt.Dialect != DialectPostgis && opt.Dialect != DialectSqlite {
		problems = append(problems, fmt.Sprintf("dialect should be either %s or %s", DialectPostgis, DialectSqlite))
	}
	if opt.Connection == "" {
		problems = append(problems, "connection is required")
	}
	if opt.RefineMode == "" {
		problems = append(problems, "refine-mode should be either ADD or REPLACE")
	}
	if opt.Tables.Geometry == "" || opt.Tables.Quadtree == "" || opt.Tables.Leaves == "" {
		problems = append(problems, "geometry, quadtree and leaves tables are required")
	}
	if opt.Columns.Geometry == "" || opt.Columns.ID == "" || opt.Columns.TileID == "" {
		problems = append(problems, "geometry, id and tile id columns are required")
	}

	index := opt.TilerIndexOptions
	if index == nil {
		return append(problems, "missing index options")
	}
	if index.Output == "" {
		problems = append(problems, "output folder is required")
	}
	if len(index.GeometricErrors) == 0 {
		problems = append(problems, "geometric errors are required")
	}
	if index.MaxThreads == 0 || index.MaxThreads < -1 {
		problems = append(problems, "maxthreads must be positive or -1")
	}
	if index.MaxTriangles < 0 {
		problems = append(problems, "maxtriangles cannot be negative")
	}
	if _, err := ParseCompression(string(index.Compression)); err != nil {
		problems = append(problems, fmt.Sprintf("unsupported compression %q", index.Compression))
	}
	return problems
}
