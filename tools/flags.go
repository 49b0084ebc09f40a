package tools

import (
	"flag"
	"fmt"
	"sort"

	"github.com/golang/glog"

	"github.com/ecopia-map/quadtree_tiler/internal/tiler"
)

const (
	CommandIndex  = "index"
	CommandVerify = "verify"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type DatabaseFlags struct {
	Dialect          *string `json:"dialect"`
	Connection       *string `json:"-"`
	Table            *string `json:"table"`
	QtTable          *string `json:"qttable"`
	LeavesTable      *string `json:"leavestable"`
	GeometryColumn   *string `json:"column"`
	IdColumn         *string `json:"idcolumn"`
	TileIdColumn     *string `json:"tileidcolumn"`
	ColorColumn      *string `json:"roofcolorcolumn"`
	AttributesColumn *string `json:"attributescolumn"`
	LodColumn        *string `json:"lodcolumn"`
}

type FlagsForCommandIndex struct {
	DatabaseFlags
	Output          *string  `json:"output"`
	GeometricErrors *string  `json:"geometricerrors"`
	RefineMode      *string  `json:"refine"`
	Srid            *int     `json:"srid"`
	ZOffset         *float64 `json:"zoffset"`
	MaxThreads      *int     `json:"maxthreads"`
	MaxTriangles    *int     `json:"maxtriangles"`
	SkipTiles       *bool    `json:"skiptiles"`
	Compression     *string  `json:"compression"`
	Config          *string  `json:"config"`
	Silent          *bool    `json:"silent"`
	LogTimestamp    *bool    `json:"timestamp"`
	Help            *bool    `json:"help"`
}

type FlagsForCommandVerify struct {
	Input        *string  `json:"input"`
	Output       *string  `json:"output"`
	Threshold    *float64 `json:"threshold"`
	DryRun       *bool    `json:"dryrun"`
	Silent       *bool    `json:"silent"`
	LogTimestamp *bool    `json:"timestamp"`
	Help         *bool    `json:"help"`
}

// the "v" shorthand is left to the glog verbosity flag
func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "", false, "Displays the version of the tiler.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func NewFlagSetForCommandIndex() (*flag.FlagSet, *FlagsForCommandIndex) {
	flagCommand := flag.NewFlagSet("command-index", flag.ExitOnError)

	flags := &FlagsForCommandIndex{
		DatabaseFlags: DatabaseFlags{
			Dialect:          defineStringFlagCommand(flagCommand, "dialect", "", tiler.DialectPostgis, "Database dialect, can be 'postgis' or 'sqlite'."),
			Connection:       defineStringFlagCommand(flagCommand, "connection", "", "", "Connection string of the database, or path of the sqlite file."),
			Table:            defineStringFlagCommand(flagCommand, "table", "t", "", "Geometry table, include the database schema if needed."),
			QtTable:          defineStringFlagCommand(flagCommand, "qttable", "", "", "Pre-defined quadtree full table."),
			LeavesTable:      defineStringFlagCommand(flagCommand, "leavestable", "", "", "Pre-defined quadtree leaves table."),
			GeometryColumn:   defineStringFlagCommand(flagCommand, "column", "c", "geom", "Geometry column."),
			IdColumn:         defineStringFlagCommand(flagCommand, "idcolumn", "i", "id", "Id column."),
			TileIdColumn:     defineStringFlagCommand(flagCommand, "tileidcolumn", "", "tile_id", "Tile id column."),
			ColorColumn:      defineStringFlagCommand(flagCommand, "roofcolorcolumn", "r", "", "Color column, array of hex colors."),
			AttributesColumn: defineStringFlagCommand(flagCommand, "attributescolumn", "a", "", "Attributes column, written to the batch table."),
			LodColumn:        defineStringFlagCommand(flagCommand, "lodcolumn", "l", "", "LOD column."),
		},
		Output:          defineStringFlagCommand(flagCommand, "output", "o", "./output", "Specifies the output folder where to write the tileset data."),
		GeometricErrors: defineStringFlagCommand(flagCommand, "geometricerrors", "g", "500,0", "Comma separated geometric errors, coarsest first."),
		RefineMode:      defineStringFlagCommand(flagCommand, "refine", "", "REPLACE", "Type of refine mode, can be 'ADD' or 'REPLACE'."),
		Srid:            defineIntFlagCommand(flagCommand, "srid", "e", 0, "EPSG srid code of the geometries. 0 keeps the tileset in the database frame with a plain translation."),
		ZOffset:         defineFloat64FlagCommand(flagCommand, "zoffset", "z", 0, "Vertical offset to apply to the geometries, in meters."),
		MaxThreads:      defineIntFlagCommand(flagCommand, "maxthreads", "", -1, "The maximum number of threads to use, -1 uses all the cpus."),
		MaxTriangles:    defineIntFlagCommand(flagCommand, "maxtriangles", "", 0, "Tiles with more triangles are skipped and reported, 0 disables the limit."),
		SkipTiles:       defineBoolFlagCommand(flagCommand, "skiptiles", "", false, "Skip creation of existing tiles."),
		Compression:     defineStringFlagCommand(flagCommand, "compression", "", "", "Tiles compression type, can be 'gzip' or 'zstd'."),
		Config:          defineStringFlagCommand(flagCommand, "config", "", "", "Yaml file with default values for the flags of this command."),
		Silent:          defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages."),
		LogTimestamp:    defineBoolFlagCommand(flagCommand, "timestamp", "", false, "Adds timestamp to log messages."),
		Help:            defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help."),
	}
	return flagCommand, flags
}

func ParseFlagsForCommandIndex(args []string) (*FlagsForCommandIndex, error) {
	flagCommand, flags := NewFlagSetForCommandIndex()
	if err := flagCommand.Parse(args); err != nil {
		return nil, err
	}
	if *flags.Config != "" {
		if err := applyConfigFile(flagCommand, *flags.Config); err != nil {
			return nil, err
		}
	}
	glog.Infoln(FmtJSONString(flags))
	return flags, nil
}

func NewFlagSetForCommandVerify() (*flag.FlagSet, *FlagsForCommandVerify) {
	flagCommand := flag.NewFlagSet("command-verify", flag.ExitOnError)

	flags := &FlagsForCommandVerify{
		Input:        defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the folder containing the tileset.json to verify."),
		Output:       defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the folder where to write the fixed tileset.json, defaults to the input folder."),
		Threshold:    defineFloat64FlagCommand(flagCommand, "threshold", "", 1e6, "Bounding box values above this threshold mark a tile as invalid."),
		DryRun:       defineBoolFlagCommand(flagCommand, "dryrun", "", false, "Only reports the problems, the tileset is not rewritten."),
		Silent:       defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages."),
		LogTimestamp: defineBoolFlagCommand(flagCommand, "timestamp", "", false, "Adds timestamp to log messages."),
		Help:         defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help."),
	}
	return flagCommand, flags
}

func ParseFlagsForCommandVerify(args []string) (*FlagsForCommandVerify, error) {
	flagCommand, flags := NewFlagSetForCommandVerify()
	if err := flagCommand.Parse(args); err != nil {
		return nil, err
	}
	glog.Infoln(FmtJSONString(flags))
	return flags, nil
}

// applyConfigFile sets the flags found in the config file, unless they were given on the command line.
// A flag and its shorthand share the same value, so either of them counts as given.
func applyConfigFile(flagCommand *flag.FlagSet, path string) error {
	values, err := tiler.LoadConfigFile(path)
	if err != nil {
		return err
	}

	given := make(map[flag.Value]bool)
	flagCommand.Visit(func(f *flag.Flag) {
		given[f.Value] = true
	})

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		f := flagCommand.Lookup(key)
		if f == nil || key == "config" {
			return fmt.Errorf("%w: unknown config key %q", tiler.ErrConfiguration, key)
		}
		if given[f.Value] {
			continue
		}
		if err := flagCommand.Set(key, values[key]); err != nil {
			return fmt.Errorf("%w: config key %q: %v", tiler.ErrConfiguration, key, err)
		}
	}
	return nil
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
