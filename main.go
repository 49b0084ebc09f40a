/*
 * This file is part of the Go Cesium Point Cloud Tiler distribution (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/ecopia-map/quadtree_tiler/internal/tiler"
	"github.com/ecopia-map/quadtree_tiler/pkg"
	"github.com/ecopia-map/quadtree_tiler/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/quadtree_tiler/tools"
)

const VERSION = "1.0.0"

const logo = `
 quadtree_tiler
 A quadtree 3D Tiles (b3dm) generator written in golang
 Copyright YYYY - Ecopia Map
`

func main() {
	flagsGlobal := tools.ParseFlagsGlobal()
	defer glog.Flush()

	if *flagsGlobal.Version {
		printVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 || *flagsGlobal.Help {
		showHelp()
		if len(args) == 0 && !*flagsGlobal.Help {
			glog.Fatal("Please specify a subcommand [index|verify].")
		}
		return
	}
	cmd, args := args[0], args[1:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cmd {
	case tools.CommandIndex:
		mainCommandIndex(ctx, args)
	case tools.CommandVerify:
		mainCommandVerify(ctx, args)
	default:
		glog.Fatalf("Unrecognized command [%q]. Command must be one of [index|verify]", cmd)
	}
}

func mainCommandIndex(ctx context.Context, args []string) {
	// Retrieve command line args
	flags, err := tools.ParseFlagsForCommandIndex(args)
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}

	// Prints the command line flag description
	if *flags.Help {
		showCommandHelp(tools.NewFlagSetForCommandIndex())
		return
	}

	// set logging and timestamp logging
	setupLogger(*flags.Silent, *flags.LogTimestamp)

	geometricErrors, err := tiler.ParseGeometricErrors(*flags.GeometricErrors)
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}
	compression, err := tiler.ParseCompression(*flags.Compression)
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}

	// Put args inside a TilerOptions struct
	opts := tiler.TilerOptions{
		Command:    tools.CommandIndex,
		Dialect:    strings.ToLower(*flags.Dialect),
		Connection: *flags.Connection,
		Srid:       *flags.Srid,
		ZOffset:    *flags.ZOffset,
		Tables: tiler.TableConfig{
			Geometry: *flags.Table,
			Quadtree: *flags.QtTable,
			Leaves:   *flags.LeavesTable,
		},
		Columns: tiler.ColumnConfig{
			Geometry:   *flags.GeometryColumn,
			ID:         *flags.IdColumn,
			TileID:     *flags.TileIdColumn,
			Color:      tiler.NewOptionalColumn(*flags.ColorColumn),
			Attributes: tiler.NewOptionalColumn(*flags.AttributesColumn),
			Lod:        tiler.NewOptionalColumn(*flags.LodColumn),
		},
		RefineMode: tiler.ParseRefineMode(*flags.RefineMode),
		TilerIndexOptions: &tiler.TilerIndexOptions{
			Output:          *flags.Output,
			GeometricErrors: geometricErrors,
			MaxThreads:      *flags.MaxThreads,
			MaxTriangles:    *flags.MaxTriangles,
			SkipTiles:       *flags.SkipTiles,
			Compression:     compression,
		},
	}

	algorithmManager := std_algorithm_manager.NewAlgorithmManager(&opts)

	// Validate TilerOptions
	if err := opts.Validate(algorithmManager.GetCoordinateConverterAlgorithm()); err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}

	// Starts the tiler
	defer timeTrack(time.Now(), "tiler")
	err = pkg.NewTiler(algorithmManager).RunTiler(ctx, &opts)

	if err != nil {
		glog.Fatal("Error while tiling: ", err)
	} else {
		tools.LogOutput("Conversion Completed")
	}
}

func mainCommandVerify(ctx context.Context, args []string) {
	flags, err := tools.ParseFlagsForCommandVerify(args)
	if err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}

	if *flags.Help {
		showCommandHelp(tools.NewFlagSetForCommandVerify())
		return
	}

	setupLogger(*flags.Silent, *flags.LogTimestamp)

	opts := tiler.TilerOptions{
		Command: tools.CommandVerify,
		TilerVerifyOptions: &tiler.TilerVerifyOptions{
			Input:     *flags.Input,
			Output:    *flags.Output,
			Threshold: *flags.Threshold,
			DryRun:    *flags.DryRun,
		},
	}

	if err := opts.Validate(nil); err != nil {
		glog.Fatal("Error parsing input parameters: ", err)
	}

	defer timeTrack(time.Now(), "verify")
	if err := pkg.NewTilerVerify().RunTiler(ctx, &opts); err != nil {
		glog.Fatal("Error while verifying: ", err)
	} else {
		tools.LogOutput("Verification Completed")
	}
}

func setupLogger(silent bool, timestamp bool) {
	if silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if !timestamp {
		tools.DisableLoggerTimestamp()
	}
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("quadtree_tiler reads a quadtree partitioned 3D geometry table and writes a 3D Tiles tileset of b3dm tiles consumable by Cesium.js")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Subcommands: index, verify. Use <subcommand> -help for their flags.")
	fmt.Println("Global flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func showCommandHelp(flagCommand *flag.FlagSet, _ interface{}) {
	flagCommand.SetOutput(os.Stdout)
	flagCommand.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
