// model2js converts OBJ, glTF/GLB, Collada and FBX models into normalized
// mesh modules the wireframe viewer can load.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Ni-zav/formula/internal/config"
	"github.com/Ni-zav/formula/internal/convert"
	"github.com/Ni-zav/formula/internal/logger"
	"github.com/Ni-zav/formula/pkg/formats"
)

func main() {
	flag.Usage = printUsage
	config.ParseFlags()

	if path := config.SaveConfigPath(); path != "" {
		saveConfig(path)
		return
	}

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}
	input := args[0]

	if _, err := formats.FormatFromPath(input); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	res, err := convert.File(input, convert.Options{
		TargetSize: cfg.Convert.TargetSize,
		OutputDir:  cfg.Convert.OutputDir,
		AllowEmpty: cfg.Convert.AllowEmpty,
	})
	if err != nil {
		logger.Error("conversion failed", zap.String("input", input), zap.Error(err))
		if errors.Is(err, formats.ErrEmptyResult) {
			fmt.Fprintln(os.Stderr, "Error: no vertices found (set convert.allow_empty to write it anyway)")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}

	size := res.Original.Size()
	fmt.Printf("Input:    %s (%s)\n", res.Input, res.Format)
	fmt.Printf("Size:     %.4g x %.4g x %.4g\n", size[0], size[1], size[2])
	fmt.Printf("Scale:    %.6g\n", res.Scale)
	fmt.Printf("Vertices: %d\n", res.Vertices)
	fmt.Printf("Faces:    %d\n", res.Faces)
	fmt.Printf("Output:   %s\n", res.Output)
}

func saveConfig(path string) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.SaveTo(path); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Config written to %s\n", path)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `model2js - convert 3D models to wireframe mesh modules

Usage:
  model2js [flags] <input-file>

Supported formats:
  .obj .gltf .glb .dae .fbx (binary or ASCII)

Flags:
  -size <n>       Longest dimension after normalization (default 1.5)
  -out <dir>      Output directory (default: current directory)
  -config <path>  Config file
  -log <path>     Also write logs to a file
  -debug          Enable debug logging
  -save-config <path>  Write the effective config and exit

Examples:
  model2js cube.obj
  model2js -size 1 -out shapes ship.glb`)
}
