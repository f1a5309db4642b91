// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command meshsmooth loads a triangle mesh, builds its vertex adjacency and
// runs the init and smoothing kernels on a compute device, printing the
// timing of every dispatch.
//
// Usage:
//
//	meshsmooth [flags] [mesh.obj]
//
// Exit status is 0 when the run completes, 1 when it fails or times out
// and 2 on usage errors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gogpu/meshsmooth"
	"github.com/gogpu/meshsmooth/compute"
	"github.com/gogpu/meshsmooth/mesh"
)

// Exit codes.
const (
	exitOK    = 0
	exitRun   = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cli holds the flags that are not part of meshsmooth.Config.
type cli struct {
	configPath    string
	dumpAdjacency bool
	watch         bool
	verbose       bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, opts, err := parseArgs(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stderr, "meshsmooth: %v\n", err)
		}
		return exitUsage
	}

	logger := newLogger(stderr, cfg.LogLevel, opts.verbose)
	meshsmooth.SetLogger(slog.New(logger))
	defer meshsmooth.SetLogger(nil)

	src, err := cfg.Mesh.Source()
	if err != nil {
		fmt.Fprintf(stderr, "meshsmooth: %v\n", err)
		return exitUsage
	}

	dev, err := openDevice(cfg)
	if err != nil {
		logger.Error("no compute device", "err", err)
		return exitRun
	}
	defer dev.Destroy()
	logger.Info("device ready", "name", dev.Info().Name, "backend", dev.Info().Backend)

	code := runOnce(ctx, dev, src, cfg, opts, stdout, stderr)
	if !opts.watch {
		return code
	}
	if cfg.Mesh.Path == "" {
		logger.Warn("-watch needs a mesh file; not watching")
		return code
	}

	err = watch(ctx, cfg.Mesh.Path, func() {
		code = runOnce(ctx, dev, src, cfg, opts, stdout, stderr)
	})
	if err != nil {
		logger.Error("watch failed", "err", err)
		return exitRun
	}
	return code
}

// parseArgs reads the config file, if any, then applies explicitly set
// flags on top of it.
func parseArgs(args []string, stderr io.Writer) (meshsmooth.Config, cli, error) {
	var opts cli
	fs := flag.NewFlagSet("meshsmooth", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: meshsmooth [flags] [mesh.obj]")
		fs.PrintDefaults()
	}

	def := meshsmooth.DefaultConfig()
	var (
		device    = fs.String("device", def.Device, "compute device: auto, cpu or gpu")
		passes    = fs.Int("passes", def.Passes, "smoothing passes after init")
		lambda    = fs.Float64("lambda", float64(def.Lambda), "smoothing step in [0, 1]")
		timeout   = fs.Duration("timeout", 0, "bound on the final wait; 0 waits forever")
		readback  = fs.Bool("readback", false, "read the final positions back to the host")
		workers   = fs.Int("workers", 0, "cpu device workers; 0 uses GOMAXPROCS")
		primitive = fs.String("primitive", "", "generate a mesh instead of loading one: sphere or box")
		size      = fs.Float64("size", 1, "primitive size")
		cells     = fs.Int("cells", 0, "primitive marching cubes resolution")
	)
	fs.StringVar(&opts.configPath, "config", "", "TOML config file")
	fs.BoolVar(&opts.dumpAdjacency, "dump-adjacency", false, "print every vertex's neighbors")
	fs.BoolVar(&opts.watch, "watch", false, "re-run whenever the mesh file changes")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return meshsmooth.Config{}, opts, err
	}
	if fs.NArg() > 1 {
		return meshsmooth.Config{}, opts, fmt.Errorf("want at most one mesh file, got %d", fs.NArg())
	}

	cfg := def
	if opts.configPath != "" {
		var err error
		if cfg, err = meshsmooth.LoadConfig(opts.configPath); err != nil {
			return meshsmooth.Config{}, opts, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Device = *device
		case "passes":
			cfg.Passes = *passes
		case "lambda":
			cfg.Lambda = float32(*lambda)
		case "timeout":
			cfg.WaitTimeout = meshsmooth.Duration(*timeout)
		case "readback":
			cfg.Readback = *readback
		case "workers":
			cfg.Workers = *workers
		case "primitive":
			cfg.Mesh.Primitive = *primitive
		case "size":
			cfg.Mesh.Size = *size
		case "cells":
			cfg.Mesh.Cells = *cells
		}
	})
	if fs.NArg() == 1 {
		cfg.Mesh.Path = fs.Arg(0)
	}
	if opts.verbose {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return meshsmooth.Config{}, opts, err
	}
	return cfg, opts, nil
}

// newLogger returns a charmbracelet logger used as the slog handler.
func newLogger(w io.Writer, level string, verbose bool) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		ReportCaller:    verbose,
		TimeFormat:      time.RFC3339,
		Prefix:          "meshsmooth",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	l.SetLevel(lvl)
	return l
}

// runOnce executes one pipeline run and prints its report.
func runOnce(ctx context.Context, dev compute.Device, src mesh.Source, cfg meshsmooth.Config, opts cli, stdout, stderr io.Writer) int {
	p := meshsmooth.NewPipeline(dev, src, meshsmooth.WithConfig(cfg))
	report, err := p.Run(ctx)
	if err != nil {
		var se *meshsmooth.StageError
		if errors.As(err, &se) {
			fmt.Fprintf(stderr, "meshsmooth: %s while entering %s: %v\n", p.State(), se.Stage, se.Err)
		} else {
			fmt.Fprintf(stderr, "meshsmooth: %v\n", err)
		}
		return exitRun
	}

	fmt.Fprintln(stdout, report)
	if opts.dumpAdjacency {
		if err := p.Mesh().Adjacency.Dump(stdout); err != nil {
			fmt.Fprintf(stderr, "meshsmooth: dump adjacency: %v\n", err)
			return exitRun
		}
	}
	return exitOK
}
