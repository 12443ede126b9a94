// meshbatch re-optimizes every .mpk container in a directory using a worker
// pool and writes a manifest.json summary next to the output files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"meshprep/internal/batch"
	"meshprep/internal/config"
	"meshprep/internal/logger"

	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML config file")
	in := flag.String("in", "", "Input directory of .mpk files")
	out := flag.String("out", "", "Output directory (default: input directory)")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	threshold := flag.Float64("threshold", 0, "Overdraw ACMR degradation budget (default: 1.05)")
	noProgress := flag.Bool("no-progress", false, "Disable the progress bar")
	flag.Parse()

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	cfg.Resolve(config.Flags{
		InputDir:  *in,
		OutputDir: *out,
		Threshold: float32(*threshold),
		Workers:   *workers,
	})

	if cfg.InputDir == "" {
		fmt.Fprintln(os.Stderr, "Error: no input directory. Use -in or a config file.")
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	files, err := batch.ListInputs(cfg.InputDir)
	if err != nil {
		logger.Fatal("listing inputs", zap.Error(err))
	}
	if len(files) == 0 {
		fmt.Println("No .mpk files to process.")
		return
	}

	logger.Info("batch start",
		zap.Int("files", len(files)),
		zap.Int("workers", cfg.Workers),
		zap.String("input", cfg.InputDir),
		zap.String("output", cfg.OutputDir))

	start := time.Now()
	results := batch.Run(batch.Config{
		InputDir:          cfg.InputDir,
		OutputDir:         cfg.OutputDir,
		CacheSize:         cfg.CacheSize,
		OverdrawThreshold: cfg.OverdrawThreshold,
		Workers:           cfg.Workers,
		Progress:          !*noProgress,
	}, files)

	ok := 0
	for _, r := range results {
		if r.Success {
			ok++
			continue
		}
		logger.Warn("file failed", zap.String("name", r.Name), zap.String("error", r.Error))
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		logger.Fatal("writing manifest", zap.Error(err))
	}

	logger.Info("batch done",
		zap.Int("ok", ok),
		zap.Int("failed", len(results)-ok),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("manifest", manifestPath))
}
