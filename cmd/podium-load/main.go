package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/okian/podium/internal/loadgen"
	"github.com/okian/podium/pkg/logger"
)

// Default configuration constants.
const (
	defaultSessions    = 8
	defaultIntents     = 200
	defaultRows        = 2000
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
	directoryPerm      = 0o750
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		sessions = flag.Int("sessions", defaultSessions, "Number of sessions to open")
		intents  = flag.Int("intents", defaultIntents, "Intents submitted per session")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed     = flag.Uint64("seed", 1, "Seed for generated rows and intents")
		csvPath  = flag.String("csv", "", "Write a synthetic results CSV to this path and exit")
		rows     = flag.Int("rows", defaultRows, "Rows written with -csv")
		verbose  = flag.Bool("verbose", false, "Log every failed request")
	)
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	if err := logger.Init(logger.WithLevel(level)); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	if *csvPath != "" {
		if err := writeDataset(*csvPath, *seed, *rows); err != nil {
			logger.Get().Error(ctx, "failed to write dataset", logger.Error(err))
			os.Exit(1)
		}
		logger.Get().Info(ctx, "dataset written", logger.String("path", *csvPath), logger.Int("rows", *rows))
		return
	}

	cfg := &loadgen.Config{
		BaseURL:  *baseURL,
		Sessions: *sessions,
		Intents:  *intents,
		Workers:  max(*workers, 1),
		Timeout:  *timeout,
		Seed:     *seed,
		Verbose:  *verbose,
	}
	if _, err := loadgen.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		os.Exit(1)
	}
}

func writeDataset(path string, seed uint64, n int) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPerm); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	if err := loadgen.WriteCSV(f, loadgen.GenerateRows(seed, n)); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
