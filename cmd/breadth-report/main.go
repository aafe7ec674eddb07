package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"breadthcli/internal/app"
	"breadthcli/internal/config"
	"breadthcli/internal/infrastructure"
)

func main() {
	windowDays := flag.Int("window", 0, "override analysis window in days (defaults to configured value)")
	dataDir := flag.String("data", "", "override data directory; reports move beneath it unless configured elsewhere")
	flag.Parse()

	// Optional .env for local overrides; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyOverrides(*windowDays, *dataDir)

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		fmt.Printf("Error: failed to resolve paths: %v\n", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Printf("Error: failed to create directories: %v\n", err)
		os.Exit(1)
	}

	cfg.Logging.FilePath = paths.GetLogPath("breadth-report.log")
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Warning: failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.ContextWithRunID(context.Background())
	logger.InfoContext(ctx, "starting market breadth report",
		slog.Int("window_days", cfg.Analysis.WindowDays),
		slog.String("data_dir", paths.DataDir))

	if err := app.New(cfg, paths, logger).Run(ctx); err != nil {
		fmt.Println("Run finished with errors; see log for details")
		os.Exit(1)
	}
	fmt.Println("Done")
}
