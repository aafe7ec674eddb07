// Package app wires the pipeline: fetch, persist, window, render,
// classify, report. One synchronous cycle per invocation.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"breadthcli/internal/breadth"
	"breadthcli/internal/chart"
	"breadthcli/internal/config"
	pipeerrors "breadthcli/internal/errors"
	"breadthcli/internal/exporter"
	"breadthcli/internal/fetch"
	"breadthcli/internal/infrastructure"
	"breadthcli/internal/store"
)

// App owns the pipeline components for one run.
type App struct {
	cfg      *config.Config
	paths    *config.Paths
	client   *fetch.Client
	store    *store.Store
	exporter *exporter.DailyExporter
	renderer *chart.Renderer

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// New assembles the application from configuration.
func New(cfg *config.Config, paths *config.Paths, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:      cfg,
		paths:    paths,
		client:   fetch.NewClient(cfg.Source, logger),
		store:    store.New(paths.HistoryFile, logger),
		exporter: exporter.NewDailyExporter(paths, logger),
		renderer: chart.NewRenderer(logger),
		now:      time.Now,
	}
}

// Run executes one fetch-persist-analyze cycle. Every failure is
// handled at its boundary and reported as console text; the returned
// error is non-nil only when the run produced nothing at all.
func (a *App) Run(ctx context.Context) error {
	logger := infrastructure.LoggerWithContext(ctx)

	fmt.Println("Fetching market breadth data...")
	rows, err := a.client.FetchToday(ctx)
	if err != nil {
		// Source unavailable: halt the run with no partial write.
		fmt.Printf("Fetch failed: %v\n", err)
		logger.ErrorContext(ctx, "fetch failed", slog.Any("error", err))
		return pipeerrors.NewPipelineError("fetch", err)
	}
	fmt.Printf("Fetched %d indicator rows\n", len(rows))

	fetchTime := a.now()
	if err := a.store.Append(rows, fetchTime); err != nil {
		fmt.Printf("Persist failed: %v\n", err)
		logger.ErrorContext(ctx, "persist failed", slog.Any("error", err))
		return pipeerrors.NewPipelineError("persist", err)
	}
	fmt.Printf("History updated: %s\n", a.store.Path())

	history, err := a.store.Load()
	if err != nil {
		fmt.Printf("History unreadable: %v\n", err)
		logger.ErrorContext(ctx, "history unreadable", slog.Any("error", err))
		return pipeerrors.NewPipelineError("load", err)
	}

	// Daily snapshot CSV is a secondary artifact; its failure does not
	// end the run.
	if snapshotPath, err := a.exporter.ExportDailySnapshot(stampedRows(history, fetchTime)); err != nil {
		logger.WarnContext(ctx, "daily snapshot export failed", slog.Any("error", err))
	} else {
		fmt.Printf("Daily snapshot written: %s\n", snapshotPath)
	}

	windowDays := a.cfg.Analysis.WindowDays
	window, err := breadth.SelectWindow(breadth.Clean(history), fetchTime, windowDays)
	if errors.Is(err, pipeerrors.ErrInsufficientHistory) {
		fmt.Println("Not enough history for trend analysis; skipping chart and classification")
		logger.WarnContext(ctx, "insufficient history", slog.Int("window_days", windowDays))
		return nil
	}
	if err != nil {
		fmt.Printf("Window selection failed: %v\n", err)
		return pipeerrors.NewPipelineError("window", err)
	}

	chartPath := a.paths.GetTrendChartPath(windowDays)
	if err := a.renderer.RenderTrends(window, windowDays, chartPath); err != nil {
		fmt.Printf("Chart rendering failed: %v\n", err)
		logger.WarnContext(ctx, "chart rendering failed", slog.Any("error", err))
	} else {
		fmt.Printf("Trend chart written: %s\n", chartPath)
	}

	result := breadth.Classify(window)
	a.printAnalysis(result)

	workbookPath := a.paths.GetSummaryWorkbookPath(windowDays)
	if err := a.exporter.ExportSummaryWorkbook(result, window, workbookPath); err != nil {
		logger.WarnContext(ctx, "summary workbook export failed", slog.Any("error", err))
	} else {
		fmt.Printf("Summary workbook written: %s\n", workbookPath)
	}

	logger.InfoContext(ctx, "run completed",
		slog.String("date", result.Date.Format("2006-01-02")),
		slog.String("sentiment", result.Sentiment.String()),
		slog.Float64("rise_ratio", result.RiseRatio),
		slog.Int("limit_up_count", result.LimitUpCount))
	return nil
}

func (a *App) printAnalysis(result breadth.AnalysisResult) {
	fmt.Println()
	fmt.Println("=== Market sentiment analysis ===")
	fmt.Printf("Analysis date:     %s\n", result.Date.Format("2006-01-02"))
	fmt.Printf("Total instruments: %.0f\n", result.TotalInstruments)
	fmt.Printf("Rise ratio:        %.2f%%\n", result.RiseRatio)
	fmt.Printf("Activity level:    %.2f\n", result.ActivityLevel)
	fmt.Printf("Limit-up count:    %d\n", result.LimitUpCount)
	fmt.Printf("Sentiment:         %s\n", result.Sentiment)
}

// stampedRows selects the rows belonging to the fetch day from the
// merged history, so the daily CSV reflects post-dedup values.
func stampedRows(history []breadth.SnapshotRow, fetchTime time.Time) []breadth.SnapshotRow {
	day := fetchTime.Format("2006-01-02")
	var rows []breadth.SnapshotRow
	for _, r := range history {
		if r.Date.Format("2006-01-02") == day {
			rows = append(rows, r)
		}
	}
	return rows
}
