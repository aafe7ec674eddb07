package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Paths is the single source of truth for file locations. All relative
// configuration entries are resolved against the executable directory,
// never the current working directory, so the tool behaves the same
// wherever it is invoked from.
//
// Layout:
//
//	<exe dir>/
//	  ├── data/
//	  │   ├── market_breadth.csv   (canonical history log)
//	  │   └── reports/             (daily CSVs, charts, workbooks)
//	  └── logs/
type Paths struct {
	ExecutableDir string
	DataDir       string
	ReportsDir    string
	LogsDir       string

	// HistoryFile is the canonical append-only snapshot log. It is
	// addressed directly by this path; no directory scan is involved.
	HistoryFile string
}

// ResolvePaths builds the path set from configuration.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("resolve executable symlinks: %w", err)
	}
	exeDir := filepath.Dir(exe)

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(exeDir, p)
	}

	dataDir := resolve(cfg.DataDir)
	return &Paths{
		ExecutableDir: exeDir,
		DataDir:       dataDir,
		ReportsDir:    resolve(cfg.ReportsDir),
		LogsDir:       resolve(cfg.LogsDir),
		HistoryFile:   filepath.Join(dataDir, cfg.HistoryFile),
	}, nil
}

// EnsureDirectories creates the base directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.DataDir, p.ReportsDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetReportPath returns the full path for a report artifact.
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the full path for a log file.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetDailySnapshotPath returns the per-day snapshot CSV path for the
// given date. These files are export artifacts only; analysis always
// reads the canonical history log.
func (p *Paths) GetDailySnapshotPath(date time.Time) string {
	return p.GetReportPath(fmt.Sprintf("market_breadth_%s.csv", date.Format("2006_01_02")))
}

// GetTrendChartPath returns the trend image path, named
// deterministically from the window size.
func (p *Paths) GetTrendChartPath(windowDays int) string {
	return p.GetReportPath(fmt.Sprintf("market_breadth_trends_%ddays.png", windowDays))
}

// GetSummaryWorkbookPath returns the Excel summary workbook path.
func (p *Paths) GetSummaryWorkbookPath(windowDays int) string {
	return p.GetReportPath(fmt.Sprintf("market_breadth_summary_%ddays.xlsx", windowDays))
}
