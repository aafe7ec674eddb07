// Package exporter generates secondary report artifacts: per-day
// snapshot CSVs and the Excel summary workbook. These are outputs
// only; analysis always reads the canonical history log.
package exporter

import (
	"fmt"
	"log/slog"

	"breadthcli/internal/breadth"
	"breadthcli/internal/config"
)

// DailyExporter handles daily snapshot export.
type DailyExporter struct {
	paths     *config.Paths
	csvWriter *CSVWriter
	logger    *slog.Logger
}

// NewDailyExporter creates a new daily snapshot exporter.
func NewDailyExporter(paths *config.Paths, logger *slog.Logger) *DailyExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DailyExporter{
		paths:     paths,
		csvWriter: NewCSVWriter(logger),
		logger:    logger,
	}
}

// ExportDailySnapshot writes one day's stamped rows to a per-day CSV
// named from the snapshot date.
func (d *DailyExporter) ExportDailySnapshot(rows []breadth.SnapshotRow) (string, error) {
	if len(rows) == 0 {
		return "", fmt.Errorf("no rows to export")
	}

	filePath := d.paths.GetDailySnapshotPath(rows[0].Date)

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.Item,
			r.Value,
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Date.Format("2006-01-02"),
		})
	}

	headers := []string{"item", "value", "timestamp", "date"}
	if err := d.csvWriter.WriteSimpleCSV(filePath, headers, records); err != nil {
		return "", fmt.Errorf("write daily snapshot: %w", err)
	}
	return filePath, nil
}
