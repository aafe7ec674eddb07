package exporter

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"breadthcli/internal/breadth"
)

const (
	summarySheet = "Summary"
	seriesSheet  = "Series"
)

// ExportSummaryWorkbook writes the latest analysis result plus the
// windowed series to an Excel workbook at outputPath.
func (d *DailyExporter) ExportSummaryWorkbook(result breadth.AnalysisResult, window []breadth.Observation, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}

	summaryRows := [][]interface{}{
		{"Analysis date", result.Date.Format("2006-01-02")},
		{"Total instruments", result.TotalInstruments},
		{"Rise ratio (%)", result.RiseRatio},
		{"Activity level", result.ActivityLevel},
		{"Limit-up count", result.LimitUpCount},
		{"Sentiment", result.Sentiment.String()},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("summary cell name: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	if _, err := f.NewSheet(seriesSheet); err != nil {
		return fmt.Errorf("create series sheet: %w", err)
	}

	sorted := make([]breadth.Observation, len(window))
	copy(sorted, window)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	header := []interface{}{"Date", "Item", "Value"}
	if err := f.SetSheetRow(seriesSheet, "A1", &header); err != nil {
		return fmt.Errorf("write series header: %w", err)
	}
	for i, o := range sorted {
		row := []interface{}{o.Date.Format("2006-01-02"), o.Item, o.Value}
		if o.Missing() {
			// Excel has no NaN; leave the cell empty for missing data.
			row[2] = ""
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("series cell name: %w", err)
		}
		if err := f.SetSheetRow(seriesSheet, cell, &row); err != nil {
			return fmt.Errorf("write series row: %w", err)
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	d.logger.Info("summary workbook written",
		"path", outputPath,
		"series_rows", len(sorted))
	return nil
}
