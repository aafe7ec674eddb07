// Package store persists daily market-breadth snapshots as a single
// canonical append-only CSV log keyed by (date, item). The log is
// addressed directly by path; there is no filesystem scan or
// modification-time ordering involved in finding it.
package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"breadthcli/internal/breadth"
	pipeerrors "breadthcli/internal/errors"
)

// CSV layout of the history log.
var historyHeader = []string{"item", "value", "timestamp", "date"}

const (
	timestampLayout = "2006-01-02 15:04:05"
	dateLayout      = "2006-01-02"
)

// utf8BOM keeps the artifact readable in Excel, matching the rest of
// the toolchain's CSV output.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Store is the snapshot history store. A single canonical file holds
// the full time series; (date, item) is the logical unique key with
// last-write-wins semantics, so re-running the ingest within the same
// calendar day is idempotent.
type Store struct {
	path   string
	logger *slog.Logger
}

// New creates a store over the canonical history file at path.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the canonical history file location.
func (s *Store) Path() string {
	return s.path
}

// Append stamps every row with the fetch time and its calendar date,
// then merges the batch into the persisted history. Insertion order is
// the sort key: existing rows keep their positions, new (date, item)
// keys are appended after them, and a re-seen key overwrites its
// earlier value in place.
//
// If the existing history cannot be read, the error is reported and
// the write degrades to fresh-write semantics for the incoming batch;
// merge failure never aborts the write.
func (s *Store) Append(rows []breadth.SnapshotRow, fetchTime time.Time) error {
	stamped := make([]breadth.SnapshotRow, len(rows))
	day := time.Date(fetchTime.Year(), fetchTime.Month(), fetchTime.Day(), 0, 0, 0, 0, fetchTime.Location())
	for i, r := range rows {
		r.Timestamp = fetchTime
		r.Date = day
		stamped[i] = r
	}

	existing, err := s.Load()
	if err != nil {
		s.logger.Warn("history unreadable, degrading to fresh write",
			slog.String("path", s.path),
			slog.Any("error", err))
		existing = nil
	}

	merged := dedupe(append(existing, stamped...))

	if err := s.write(merged); err != nil {
		return fmt.Errorf("write history: %w", err)
	}

	s.logger.Info("history updated",
		slog.String("path", s.path),
		slog.Int("batch_rows", len(stamped)),
		slog.Int("total_rows", len(merged)))
	return nil
}

// Load reads the full persisted history in insertion order. A missing
// file is not an error; it yields an empty history. Malformed rows are
// logged and skipped rather than failing the load.
func (s *Store) Load() ([]breadth.SnapshotRow, error) {
	file, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeerrors.ErrHistoryUnreadable, err)
	}
	defer file.Close()

	reader := csv.NewReader(newBOMStripper(file))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeerrors.ErrHistoryUnreadable, err)
	}

	var rows []breadth.SnapshotRow
	for i, record := range records {
		if i == 0 && isHeader(record) {
			continue
		}
		row, err := parseRecord(record)
		if err != nil {
			s.logger.Warn("skipping malformed history row",
				slog.String("path", filepath.Base(s.path)),
				slog.Int("line", i+1),
				slog.Any("error", err))
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// write persists the full history atomically: the log is written to a
// temp file next to the target and renamed into place.
func (s *Store) write(rows []breadth.SnapshotRow) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "history-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(utf8BOM); err != nil {
		tmp.Close()
		return fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(tmp)
	if err := writer.Write(historyHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Item,
			r.Value,
			r.Timestamp.Format(timestampLayout),
			r.Date.Format(dateLayout),
		}
		if err := writer.Write(record); err != nil {
			tmp.Close()
			return fmt.Errorf("write record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

// dedupe enforces the (date, item) unique key with last-write-wins.
// The first occurrence of a key fixes its position; later occurrences
// replace the value in place so insertion order is stable across
// re-runs.
func dedupe(rows []breadth.SnapshotRow) []breadth.SnapshotRow {
	type key struct {
		date string
		item string
	}
	index := make(map[key]int, len(rows))
	out := make([]breadth.SnapshotRow, 0, len(rows))
	for _, r := range rows {
		k := key{date: r.Date.Format(dateLayout), item: r.Item}
		if i, seen := index[k]; seen {
			out[i] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

func parseRecord(record []string) (breadth.SnapshotRow, error) {
	if len(record) < 4 {
		return breadth.SnapshotRow{}, fmt.Errorf("expected at least 4 columns, got %d", len(record))
	}

	timestamp, err := time.Parse(timestampLayout, record[2])
	if err != nil {
		return breadth.SnapshotRow{}, fmt.Errorf("parse timestamp: %w", err)
	}
	date, err := time.Parse(dateLayout, record[3])
	if err != nil {
		return breadth.SnapshotRow{}, fmt.Errorf("parse date: %w", err)
	}

	return breadth.SnapshotRow{
		Item:      record[0],
		Value:     record[1],
		Timestamp: timestamp,
		Date:      date,
	}, nil
}

func isHeader(record []string) bool {
	return len(record) > 0 && record[0] == historyHeader[0]
}

// bomStripper removes a leading UTF-8 BOM from the wrapped reader.
type bomStripper struct {
	r       io.Reader
	checked bool
}

func newBOMStripper(r io.Reader) io.Reader {
	return &bomStripper{r: r}
}

func (b *bomStripper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head := make([]byte, len(utf8BOM))
		n, err := io.ReadFull(b.r, head)
		switch {
		case err == io.EOF || err == io.ErrUnexpectedEOF:
			b.r = bytes.NewReader(head[:n])
		case err != nil:
			return 0, err
		case !bytes.Equal(head, utf8BOM):
			b.r = io.MultiReader(bytes.NewReader(head), b.r)
		}
	}
	return b.r.Read(p)
}
