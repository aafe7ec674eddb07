package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breadthcli/internal/breadth"
	pipeerrors "breadthcli/internal/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "market_breadth.csv")
	return New(path, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func sampleRows() []breadth.SnapshotRow {
	return []breadth.SnapshotRow{
		{Item: breadth.ItemAdvancing, Value: "3500"},
		{Item: breadth.ItemDeclining, Value: "1000"},
		{Item: breadth.ItemActivity, Value: "82.5%"},
	}
}

func TestStoreAppendAndLoad(t *testing.T) {
	s := newTestStore(t)
	fetchTime := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)

	require.NoError(t, s.Append(sampleRows(), fetchTime))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	wantDate := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	for _, r := range loaded {
		assert.Equal(t, wantDate, r.Date)
		assert.Equal(t, fetchTime, r.Timestamp)
	}
	assert.Equal(t, breadth.ItemAdvancing, loaded[0].Item)
	assert.Equal(t, "3500", loaded[0].Value)
	assert.Equal(t, "82.5%", loaded[2].Value)
}

func TestStoreLoadMissingFile(t *testing.T) {
	s := newTestStore(t)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestStoreAppendAssociativity(t *testing.T) {
	fetchTime := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)

	batchA := sampleRows()
	batchB := []breadth.SnapshotRow{
		{Item: breadth.ItemLimitUp, Value: "15"},
		{Item: breadth.ItemSuspended, Value: "50"},
	}

	// Appending A then B must equal appending A+B in one call.
	incremental := newTestStore(t)
	require.NoError(t, incremental.Append(batchA, fetchTime))
	require.NoError(t, incremental.Append(batchB, fetchTime))
	got, err := incremental.Load()
	require.NoError(t, err)

	oneShot := newTestStore(t)
	require.NoError(t, oneShot.Append(append(append([]breadth.SnapshotRow{}, batchA...), batchB...), fetchTime))
	want, err := oneShot.Load()
	require.NoError(t, err)

	assert.Equal(t, want, got)
	require.Len(t, got, 5)
	// Insertion order preserved across batches.
	assert.Equal(t, "3500", got[0].Value)
	assert.Equal(t, "50", got[4].Value)
}

func TestStoreRerunSameDayIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	morning := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	afternoon := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)

	require.NoError(t, s.Append(sampleRows(), morning))

	// Re-fetch later the same day with one changed value.
	update := sampleRows()
	update[0].Value = "3600"
	require.NoError(t, s.Append(update, afternoon))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 3, "(date, item) keys must not duplicate on re-run")

	// Last write wins, position preserved.
	assert.Equal(t, breadth.ItemAdvancing, loaded[0].Item)
	assert.Equal(t, "3600", loaded[0].Value)
	assert.Equal(t, afternoon, loaded[0].Timestamp)
}

func TestStoreKeepsDistinctDays(t *testing.T) {
	s := newTestStore(t)
	day1 := time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)

	require.NoError(t, s.Append(sampleRows(), day1))
	require.NoError(t, s.Append(sampleRows(), day2))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 6, "same items on different dates are distinct observations")
}

func TestStoreCorruptHistoryDegradesToFreshWrite(t *testing.T) {
	s := newTestStore(t)
	fetchTime := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)

	// An unreadable CSV (unbalanced quote) must not abort the write.
	require.NoError(t, os.WriteFile(s.Path(), []byte("item,value,timestamp,date\n\"broken\n"), 0644))

	require.NoError(t, s.Append(sampleRows(), fetchTime))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 3, "fresh-write semantics after merge failure")
}

func TestStoreLoadSkipsMalformedRows(t *testing.T) {
	s := newTestStore(t)
	fetchTime := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	require.NoError(t, s.Append(sampleRows(), fetchTime))

	// Append a row with a bad date by hand.
	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("停牌,50,2026-08-28 15:30:00,not-a-date\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 3, "malformed rows are skipped, not fatal")
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	fetchTime := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)

	rows := []breadth.SnapshotRow{
		{Item: breadth.ItemActivity, Value: "82.5%"},
		{Item: breadth.ItemAdvancing, Value: "3500"},
		{Item: "统计日期", Value: "2026-08-28"},
	}
	require.NoError(t, s.Append(rows, fetchTime))

	before := breadth.Clean(stamp(rows, fetchTime))

	loaded, err := s.Load()
	require.NoError(t, err)
	after := breadth.Clean(loaded)

	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Date, after[i].Date)
		assert.Equal(t, before[i].Item, after[i].Item)
		if before[i].Missing() {
			assert.True(t, after[i].Missing())
		} else {
			assert.Equal(t, before[i].Value, after[i].Value)
		}
	}
}

func TestStoreWritesBOM(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(sampleRows(), time.Now()))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.Greater(t, len(data), 3)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
}

func TestStoreLoadUnreadable(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("item,\"oops\n"), 0644))

	_, err := s.Load()
	assert.ErrorIs(t, err, pipeerrors.ErrHistoryUnreadable)
}

func stamp(rows []breadth.SnapshotRow, fetchTime time.Time) []breadth.SnapshotRow {
	day := time.Date(fetchTime.Year(), fetchTime.Month(), fetchTime.Day(), 0, 0, 0, 0, fetchTime.Location())
	out := make([]breadth.SnapshotRow, len(rows))
	for i, r := range rows {
		r.Timestamp = fetchTime
		r.Date = day
		out[i] = r
	}
	return out
}
