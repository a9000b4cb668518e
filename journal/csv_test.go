package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCSV(t *testing.T) (*CSVJournal, string, string) {
	t.Helper()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	equityPath := filepath.Join(dir, "equity.csv")

	j, err := NewCSV(tradesPath, equityPath)
	require.NoError(t, err)

	return j, tradesPath, equityPath
}

func readCSVFile(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVHeadersWritten(t *testing.T) {
	t.Parallel()

	j, tradesPath, equityPath := newTestCSV(t)
	require.NoError(t, j.Close())

	trades := readCSVFile(t, tradesPath)
	require.Len(t, trades, 1)
	assert.Equal(t, "run_id", trades[0][0])
	assert.Equal(t, "exit_reason", trades[0][len(trades[0])-1])

	equity := readCSVFile(t, equityPath)
	require.Len(t, equity, 1)
	assert.Equal(t, []string{"run_id", "time", "cash", "unrealized", "total"}, equity[0])
}

func TestCSVRecordTrade(t *testing.T) {
	t.Parallel()

	j, tradesPath, _ := newTestCSV(t)

	require.NoError(t, j.RecordTrade(TradeRecord{
		RunID:      "run-1",
		Seq:        1,
		Instrument: "SPY",
		Direction:  "short",
		EntryTime:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ExitTime:   time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		EntryPrice: 100,
		ExitPrice:  95,
		Quantity:   40,
		GrossPL:    200,
		Commission: 7.8,
		NetPL:      192.2,
		ExitReason: "take_profit",
	}))
	require.NoError(t, j.Close())

	rows := readCSVFile(t, tradesPath)
	require.Len(t, rows, 2)

	row := rows[1]
	assert.Equal(t, "run-1", row[0])
	assert.Equal(t, "1", row[1])
	assert.Equal(t, "SPY", row[2])
	assert.Equal(t, "short", row[3])
	assert.Equal(t, "2024-01-01T00:00:00Z", row[4])
	assert.Equal(t, "192.200000", row[11])
	assert.Equal(t, "take_profit", row[12])
}

func TestCSVRecordEquity(t *testing.T) {
	t.Parallel()

	j, _, equityPath := newTestCSV(t)

	require.NoError(t, j.RecordEquity(EquityRecord{
		RunID:      "run-1",
		Time:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Cash:       100000,
		Unrealized: 50,
		Total:      100050,
	}))
	require.NoError(t, j.Close())

	rows := readCSVFile(t, equityPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "100050.000000", rows[1][4])
}

func TestCSVRecordRunIsNoOp(t *testing.T) {
	t.Parallel()

	j, _, _ := newTestCSV(t)
	assert.NoError(t, j.RecordRun(Run{RunID: "run-1"}))
	assert.NoError(t, j.Close())
}
