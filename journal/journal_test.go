package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/breakout/pkg/id"
)

func event(typ EventType) Event {
	return Event{
		ID:       id.New(),
		Time:     time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		Type:     typ,
		Symbol:   "KRW-BTC",
		Side:     "buy",
		Price:    140_718_000,
		Quantity: 0.0035,
		OrderID:  "uuid-1",
		Signal:   "Donchian(24) BUY",
		Note:     "limit buy with 50% of available KRW",
	}
}

func TestCSVJournal_AppendAndHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_log.csv")

	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(event(EventOrderAttempt)))
	require.NoError(t, j.Record(event(EventOrderPlaced)))
	require.NoError(t, j.Close())

	// Reopening must append, not rewrite the header.
	j, err = NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(event(EventStatus)))
	require.NoError(t, j.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 3 events
	require.Equal(t, csvHeader, rows[0])
	require.Equal(t, "order_attempt", rows[1][2])
	require.Equal(t, "status", rows[3][2])
}

func TestSQLiteJournal_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)
	defer j.Close()

	placed := event(EventOrderPlaced)
	require.NoError(t, j.Record(placed))
	require.NoError(t, j.Record(event(EventOrderSkipped)))

	events, err := j.EventsSince(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, placed.ID, events[0].ID)
	require.Equal(t, EventOrderPlaced, events[0].Type)
	require.Equal(t, 0.0035, events[0].Quantity)

	// A cutoff after the events filters them out.
	events, err = j.EventsSince(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Empty(t, events)
}
