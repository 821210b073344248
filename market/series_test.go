package market

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func bar(t time.Time, close float64) Candle {
	return Candle{Time: t, Open: close, High: close, Low: close, Close: close}
}

func TestNewSeries_OrderEnforced(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := NewSeries("KRW-BTC", "minute240", []Candle{
		bar(t0, 100),
		bar(t0.Add(4*time.Hour), 101),
		bar(t0.Add(8*time.Hour), 102),
	})
	require.NoError(t, err)

	// Duplicate timestamp.
	_, err = NewSeries("KRW-BTC", "minute240", []Candle{
		bar(t0, 100),
		bar(t0, 101),
	})
	require.Error(t, err)

	// Out of order.
	_, err = NewSeries("KRW-BTC", "minute240", []Candle{
		bar(t0.Add(4*time.Hour), 100),
		bar(t0, 101),
	})
	require.Error(t, err)
}

func TestSeries_Accessors(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []Candle{
		bar(t0, 100),
		bar(t0.Add(4*time.Hour), 105),
	}

	s, err := NewSeries("KRW-BTC", "minute240", in)
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())

	last, ok := s.Last()
	require.True(t, ok)
	require.Equal(t, 105.0, last.Close)

	closes := s.Closes()
	require.Equal(t, []float64{100, 105}, closes)

	// Mutating the returned slice must not touch the series.
	closes[0] = 0
	require.Equal(t, 100.0, s.At(0).Close)

	// Mutating the input slice must not either.
	in[1].Close = 0
	require.Equal(t, 105.0, s.At(1).Close)

	var empty *Series
	require.Equal(t, 0, empty.Len())
}

func TestReadCSV(t *testing.T) {
	data := strings.Join([]string{
		"time,open,high,low,close,volume",
		"2025-01-01T00:00:00Z,100,110,90,105,12.5",
		"2025-01-01T04:00:00Z,105,115,100,110,8.25",
	}, "\n")

	candles, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	require.Equal(t, 105.0, candles[0].Close)
	require.Equal(t, 8.25, candles[1].Volume)

	// Garbage after the header is an error, not a skip.
	_, err = ReadCSV(strings.NewReader("time,open,high,low,close,volume\nnot-a-time,1,2,3,4,5"))
	require.Error(t, err)
}
