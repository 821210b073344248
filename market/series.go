package market

import (
	"fmt"
)

// Series is an ordered run of candles for a single symbol and interval.
// Timestamps are strictly increasing with no duplicates; NewSeries rejects
// anything else. Once built the series is read-only: accessors hand out
// copies and nothing here mutates the underlying slice.
type Series struct {
	Symbol   string
	Interval string

	candles []Candle
}

// NewSeries validates and wraps a candle slice. The input is copied, so the
// caller may reuse its slice afterwards. An empty slice is allowed; callers
// that need history decide for themselves how much is enough.
func NewSeries(symbol, interval string, candles []Candle) (*Series, error) {
	for i := 1; i < len(candles); i++ {
		if !candles[i].Time.After(candles[i-1].Time) {
			return nil, fmt.Errorf("candle %d at %s is not after candle %d at %s",
				i, candles[i].Time.Format("2006-01-02 15:04:05"),
				i-1, candles[i-1].Time.Format("2006-01-02 15:04:05"))
		}
	}

	cp := make([]Candle, len(candles))
	copy(cp, candles)

	return &Series{
		Symbol:   symbol,
		Interval: interval,
		candles:  cp,
	}, nil
}

// Len returns the number of candles in the series.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.candles)
}

// At returns the candle at index i. Panics on out-of-range like a slice
// would; indexes always come from iterating 0..Len().
func (s *Series) At(i int) Candle {
	return s.candles[i]
}

// Last returns the most recent candle and whether one exists.
func (s *Series) Last() (Candle, bool) {
	if s.Len() == 0 {
		return Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// Closes returns a copy of the close prices in bar order.
func (s *Series) Closes() []float64 {
	closes := make([]float64, s.Len())
	for i, c := range s.candles {
		closes[i] = c.Close
	}
	return closes
}
