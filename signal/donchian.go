package signal

import (
	"fmt"

	"github.com/rustyeddy/breakout/market"
)

// Position signal values. The strategy is long/flat only; there is no
// short side.
const (
	Flat = 0
	Long = 1
)

// Channel returns the Donchian bounds for bar i: the highest and lowest
// close over the lookback-1 bars immediately before i (the current bar is
// excluded). ok is false until a full window of prior closes exists.
func Channel(closes []float64, lookback, i int) (upper, lower float64, ok bool) {
	window := lookback - 1
	if window < 1 || i < window || i >= len(closes) {
		return 0, 0, false
	}

	upper = closes[i-window]
	lower = upper
	for _, c := range closes[i-window+1 : i] {
		if c > upper {
			upper = c
		}
		if c < lower {
			lower = c
		}
	}
	return upper, lower, true
}

// Generate turns a candle series into a per-bar position signal.
//
// A bar flips the signal to Long when its close breaks above the channel
// upper bound (and the filter, when given, passes at that bar), and back to
// Flat when its close breaks below the lower bound. Exits ignore the
// filter. Every other bar carries the previous value forward, starting
// from Flat, so the output always has one value per candle and contains
// only Flat/Long.
//
// A lookback larger than the series simply never resolves a channel and
// yields an all-flat signal; short history is a state, not an error.
func Generate(s *market.Series, lookback int, filter Filter) ([]int, error) {
	if s.Len() == 0 {
		return nil, fmt.Errorf("signal: empty candle series")
	}
	if lookback < 2 {
		return nil, fmt.Errorf("signal: lookback must be >= 2, got %d", lookback)
	}

	closes := s.Closes()
	out := make([]int, len(closes))

	last := Flat
	for i := range closes {
		upper, lower, ok := Channel(closes, lookback, i)
		if ok {
			switch {
			case closes[i] > upper && (filter == nil || filter.Passes(closes, i)):
				last = Long
			case closes[i] < lower:
				last = Flat
			}
		}
		out[i] = last
	}
	return out, nil
}
