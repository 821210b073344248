package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/breakout/market"
	"github.com/rustyeddy/breakout/signal"
)

// Trade is one completed round trip extracted from a position signal.
// EntryTime never exceeds ExitTime; a position still open when the series
// ends is closed at the final bar (mark-to-last), so every Trade is a
// complete record.
type Trade struct {
	EntryTime  time.Time
	EntryPrice float64
	ExitTime   time.Time
	ExitPrice  float64
	Return     float64 // (exit - entry) / entry
}

// ErrOverlappingTrade reports a second entry while a trade is already
// open. The signal's carry-forward semantics make this impossible for a
// well-formed series, so hitting it means a programming fault upstream,
// not a market condition.
var ErrOverlappingTrade = errors.New("backtest: entry while a trade is still open")

// ExtractTrades scans the signal once, left to right, as a Flat/Long state
// machine. A 0->1 transition opens a trade at that bar's close, a 1->0
// transition closes it, and each Long->Flat transition emits one Trade.
// Output is ordered by entry time.
func ExtractTrades(s *market.Series, sig []int) ([]Trade, error) {
	if s.Len() != len(sig) {
		return nil, fmt.Errorf("backtest: signal length %d does not match series length %d",
			len(sig), s.Len())
	}

	var (
		trades     []Trade
		inLong     bool
		entryTime  time.Time
		entryPrice float64
	)

	last := signal.Flat
	for i, cur := range sig {
		c := s.At(i)

		if cur == signal.Long && last != signal.Long {
			if inLong {
				return nil, ErrOverlappingTrade
			}
			inLong = true
			entryTime = c.Time
			entryPrice = c.Close
		}

		if cur == signal.Flat && last == signal.Long && inLong {
			trades = append(trades, newTrade(entryTime, entryPrice, c.Time, c.Close))
			inLong = false
		}

		last = cur
	}

	if inLong {
		// Series ended while long: close at the last available bar.
		c := s.At(s.Len() - 1)
		trades = append(trades, newTrade(entryTime, entryPrice, c.Time, c.Close))
	}

	return trades, nil
}

func newTrade(entryTime time.Time, entryPrice float64, exitTime time.Time, exitPrice float64) Trade {
	return Trade{
		EntryTime:  entryTime,
		EntryPrice: entryPrice,
		ExitTime:   exitTime,
		ExitPrice:  exitPrice,
		Return:     (exitPrice - entryPrice) / entryPrice,
	}
}

// Returns collects the per-trade returns in entry order.
func Returns(trades []Trade) []float64 {
	rs := make([]float64, len(trades))
	for i, t := range trades {
		rs[i] = t.Return
	}
	return rs
}
