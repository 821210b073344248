package backtest

import (
	"fmt"

	"github.com/rustyeddy/breakout/market"
	"github.com/rustyeddy/breakout/signal"
)

// Optimize runs the backtest for every candidate lookback and returns the
// best result. Profit factor decides, cumulative return breaks ties; a
// candidate that never traded has no metrics and cannot win. The computed
// metrics are authoritative here - there is no fallback to canned numbers.
func Optimize(s *market.Series, lookbacks []int, filter signal.Filter) (Result, error) {
	if len(lookbacks) == 0 {
		return Result{}, fmt.Errorf("backtest: no lookbacks to optimize over")
	}

	var (
		best  Result
		found bool
	)
	for _, lookback := range lookbacks {
		r, err := Run(s, lookback, filter)
		if err != nil {
			return Result{}, fmt.Errorf("lookback %d: %w", lookback, err)
		}
		if r.TradeCount == 0 {
			continue
		}
		if !found || better(r, best) {
			best = r
			found = true
		}
	}

	if !found {
		return Result{}, fmt.Errorf("backtest: no lookback in %v produced any trades", lookbacks)
	}
	return best, nil
}

// better reports whether a beats b, first on profit factor, then on
// cumulative return. An infinite profit factor beats any finite one.
func better(a, b Result) bool {
	if c := compareStats(a.ProfitFactor, b.ProfitFactor); c != 0 {
		return c > 0
	}
	return compareStats(a.CumulativeReturn, b.CumulativeReturn) > 0
}

func compareStats(a, b Stat) int {
	switch {
	case !a.Defined && !b.Defined:
		return 0
	case !a.Defined:
		return -1
	case !b.Defined:
		return 1
	case a.Infinite && b.Infinite:
		return 0
	case a.Infinite:
		return 1
	case b.Infinite:
		return -1
	case a.Value > b.Value:
		return 1
	case a.Value < b.Value:
		return -1
	default:
		return 0
	}
}
