package backtest

import (
	"fmt"
	"math"
)

// Stat is a metric value that may be undefined (no data to compute it
// from) or infinite (no downside observations). Undefined is distinct
// from zero: a strategy that never traded did not "return 0%", it has no
// return at all, and consumers must treat the two differently.
type Stat struct {
	Value    float64
	Defined  bool
	Infinite bool
}

func statOf(v float64) Stat { return Stat{Value: v, Defined: true} }

var (
	undefined = Stat{}
	infinite  = Stat{Defined: true, Infinite: true}
)

// String renders the stat for reports: "n/a" when undefined, "inf" when
// infinite, otherwise four decimals.
func (s Stat) String() string {
	switch {
	case !s.Defined:
		return "n/a"
	case s.Infinite:
		return "inf"
	default:
		return fmt.Sprintf("%.4f", s.Value)
	}
}

// CumulativeReturn compounds the trade returns in entry order:
// product of (1+r) minus one.
func CumulativeReturn(returns []float64) Stat {
	if len(returns) == 0 {
		return undefined
	}
	acc := 1.0
	for _, r := range returns {
		acc *= 1 + r
	}
	return statOf(acc - 1)
}

// MaxDrawdown walks the compounded equity curve, tracks its running peak
// and returns the most negative peak-to-trough decline. The result is
// always <= 0 for a non-empty input.
func MaxDrawdown(returns []float64) Stat {
	if len(returns) == 0 {
		return undefined
	}

	equity := 1.0
	peak := math.Inf(-1)
	worst := 0.0
	for _, r := range returns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if dd := (equity - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return statOf(worst)
}

// SortinoRatio is the mean return over the sample deviation of returns
// below the target (default 0). No downside observations means no
// measurable downside risk, reported as infinite rather than an error;
// a single downside observation has no sample deviation and leaves the
// ratio undefined.
func SortinoRatio(returns []float64, target float64) Stat {
	if len(returns) < 2 {
		return undefined
	}

	var downside []float64
	mean := 0.0
	for _, r := range returns {
		mean += r
		if r < target {
			downside = append(downside, r)
		}
	}
	mean /= float64(len(returns))

	if len(downside) == 0 {
		return infinite
	}
	if len(downside) < 2 {
		return undefined
	}

	dmean := 0.0
	for _, r := range downside {
		dmean += r
	}
	dmean /= float64(len(downside))

	variance := 0.0
	for _, r := range downside {
		variance += (r - dmean) * (r - dmean)
	}
	variance /= float64(len(downside) - 1)

	if variance == 0 {
		return undefined
	}
	return statOf(mean / math.Sqrt(variance))
}

// ProfitFactor is gross gains over gross losses. With no losing trades
// there is nothing to divide by and the factor is infinite; with no
// trades at all it is undefined.
func ProfitFactor(returns []float64) Stat {
	if len(returns) == 0 {
		return undefined
	}

	var gains, losses float64
	for _, r := range returns {
		if r > 0 {
			gains += r
		} else {
			losses += -r
		}
	}
	if losses == 0 {
		return infinite
	}
	return statOf(gains / losses)
}

// WinRate is the fraction of trades with a strictly positive return.
func WinRate(returns []float64) Stat {
	if len(returns) == 0 {
		return undefined
	}
	wins := 0
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	return statOf(float64(wins) / float64(len(returns)))
}

// AvgReturn is the arithmetic mean of the trade returns.
func AvgReturn(returns []float64) Stat {
	if len(returns) == 0 {
		return undefined
	}
	sum := 0.0
	for _, r := range returns {
		sum += r
	}
	return statOf(sum / float64(len(returns)))
}
