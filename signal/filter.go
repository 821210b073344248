package signal

import "math"

// Filter is an optional gate applied to breakout entries. Exits are never
// filtered: a position is always allowed to close.
//
// Passes is called with the full close series and the index of the bar
// being evaluated; implementations look only backwards from i. A filter
// that cannot resolve yet (not enough history) must return false, which
// simply postpones the first entry.
type Filter interface {
	Name() string
	Passes(closes []float64, i int) bool
}

// SMAFilter admits entries only when the close sits above its simple
// moving average, biasing breakouts toward an established uptrend.
type SMAFilter struct {
	Lookback int // window length, current bar included
}

func (f SMAFilter) Name() string { return "sma" }

func (f SMAFilter) Passes(closes []float64, i int) bool {
	if f.Lookback < 1 || i < f.Lookback-1 {
		return false
	}
	sum := 0.0
	for _, c := range closes[i-f.Lookback+1 : i+1] {
		sum += c
	}
	return closes[i] > sum/float64(f.Lookback)
}

// RunsFilter gates entries on a Wald-Wolfowitz runs test over the signs of
// close-to-close changes in a rolling window. A trending series has fewer
// runs than chance predicts, so its z-score goes negative; the filter
// passes when the z-score is at or below -Threshold.
type RunsFilter struct {
	Lookback  int     // number of close changes examined
	Threshold float64 // required magnitude of the negative z-score
}

func (f RunsFilter) Name() string { return "runs" }

func (f RunsFilter) Passes(closes []float64, i int) bool {
	z, ok := runsZ(closes, f.Lookback, i)
	return ok && z <= -f.Threshold
}

// runsZ computes the runs-test z-score over the signs of the last lookback
// close changes ending at bar i. Flat changes carry no direction and are
// dropped. ok is false when the window is incomplete, all remaining signs
// agree, or the variance degenerates.
func runsZ(closes []float64, lookback, i int) (float64, bool) {
	if lookback < 2 || i < lookback || i >= len(closes) {
		return 0, false
	}

	signs := make([]int, 0, lookback)
	for j := i - lookback + 1; j <= i; j++ {
		switch d := closes[j] - closes[j-1]; {
		case d > 0:
			signs = append(signs, +1)
		case d < 0:
			signs = append(signs, -1)
		}
	}
	if len(signs) < 2 {
		return 0, false
	}

	var pos, neg int
	runs := 1
	for k, s := range signs {
		if s > 0 {
			pos++
		} else {
			neg++
		}
		if k > 0 && s != signs[k-1] {
			runs++
		}
	}
	if pos == 0 || neg == 0 {
		return 0, false
	}

	n := float64(pos + neg)
	mean := 2*float64(pos)*float64(neg)/n + 1
	variance := (mean - 1) * (mean - 2) / (n - 1)
	if variance <= 0 {
		return 0, false
	}

	return (float64(runs) - mean) / math.Sqrt(variance), true
}
