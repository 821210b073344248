package signal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSMAFilter(t *testing.T) {
	closes := []float64{10, 20, 30, 40, 50}
	f := SMAFilter{Lookback: 3}

	// Not enough history yet.
	require.False(t, f.Passes(closes, 1))

	// i=2: sma(10,20,30)=20, close 30 > 20.
	require.True(t, f.Passes(closes, 2))

	// Close below its average fails.
	falling := []float64{50, 40, 30}
	require.False(t, f.Passes(falling, 2)) // sma=40, close 30
}

func TestRunsZ(t *testing.T) {
	// Three up moves then three down moves: signs +++---.
	// pos=3 neg=3 runs=2, mean = 2*3*3/6 + 1 = 4,
	// variance = (4-1)*(4-2)/5 = 1.2, z = (2-4)/sqrt(1.2) = -1.8257.
	trending := []float64{10, 11, 12, 13, 12, 11, 10}
	z, ok := runsZ(trending, 6, 6)
	require.True(t, ok)
	require.InDelta(t, -1.8257, z, 1e-4)

	// Alternating up/down has the maximum number of runs: +-+-+-,
	// runs=6, z = (6-4)/sqrt(1.2) = +1.8257.
	choppy := []float64{10, 11, 10, 11, 10, 11, 10}
	z, ok = runsZ(choppy, 6, 6)
	require.True(t, ok)
	require.InDelta(t, 1.8257, z, 1e-4)

	// Monotone closes have a single sign; the test degenerates.
	mono := []float64{10, 11, 12, 13, 14, 15, 16}
	_, ok = runsZ(mono, 6, 6)
	require.False(t, ok)

	// Window not complete yet.
	_, ok = runsZ(trending, 6, 5)
	require.False(t, ok)
}

func TestRunsFilter(t *testing.T) {
	trending := []float64{10, 11, 12, 13, 12, 11, 10}
	choppy := []float64{10, 11, 10, 11, 10, 11, 10}

	f := RunsFilter{Lookback: 6, Threshold: 1.5}
	require.True(t, f.Passes(trending, 6))
	require.False(t, f.Passes(choppy, 6))

	// A stricter threshold rejects the same trend.
	strict := RunsFilter{Lookback: 6, Threshold: 2.0}
	require.False(t, strict.Passes(trending, 6))
}
