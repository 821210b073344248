package backtest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCumulativeReturn_RoundTrip(t *testing.T) {
	returns := []float64{0.10, -0.05, 0.20}

	// Compounded directly: 1.10 * 0.95 * 1.20 - 1 = 0.254.
	got := CumulativeReturn(returns)
	require.True(t, got.Defined)
	require.InDelta(t, 0.254, got.Value, 1e-12)

	// The step-by-step curve must land on the same number.
	equity := 1.0
	for _, r := range returns {
		equity *= 1 + r
	}
	require.InDelta(t, equity-1, got.Value, 1e-12)

	require.False(t, CumulativeReturn(nil).Defined)
}

func TestMaxDrawdown(t *testing.T) {
	// Equity: 1.10, 0.88, 1.056. Peak 1.10, trough 0.88,
	// drawdown = (0.88 - 1.10) / 1.10 = -0.2.
	got := MaxDrawdown([]float64{0.10, -0.20, 0.20})
	require.True(t, got.Defined)
	require.InDelta(t, -0.2, got.Value, 1e-12)

	// All winners never draw down.
	got = MaxDrawdown([]float64{0.10, 0.05})
	require.True(t, got.Defined)
	require.Equal(t, 0.0, got.Value)

	// Always <= 0 regardless of the sequence.
	seqs := [][]float64{
		{-0.5}, {0.3, -0.3, 0.3}, {0.01, 0.02, -0.5, 1.2},
	}
	for _, seq := range seqs {
		dd := MaxDrawdown(seq)
		require.True(t, dd.Defined)
		require.LessOrEqual(t, dd.Value, 0.0)
	}

	// Empty list is undefined, not zero.
	require.False(t, MaxDrawdown(nil).Defined)
}

func TestSortinoRatio(t *testing.T) {
	// Fewer than two returns: undefined.
	require.False(t, SortinoRatio([]float64{0.1}, 0).Defined)

	// No downside observations: infinite, not an error.
	got := SortinoRatio([]float64{0.1, 0.2, 0.05}, 0)
	require.True(t, got.Defined)
	require.True(t, got.Infinite)

	// A single downside return has no sample deviation: undefined.
	require.False(t, SortinoRatio([]float64{0.1, -0.05, 0.2}, 0).Defined)

	// Two identical downside returns: zero variance, undefined.
	require.False(t, SortinoRatio([]float64{0.1, -0.05, -0.05}, 0).Defined)

	// Proper case: returns {0.10, -0.02, -0.06}.
	// mean = 0.02/3, downside {-0.02, -0.06}: mean -0.04,
	// sample variance = ((0.02)^2 + (0.02)^2)/1 = 0.0008,
	// deviation = 0.0282843, ratio = 0.0066667 / 0.0282843 = 0.2357.
	got = SortinoRatio([]float64{0.10, -0.02, -0.06}, 0)
	require.True(t, got.Defined)
	require.False(t, got.Infinite)
	require.InDelta(t, 0.2357, got.Value, 1e-4)
}

func TestProfitFactor(t *testing.T) {
	require.False(t, ProfitFactor(nil).Defined)

	// No losers: infinite.
	got := ProfitFactor([]float64{0.1, 0.2})
	require.True(t, got.Infinite)

	// gains 0.3, losses 0.15 -> 2.0.
	got = ProfitFactor([]float64{0.1, 0.2, -0.05, -0.10})
	require.True(t, got.Defined)
	require.InDelta(t, 2.0, got.Value, 1e-12)
}

func TestWinRateAndAvg(t *testing.T) {
	require.False(t, WinRate(nil).Defined)
	require.False(t, AvgReturn(nil).Defined)

	returns := []float64{0.1, -0.05, 0.2, -0.01}

	wr := WinRate(returns)
	require.True(t, wr.Defined)
	require.InDelta(t, 0.5, wr.Value, 1e-12)

	avg := AvgReturn(returns)
	require.True(t, avg.Defined)
	require.InDelta(t, 0.06, avg.Value, 1e-12)
}

func TestStatString(t *testing.T) {
	require.Equal(t, "n/a", Stat{}.String())
	require.Equal(t, "inf", Stat{Defined: true, Infinite: true}.String())
	require.Equal(t, "1.2500", statOf(1.25).String())
}
