package backtest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_Snapshot(t *testing.T) {
	s := series(t, 100, 110, 120, 90, 95)

	r, err := Run(s, 3, nil)
	require.NoError(t, err)

	require.Equal(t, "KRW-BTC", r.Symbol)
	require.Equal(t, "minute240", r.Interval)
	require.Equal(t, 3, r.Lookback)
	require.Equal(t, 1, r.TradeCount)
	require.Equal(t, s.At(0).Time, r.Start)
	require.Equal(t, s.At(4).Time, r.End)

	// One losing trade: cumulative return matches the trade return,
	// win rate zero, profit factor defined at zero gains.
	require.InDelta(t, -0.25, r.CumulativeReturn.Value, 1e-12)
	require.Equal(t, 0.0, r.WinRate.Value)
	require.True(t, r.ProfitFactor.Defined)
	require.Equal(t, 0.0, r.ProfitFactor.Value)
}

func TestRun_NoTradesHasUndefinedMetrics(t *testing.T) {
	// Monotonically falling closes never break out.
	s := series(t, 100, 99, 98, 97, 96)

	r, err := Run(s, 3, nil)
	require.NoError(t, err)
	require.Equal(t, 0, r.TradeCount)
	require.False(t, r.ProfitFactor.Defined)
	require.False(t, r.CumulativeReturn.Defined)
	require.False(t, r.MaxDrawdown.Defined)
	require.False(t, r.WinRate.Defined)
}

func TestOptimize(t *testing.T) {
	s := series(t, 100, 101, 99, 103, 97, 105, 104, 110, 90, 120, 85, 130)

	best, err := Optimize(s, []int{2, 3, 4, 5}, nil)
	require.NoError(t, err)
	require.Contains(t, []int{2, 3, 4, 5}, best.Lookback)
	require.Positive(t, best.TradeCount)

	// The winner must not be beaten by any candidate it ran against.
	for _, lb := range []int{2, 3, 4, 5} {
		r, err := Run(s, lb, nil)
		require.NoError(t, err)
		if r.TradeCount == 0 {
			continue
		}
		require.False(t, better(r, best), "lookback %d beats reported best %d", lb, best.Lookback)
	}
}

func TestOptimize_NoTrades(t *testing.T) {
	s := series(t, 100, 99, 98, 97)

	_, err := Optimize(s, []int{3}, nil)
	require.Error(t, err)

	_, err = Optimize(s, nil, nil)
	require.Error(t, err)
}

func TestCompareStats(t *testing.T) {
	require.Equal(t, 1, compareStats(infinite, statOf(100)))
	require.Equal(t, -1, compareStats(undefined, statOf(-5)))
	require.Equal(t, 0, compareStats(infinite, infinite))
	require.Equal(t, 1, compareStats(statOf(2), statOf(1)))
}

func TestPrint(t *testing.T) {
	s := series(t, 100, 110, 120, 90, 95)
	r, err := Run(s, 3, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	Print(&buf, r)

	out := buf.String()
	require.Contains(t, out, "Backtest Result")
	require.Contains(t, out, "Symbol:        KRW-BTC")
	require.Contains(t, out, "Trades:        1")
}
