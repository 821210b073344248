package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/breakout/market"
	"github.com/rustyeddy/breakout/signal"
)

// Result is an immutable snapshot of one backtest run: the parameters it
// was computed with and the metric set derived from its trades.
type Result struct {
	Symbol   string
	Interval string
	Lookback int
	Filter   string // empty when no entry filter was applied

	Start time.Time
	End   time.Time

	TradeCount       int
	ProfitFactor     Stat
	CumulativeReturn Stat
	MaxDrawdown      Stat
	Sortino          Stat
	WinRate          Stat
	AvgTradeReturn   Stat

	Trades []Trade
}

// Run generates the signal for the series, extracts trades and reduces
// them to a Result. Everything is recomputed from scratch; there is no
// incremental state to carry between runs.
func Run(s *market.Series, lookback int, filter signal.Filter) (Result, error) {
	sig, err := signal.Generate(s, lookback, filter)
	if err != nil {
		return Result{}, err
	}

	trades, err := ExtractTrades(s, sig)
	if err != nil {
		return Result{}, err
	}

	r := Result{
		Symbol:   s.Symbol,
		Interval: s.Interval,
		Lookback: lookback,
		Trades:   trades,
	}
	if filter != nil {
		r.Filter = filter.Name()
	}
	if s.Len() > 0 {
		r.Start = s.At(0).Time
		r.End = s.At(s.Len() - 1).Time
	}

	returns := Returns(trades)
	r.TradeCount = len(trades)
	r.ProfitFactor = ProfitFactor(returns)
	r.CumulativeReturn = CumulativeReturn(returns)
	r.MaxDrawdown = MaxDrawdown(returns)
	r.Sortino = SortinoRatio(returns, 0)
	r.WinRate = WinRate(returns)
	r.AvgTradeReturn = AvgReturn(returns)

	return r, nil
}

// Print writes a human-readable report for one run.
func Print(w io.Writer, r Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Symbol:        %s\n", r.Symbol)
	fmt.Fprintf(w, "Interval:      %s\n", r.Interval)
	fmt.Fprintf(w, "Lookback:      %d\n", r.Lookback)
	if r.Filter != "" {
		fmt.Fprintf(w, "Entry Filter:  %s\n", r.Filter)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.TradeCount)
	fmt.Fprintf(w, "Profit Factor: %s\n", r.ProfitFactor)
	fmt.Fprintf(w, "Cum. Return:   %s\n", r.CumulativeReturn)
	fmt.Fprintf(w, "Max Drawdown:  %s\n", r.MaxDrawdown)
	fmt.Fprintf(w, "Sortino:       %s\n", r.Sortino)
	fmt.Fprintf(w, "Win Rate:      %s\n", r.WinRate)
	fmt.Fprintf(w, "Avg Trade:     %s\n", r.AvgTradeReturn)

	fmt.Fprintln(w)
}
