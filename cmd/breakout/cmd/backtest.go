package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/breakout/backtest"
	"github.com/rustyeddy/breakout/config"
	"github.com/rustyeddy/breakout/exchange/upbit"
	"github.com/rustyeddy/breakout/market"
	"github.com/rustyeddy/breakout/signal"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest and optimize the Donchian breakout rule",
	Long: `Backtest runs the breakout rule over historical candles for every
candidate lookback and reports the best one by profit factor.

Candles come from the exchange's public API by default (up to 200 bars),
or from a CSV file for longer histories.

Examples:
  breakout backtest --symbol KRW-BTC --interval minute240 --lookbacks 4-40
  breakout backtest --csv data/krw-btc-240.csv --lookbacks 4,8,12,24 --save params.json`,
	RunE: runBacktestCmd,
}

var (
	btSymbol        string
	btInterval      string
	btCSVPath       string
	btCount         int
	btLookbacks     string
	btFilter        string
	btSMALookback   int
	btRunsLookback  int
	btRunsThreshold float64
	btSavePath      string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "s", "KRW-BTC", "market code (QUOTE-BASE)")
	backtestCmd.Flags().StringVarP(&btInterval, "interval", "i", config.DefaultInterval, "candle interval (minuteN, day, week, month)")
	backtestCmd.Flags().StringVar(&btCSVPath, "csv", "", "load candles from CSV instead of the exchange")
	backtestCmd.Flags().IntVar(&btCount, "count", 200, "number of candles to fetch from the exchange (max 200)")
	backtestCmd.Flags().StringVarP(&btLookbacks, "lookbacks", "l", "4-40", "lookbacks to try: a range like 4-40 or a list like 4,8,12")

	backtestCmd.Flags().StringVar(&btFilter, "filter", "none", "entry filter (none, sma, runs)")
	backtestCmd.Flags().IntVar(&btSMALookback, "sma-lookback", 20, "sma filter: moving average window")
	backtestCmd.Flags().IntVar(&btRunsLookback, "runs-lookback", 20, "runs filter: number of close changes examined")
	backtestCmd.Flags().Float64Var(&btRunsThreshold, "runs-threshold", 1.64, "runs filter: required z-score magnitude")

	backtestCmd.Flags().StringVar(&btSavePath, "save", "", "write the winning parameters to this file")
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	series, err := loadSeries()
	if err != nil {
		return err
	}

	lookbacks, err := parseLookbacks(btLookbacks)
	if err != nil {
		return fmt.Errorf("lookbacks: %w", err)
	}

	filter, err := filterFromFlags()
	if err != nil {
		return err
	}

	fmt.Printf("Optimizing over %d candles, lookbacks %s\n\n", series.Len(), btLookbacks)

	best, err := backtest.Optimize(series, lookbacks, filter)
	if err != nil {
		return err
	}
	backtest.Print(os.Stdout, best)

	if btSavePath == "" {
		return nil
	}
	params := config.Params{
		Interval:         series.Interval,
		DonchianLookback: best.Lookback,
		Backtest: &config.BacktestSummary{
			ProfitFactor:     statValue(best.ProfitFactor),
			CumulativeReturn: statValue(best.CumulativeReturn),
			MaxDrawdown:      statValue(best.MaxDrawdown),
			Sortino:          statValue(best.Sortino),
			WinRate:          statValue(best.WinRate),
			AvgTrade:         statValue(best.AvgTradeReturn),
			Trades:           best.TradeCount,
		},
	}
	if err := config.SaveParams(btSavePath, params); err != nil {
		return fmt.Errorf("save params: %w", err)
	}
	fmt.Printf("Saved parameters to %s\n", btSavePath)
	return nil
}

func loadSeries() (*market.Series, error) {
	if btCSVPath != "" {
		s, err := market.LoadCSV(btCSVPath, btSymbol, btInterval)
		if err != nil {
			return nil, fmt.Errorf("load csv: %w", err)
		}
		return s, nil
	}

	// Candle history is public, no keys needed.
	client := upbit.NewClient("", "")
	s, err := client.Candles(context.Background(), btSymbol, btInterval, btCount)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	return s, nil
}

func filterFromFlags() (signal.Filter, error) {
	switch strings.ToLower(strings.TrimSpace(btFilter)) {
	case "", "none":
		return nil, nil
	case "sma":
		return signal.SMAFilter{Lookback: btSMALookback}, nil
	case "runs":
		return signal.RunsFilter{Lookback: btRunsLookback, Threshold: btRunsThreshold}, nil
	default:
		return nil, fmt.Errorf("unknown filter %q (supported: none, sma, runs)", btFilter)
	}
}

// parseLookbacks accepts "4-40" or "4,8,12,24".
func parseLookbacks(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("bad range start %q", lo)
		}
		end, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("bad range end %q", hi)
		}
		if start < 2 || end < start {
			return nil, fmt.Errorf("bad range %q (want LO-HI with LO >= 2)", s)
		}
		out := make([]int, 0, end-start+1)
		for n := start; n <= end; n++ {
			out = append(out, n)
		}
		return out, nil
	}

	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 2 {
			return nil, fmt.Errorf("bad lookback %q (want an integer >= 2)", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no lookbacks in %q", s)
	}
	return out, nil
}

// statValue flattens a Stat for the parameter file summary. Infinite
// profit factors have no finite representation; the summary stores 0 and
// the full report remains the source of truth.
func statValue(st backtest.Stat) float64 {
	if !st.Defined || st.Infinite {
		return 0
	}
	return st.Value
}
