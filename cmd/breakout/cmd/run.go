package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/breakout/config"
	"github.com/rustyeddy/breakout/exchange/upbit"
	"github.com/rustyeddy/breakout/journal"
	"github.com/rustyeddy/breakout/live"
	"github.com/rustyeddy/breakout/notify"
	"github.com/rustyeddy/breakout/pkg/logger"
	"github.com/rustyeddy/breakout/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live trading loop",
	Long: `Run starts the scheduled trading loop: fetch candles after each bar
closes, evaluate the breakout rule, and place at most one limit order per
cycle.

Exchange keys are read from UPBIT_ACCESS_KEY and UPBIT_SECRET_KEY (a .env
file in the working directory is honored). Slack notifications switch on
when SLACK_BOT_TOKEN and SLACK_CHANNEL_ID are present.

Example:
  breakout run --symbol KRW-BTC --params params.json --db breakout.sqlite`,
	RunE: runRun,
}

var (
	runSymbol     string
	runParamsPath string
	runDBPath     string
	runCSVPath    string
	runImmediate  bool
	runOnce       bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runSymbol, "symbol", "s", "KRW-BTC", "market code (QUOTE-BASE)")
	runCmd.Flags().StringVarP(&runParamsPath, "params", "p", "params.json", "path to the strategy parameter file")
	runCmd.Flags().StringVarP(&runDBPath, "db", "d", "breakout.sqlite", "path to the SQLite journal DB")
	runCmd.Flags().StringVar(&runCSVPath, "journal-csv", "", "journal to a CSV file instead of SQLite")
	runCmd.Flags().BoolVar(&runImmediate, "immediate", false, "run one cycle at startup instead of waiting for the schedule")
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run a single cycle and exit")
}

func runRun(cmd *cobra.Command, args []string) error {
	log, err := logger.New(logLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	r, jnl, err := buildRunner(log)
	if err != nil {
		return err
	}
	defer jnl.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if runOnce {
		return r.Cycle(ctx)
	}

	if runImmediate {
		if cerr := r.Cycle(ctx); cerr != nil {
			log.Error("startup cycle failed", zap.Error(cerr))
		}
	}

	c, err := r.Schedule(ctx)
	if err != nil {
		return err
	}
	if serr := r.SendStatus(ctx); serr != nil {
		log.Warn("startup status failed", zap.Error(serr))
	}

	c.Start()
	log.Info("trading loop started", zap.String("symbol", runSymbol))
	<-ctx.Done()

	log.Info("shutting down")
	<-c.Stop().Done()
	return nil
}

// buildRunner assembles the full live stack from flags and environment.
func buildRunner(log *zap.Logger) (*runner.Runner, journal.Journal, error) {
	creds := config.LoadCredentials()
	if err := creds.RequireExchange(); err != nil {
		return nil, nil, err
	}

	params := config.LoadParams(runParamsPath, log)
	log.Info("parameters loaded",
		zap.String("interval", params.Interval),
		zap.Int("lookback", params.DonchianLookback),
	)

	jnl, err := openJournal()
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}

	var notifier notify.Notifier = notify.Noop{}
	if creds.HasSlack() {
		notifier = notify.NewSlack(creds.SlackToken, creds.SlackChannel)
		log.Info("slack notifications enabled", zap.String("channel", creds.SlackChannel))
	}

	client := upbit.NewClient(creds.UpbitAccessKey, creds.UpbitSecretKey)
	executor := live.NewExecutor(live.DefaultConfig(runSymbol), client, jnl, log)

	return runner.New(runSymbol, params, client, executor, jnl, notifier, log), jnl, nil
}

func openJournal() (journal.Journal, error) {
	if runCSVPath != "" {
		return journal.NewCSV(runCSVPath)
	}
	return journal.NewSQLite(runDBPath)
}
