package runner

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// statusSpec pushes a holdings snapshot four times a day regardless of
// the candle interval.
const statusSpec = "1 0,6,12,18 * * *"

// orderSpec checks orders still resting on the book every ten minutes.
const orderSpec = "*/10 * * * *"

// cycleSpec maps a candle interval to the cron expression of its cycle
// runs. Cycles fire two minutes after the candle closes so the exchange
// has published the final bar by the time it is fetched.
func cycleSpec(interval string) (string, error) {
	switch interval {
	case "day":
		return "2 9 * * *", nil // Upbit daily candles roll over at 09:00 KST
	case "week":
		return "2 9 * * 1", nil
	case "month":
		return "2 9 1 * *", nil
	}

	unit, err := strconv.Atoi(strings.TrimPrefix(interval, "minute"))
	if !strings.HasPrefix(interval, "minute") || err != nil || unit <= 0 {
		return "", fmt.Errorf("no schedule for interval %q", interval)
	}
	switch {
	case unit%60 == 0 && 24%(unit/60) == 0:
		step := unit / 60
		if step == 1 {
			return "2 * * * *", nil
		}
		// Upbit candle boundaries anchor at the 09:00 KST daily rollover,
		// so the run hours are those congruent to 9 modulo the step. Every
		// hour in the day with a candle close gets a run, hour 0 included.
		hours := make([]string, 0, 24/step)
		for h := 9 % step; h < 24; h += step {
			hours = append(hours, strconv.Itoa(h))
		}
		return fmt.Sprintf("2 %s * * *", strings.Join(hours, ",")), nil
	case 60%unit == 0:
		return fmt.Sprintf("2/%d * * * *", unit), nil
	default:
		return "@every " + (time.Duration(unit) * time.Minute).String(), nil
	}
}

// Schedule registers the trading cycle and the periodic status snapshot
// on a cron runner. Cycles are serialized: a run still in flight when the
// next tick arrives causes that tick to be skipped, never queued.
func (r *Runner) Schedule(ctx context.Context) (*cron.Cron, error) {
	spec, err := cycleSpec(r.params.Interval)
	if err != nil {
		return nil, err
	}

	clog := cronLogger{r.log}
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(clog),
		cron.Recover(clog),
	))

	if _, err := c.AddFunc(spec, func() {
		if cerr := r.Cycle(ctx); cerr != nil {
			r.log.Error("cycle failed", zap.Error(cerr))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule cycle: %w", err)
	}
	if _, err := c.AddFunc(statusSpec, func() {
		if serr := r.SendStatus(ctx); serr != nil {
			r.log.Error("status push failed", zap.Error(serr))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule status: %w", err)
	}
	if _, err := c.AddFunc(orderSpec, func() {
		if oerr := r.CheckOrders(ctx); oerr != nil {
			r.log.Error("order check failed", zap.Error(oerr))
		}
	}); err != nil {
		return nil, fmt.Errorf("schedule order check: %w", err)
	}

	r.log.Info("scheduled",
		zap.String("interval", r.params.Interval),
		zap.String("cycle_spec", spec),
		zap.String("status_spec", statusSpec),
	)
	return c, nil
}

// cronLogger adapts zap to cron's logger interface.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Sugar().Infow("cron: "+msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Sugar().Errorw("cron: "+msg, append(kv, "error", err)...)
}
