package runner

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/breakout/config"
	"github.com/rustyeddy/breakout/exchange"
	"github.com/rustyeddy/breakout/journal"
	"github.com/rustyeddy/breakout/live"
	"github.com/rustyeddy/breakout/notify"
	"github.com/rustyeddy/breakout/pkg/id"
)

// candleMargin is fetched on top of the lookback so late or missing bars
// at the exchange edge do not starve the decision.
const candleMargin = 5

// Runner drives one trading cycle end to end: fetch candles, decide,
// execute, journal, notify. It holds no state between cycles; every pass
// starts from fresh exchange data.
type Runner struct {
	symbol   string
	params   config.Params
	ex       exchange.Client
	executor *live.Executor
	journal  journal.Journal
	notifier notify.Notifier
	log      *zap.Logger
	now      func() time.Time
}

func New(symbol string, params config.Params, ex exchange.Client, executor *live.Executor, jnl journal.Journal, n notify.Notifier, log *zap.Logger) *Runner {
	if jnl == nil {
		jnl = journal.Noop{}
	}
	if n == nil {
		n = notify.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		symbol:   symbol,
		params:   params,
		ex:       ex,
		executor: executor,
		journal:  jnl,
		notifier: n,
		log:      log,
		now:      time.Now,
	}
}

// Cycle runs one evaluation and execution pass. A panic anywhere inside is
// recovered at this boundary and reported as a cycle error so the
// scheduler stays alive; the next cycle re-evaluates from scratch.
func (r *Runner) Cycle(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("cycle panic: %v", p)
			r.report("cycle panic", err)
		}
	}()

	r.snapshotBalances(ctx)

	lookback := r.params.DonchianLookback
	series, ferr := r.ex.Candles(ctx, r.symbol, r.params.Interval, lookback+1+candleMargin)
	if ferr != nil {
		err = fmt.Errorf("fetch candles: %w", ferr)
		r.report("candle data unavailable", err)
		return err
	}

	decision := live.Decide(series, lookback)
	reason := fmt.Sprintf("Donchian(%d) %s", lookback, decision)
	last, _ := series.Last()
	r.log.Info("decision",
		zap.String("symbol", r.symbol),
		zap.String("decision", decision.String()),
		zap.Float64("last_close", last.Close),
	)

	if decision == live.InsufficientData {
		// Not a hold: the exchange returned fewer bars than the channel
		// needs, so the cycle reports and places nothing.
		err = fmt.Errorf("insufficient candle data: have %d, need %d", series.Len(), lookback+1)
		r.report("insufficient candle data", err)
		return err
	}

	outcome, xerr := r.executor.Execute(ctx, decision, reason)
	if xerr != nil {
		err = fmt.Errorf("execute %s: %w", decision, xerr)
		r.report("order execution aborted", err)
		return err
	}

	r.recordOutcome(decision, reason, outcome)
	return nil
}

// snapshotBalances journals current holdings at the top of every cycle,
// before any trading, so the journal shows what the executor was about to
// trade on. A failed read is a warning here; the executor re-reads
// balances itself and aborts properly if they still cannot be fetched.
func (r *Runner) snapshotBalances(ctx context.Context) {
	balances, err := r.ex.Balances(ctx)
	if err != nil {
		r.log.Warn("balance snapshot failed", zap.Error(err))
		return
	}

	parts := make([]string, 0, len(balances))
	for cur, b := range balances {
		parts = append(parts, cur+" "+strconv.FormatFloat(b.Amount, 'f', -1, 64))
	}
	sort.Strings(parts)
	note := strings.Join(parts, ", ")
	if note == "" {
		note = "no holdings"
	}

	r.log.Info("balances", zap.String("holdings", note))
	ev := journal.Event{
		ID:     id.New(),
		Time:   r.now(),
		Type:   journal.EventStatus,
		Symbol: r.symbol,
		Note:   note,
	}
	if err := r.journal.Record(ev); err != nil {
		r.log.Warn("journal write failed", zap.Error(err))
	}
}

// recordOutcome journals the pass and pushes a notification for anything
// that touched the order book. Journal and notifier failures are logged
// and swallowed; bookkeeping must never fail a completed trade.
func (r *Runner) recordOutcome(d live.Decision, reason string, o live.Outcome) {
	if o.State == live.StateIdle {
		r.log.Debug("cycle idle", zap.String("decision", d.String()))
		return
	}

	ev := journal.Event{
		ID:     id.New(),
		Time:   r.now(),
		Symbol: r.symbol,
		Signal: reason,
	}
	switch o.State {
	case live.StatePlaced:
		ev.Type = journal.EventOrderPlaced
		ev.OrderID = o.OrderID
	case live.StateSkipped:
		ev.Type = journal.EventOrderSkipped
		ev.Note = o.Reason
	case live.StateFailed:
		ev.Type = journal.EventOrderFailed
		ev.Note = o.Detail
	}
	if o.Intent != nil {
		ev.Side = string(o.Intent.Side)
		ev.Price = o.Intent.LimitPrice
		ev.Quantity = o.Intent.Quantity
	} else if d == live.Buy {
		ev.Side = string(exchange.SideBuy)
	} else {
		ev.Side = string(exchange.SideSell)
	}

	if err := r.journal.Record(ev); err != nil {
		r.log.Warn("journal write failed", zap.Error(err))
	}
	if err := r.notifier.TradeAlert(ev); err != nil {
		r.log.Warn("trade alert failed", zap.Error(err))
	}
}

// report journals and notifies a cycle-level failure.
func (r *Runner) report(title string, cause error) {
	r.log.Error(title, zap.Error(cause))
	ev := journal.Event{
		ID:     id.New(),
		Time:   r.now(),
		Type:   journal.EventError,
		Symbol: r.symbol,
		Note:   cause.Error(),
	}
	if err := r.journal.Record(ev); err != nil {
		r.log.Warn("journal write failed", zap.Error(err))
	}
	if err := r.notifier.ErrorAlert(title, cause.Error()); err != nil {
		r.log.Warn("error alert failed", zap.Error(err))
	}
}

// Status assembles a holdings snapshot, valuing each non-quote currency at
// its current price. It is read-only and safe to run between cycles.
func (r *Runner) Status(ctx context.Context) (notify.Status, error) {
	quoteCur, _, err := exchange.SplitMarket(r.symbol)
	if err != nil {
		return notify.Status{}, err
	}

	balances, err := r.ex.Balances(ctx)
	if err != nil {
		return notify.Status{}, fmt.Errorf("read balances: %w", err)
	}

	st := notify.Status{
		Symbol:   r.symbol,
		Interval: r.params.Interval,
		Lookback: r.params.DonchianLookback,
		Balances: make(map[string]notify.Holding, len(balances)),
		Backtest: r.params.Backtest,
		Time:     r.now(),
	}
	for cur, b := range balances {
		h := notify.Holding{Amount: b.Amount, Value: b.Amount}
		if cur != quoteCur {
			price, perr := r.ex.CurrentPrice(ctx, quoteCur+"-"+cur)
			if perr != nil {
				// No quote for this holding right now; value it at its
				// average cost instead of losing the whole snapshot.
				r.log.Warn("no current price, valuing at average cost",
					zap.String("currency", cur), zap.Error(perr))
				price = b.AvgCost
			}
			h.Value = b.Amount * price
		}
		st.Balances[cur] = h
		st.Total += h.Value
	}
	return st, nil
}

// CheckOrders inspects orders still resting on the book. A limit order
// that did not fill within a cycle is worth knowing about: partial fills
// are reported, untouched orders are logged. Nothing is canceled; the
// next cycle re-evaluates from actual balances either way.
func (r *Runner) CheckOrders(ctx context.Context) error {
	orders, err := r.ex.OpenOrders(ctx, r.symbol)
	if err != nil {
		return fmt.Errorf("fetch open orders: %w", err)
	}

	for _, o := range orders {
		r.log.Info("open order",
			zap.String("order_id", o.ID),
			zap.String("side", string(o.Side)),
			zap.Float64("price", o.Price),
			zap.Float64("remaining", o.Remaining),
			zap.Float64("filled", o.Filled()),
		)
		if o.Filled() <= 0 {
			continue
		}

		note := fmt.Sprintf("order %s partially filled: %.8f of %.8f at %.0f",
			o.ID, o.Filled(), o.Volume, o.Price)
		ev := journal.Event{
			ID:       id.New(),
			Time:     r.now(),
			Type:     journal.EventStatus,
			Symbol:   r.symbol,
			Side:     string(o.Side),
			Price:    o.Price,
			Quantity: o.Remaining,
			OrderID:  o.ID,
			Note:     note,
		}
		if jerr := r.journal.Record(ev); jerr != nil {
			r.log.Warn("journal write failed", zap.Error(jerr))
		}
		if nerr := r.notifier.Message(note); nerr != nil {
			r.log.Warn("partial fill alert failed", zap.Error(nerr))
		}
	}
	return nil
}

// SendStatus pushes a snapshot through the notifier and journals it.
func (r *Runner) SendStatus(ctx context.Context) error {
	st, err := r.Status(ctx)
	if err != nil {
		r.report("status snapshot failed", err)
		return err
	}
	ev := journal.Event{
		ID:     id.New(),
		Time:   r.now(),
		Type:   journal.EventStatus,
		Symbol: r.symbol,
		Note:   fmt.Sprintf("total %.0f %s", st.Total, mustQuote(r.symbol)),
	}
	if jerr := r.journal.Record(ev); jerr != nil {
		r.log.Warn("journal write failed", zap.Error(jerr))
	}
	return r.notifier.StatusUpdate(st)
}

func mustQuote(symbol string) string {
	quote, _, err := exchange.SplitMarket(symbol)
	if err != nil {
		return symbol
	}
	return quote
}
