package live

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/breakout/exchange"
	"github.com/rustyeddy/breakout/journal"
	"github.com/rustyeddy/breakout/pkg/id"
)

// State names the terminal (and intermediate) states of one execution
// pass. A pass always ends in Idle, Placed, Skipped or Failed; nothing is
// carried to the next cycle.
type State int

const (
	StateIdle State = iota
	StateEvaluating
	StateSubmitting
	StatePlaced
	StateSkipped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEvaluating:
		return "evaluating"
	case StateSubmitting:
		return "submitting"
	case StatePlaced:
		return "placed"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// OrderIntent is the order the executor wants to place. Built fresh per
// decision and never mutated after submission.
type OrderIntent struct {
	Symbol     string
	Side       exchange.Side
	LimitPrice float64
	Quantity   float64
	Reason     string // signal description, e.g. "Donchian(24) BUY"
}

// Outcome is the single result of one execution pass.
//
//	StateIdle:    nothing to do (hold, insufficient data, sell while flat)
//	StatePlaced:  order accepted, OrderID set
//	StateSkipped: a normal no-trade outcome, Reason set
//	StateFailed:  the exchange rejected the order, Detail set
type Outcome struct {
	State   State
	Intent  *OrderIntent
	OrderID string
	Reason  string
	Detail  string
}

// Position is the live mirror of holdings, rebuilt from exchange balances
// every cycle and never cached across cycles.
type Position struct {
	Amount  float64
	AvgCost float64
	Holding bool
}

// Config carries the execution policy knobs.
type Config struct {
	Symbol        string        // market code, e.g. "KRW-BTC"
	MinOrderValue float64       // exchange minimum order value in quote currency
	DustThreshold float64       // smallest base amount that counts as holding
	BuyFraction   float64       // fraction of available quote balance per buy
	PriceDiscount float64       // limit price discount off the current quote
	Pause         time.Duration // wait between successive exchange calls
}

// DefaultConfig returns the production policy: Upbit's 100k KRW minimum
// order, buy with half the available balance, limit orders 0.2% under the
// quote to fill fast without market-order slippage.
func DefaultConfig(symbol string) Config {
	return Config{
		Symbol:        symbol,
		MinOrderValue: 100_000,
		DustThreshold: 0.00005,
		BuyFraction:   0.5,
		PriceDiscount: 0.002,
		Pause:         200 * time.Millisecond,
	}
}

// Collaborators is the slice of the exchange the executor needs. Candle
// fetching belongs to the caller; the executor only quotes, reads
// balances and places orders.
type Collaborators interface {
	exchange.QuoteSource
	exchange.BalanceSource
	exchange.OrderPlacer
}

// Executor turns a Decision into at most one limit order per cycle.
type Executor struct {
	cfg     Config
	ex      Collaborators
	journal journal.Journal
	log     *zap.Logger
	sleep   func(time.Duration) // replaceable in tests
}

func NewExecutor(cfg Config, ex Collaborators, jnl journal.Journal, log *zap.Logger) *Executor {
	if jnl == nil {
		jnl = journal.Noop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		cfg:     cfg,
		ex:      ex,
		journal: jnl,
		log:     log,
		sleep:   time.Sleep,
	}
}

// Execute runs one pass of the state machine. Collaborator fetch failures
// (balances, quote) are returned as errors so the cycle can abort without
// ordering; an exchange rejection is not an error but a Failed outcome.
// There is no retry in either case - the next scheduled cycle re-evaluates
// from fresh balances.
func (e *Executor) Execute(ctx context.Context, d Decision, reason string) (Outcome, error) {
	if d != Buy && d != Sell {
		return Outcome{State: StateIdle}, nil
	}

	quoteCur, baseCur, err := exchange.SplitMarket(e.cfg.Symbol)
	if err != nil {
		return Outcome{}, err
	}

	balances, err := e.ex.Balances(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("read balances: %w", err)
	}
	pos := e.position(balances[baseCur])
	available := balances[quoteCur].Amount

	e.log.Debug("evaluating order",
		zap.String("decision", d.String()),
		zap.Float64("available", available),
		zap.Float64("held", pos.Amount),
		zap.Bool("holding", pos.Holding),
	)

	switch d {
	case Buy:
		return e.buy(ctx, pos, available, reason)
	default:
		if !pos.Holding {
			// Sell signal with nothing held resolves straight to idle.
			return Outcome{State: StateIdle}, nil
		}
		return e.sell(ctx, pos, reason)
	}
}

// buy sizes a fixed fraction of the available quote balance. It proceeds
// even when already holding: a fresh breakout justifies adding to the
// position, and that policy is deliberate.
func (e *Executor) buy(ctx context.Context, pos Position, available float64, reason string) (Outcome, error) {
	if pos.Holding {
		e.log.Info("already holding, buy signal adds to position",
			zap.Float64("held", pos.Amount))
	}

	if available < e.cfg.MinOrderValue {
		return Outcome{
			State: StateSkipped,
			Reason: fmt.Sprintf("available %s %.0f below minimum order value %.0f",
				mustQuote(e.cfg.Symbol), available, e.cfg.MinOrderValue),
		}, nil
	}

	e.sleep(e.cfg.Pause)
	price, err := e.ex.CurrentPrice(ctx, e.cfg.Symbol)
	if err != nil {
		return Outcome{}, fmt.Errorf("read quote: %w", err)
	}

	budget := available * e.cfg.BuyFraction
	limit := e.limitPrice(price)
	intent := &OrderIntent{
		Symbol:     e.cfg.Symbol,
		Side:       exchange.SideBuy,
		LimitPrice: limit,
		Quantity:   round8(budget / limit),
		Reason:     reason,
	}
	return e.submit(ctx, intent), nil
}

// sell liquidates the entire held amount, never a partial quantity.
func (e *Executor) sell(ctx context.Context, pos Position, reason string) (Outcome, error) {
	e.sleep(e.cfg.Pause)
	price, err := e.ex.CurrentPrice(ctx, e.cfg.Symbol)
	if err != nil {
		return Outcome{}, fmt.Errorf("read quote: %w", err)
	}

	if estimated := pos.Amount * price; estimated < e.cfg.MinOrderValue {
		return Outcome{
			State: StateSkipped,
			Reason: fmt.Sprintf("held %.8f worth %.0f below minimum order value %.0f, holding",
				pos.Amount, estimated, e.cfg.MinOrderValue),
		}, nil
	}

	intent := &OrderIntent{
		Symbol:     e.cfg.Symbol,
		Side:       exchange.SideSell,
		LimitPrice: e.limitPrice(price),
		Quantity:   pos.Amount,
		Reason:     reason,
	}
	return e.submit(ctx, intent), nil
}

// submit collapses one intent into exactly one outcome. The attempt is
// journaled before the order goes out, so a crash mid-submission still
// leaves a record of what was tried.
func (e *Executor) submit(ctx context.Context, intent *OrderIntent) Outcome {
	e.log.Info("submitting order",
		zap.String("side", string(intent.Side)),
		zap.Float64("limit_price", intent.LimitPrice),
		zap.Float64("quantity", intent.Quantity),
		zap.String("reason", intent.Reason),
	)
	if err := e.journal.Record(journal.Event{
		ID:       id.New(),
		Time:     time.Now(),
		Type:     journal.EventOrderAttempt,
		Symbol:   intent.Symbol,
		Side:     string(intent.Side),
		Price:    intent.LimitPrice,
		Quantity: intent.Quantity,
		Signal:   intent.Reason,
	}); err != nil {
		e.log.Warn("journal write failed", zap.Error(err))
	}

	e.sleep(e.cfg.Pause)
	orderID, err := e.ex.PlaceLimitOrder(ctx, intent.Symbol, intent.Side, intent.LimitPrice, intent.Quantity)
	if err != nil {
		return Outcome{State: StateFailed, Intent: intent, Detail: err.Error()}
	}
	return Outcome{State: StatePlaced, Intent: intent, OrderID: orderID}
}

func (e *Executor) position(b exchange.Balance) Position {
	return Position{
		Amount:  b.Amount,
		AvgCost: b.AvgCost,
		Holding: b.Amount > e.cfg.DustThreshold,
	}
}

// limitPrice shades the quote by the configured discount and rounds to a
// whole quote unit, matching KRW tick pricing.
func (e *Executor) limitPrice(quote float64) float64 {
	return math.Round(quote * (1 - e.cfg.PriceDiscount))
}

func round8(x float64) float64 {
	return math.Round(x*1e8) / 1e8
}

func mustQuote(symbol string) string {
	quote, _, err := exchange.SplitMarket(symbol)
	if err != nil {
		return symbol
	}
	return quote
}
