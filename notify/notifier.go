package notify

import (
	"time"

	"github.com/rustyeddy/breakout/config"
	"github.com/rustyeddy/breakout/journal"
)

// Status is a point-in-time snapshot sent on startup and on the periodic
// status schedule.
type Status struct {
	Symbol   string
	Interval string
	Lookback int

	// Balances keyed by currency; Value is the holding converted to the
	// quote currency.
	Balances map[string]Holding
	Total    float64

	Backtest *config.BacktestSummary
	Time     time.Time
}

// Holding is one currency line of a status snapshot.
type Holding struct {
	Amount float64
	Value  float64
}

// Notifier is a fire-and-forget message sink. Implementations return
// errors for the caller to log; a notification failure must never abort a
// trading cycle.
type Notifier interface {
	Message(text string) error
	TradeAlert(e journal.Event) error
	StatusUpdate(s Status) error
	ErrorAlert(title, detail string) error
}

// Noop drops everything. Used when no Slack credentials are configured.
type Noop struct{}

func (Noop) Message(string) error            { return nil }
func (Noop) TradeAlert(journal.Event) error  { return nil }
func (Noop) StatusUpdate(Status) error       { return nil }
func (Noop) ErrorAlert(string, string) error { return nil }
