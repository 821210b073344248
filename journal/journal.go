package journal

import "time"

// EventType tags what happened during a trading cycle.
type EventType string

const (
	EventOrderAttempt EventType = "order_attempt"
	EventOrderPlaced  EventType = "order_placed"
	EventOrderSkipped EventType = "order_skipped"
	EventOrderFailed  EventType = "order_failed"
	EventStatus       EventType = "status"
	EventError        EventType = "error"
)

// Event is one journaled record. Order fields are zero for status and
// error events.
type Event struct {
	ID       string // ULID, time-sortable
	Time     time.Time
	Type     EventType
	Symbol   string
	Side     string
	Price    float64
	Quantity float64
	OrderID  string // exchange order id, set for order_placed
	Signal   string // signal description, e.g. "Donchian(24) BUY"
	Note     string
}

// Journal persists trading events. Implementations are append-only; the
// runner treats a failed Record as a warning, never as a reason to abort
// a cycle.
type Journal interface {
	Record(Event) error
	Close() error
}

// Noop discards everything. Used when journaling is disabled.
type Noop struct{}

func (Noop) Record(Event) error { return nil }
func (Noop) Close() error       { return nil }
