package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/breakout/market"
)

// ErrUnavailable wraps fetch failures and empty responses from the
// exchange. Callers treat it as "no data this cycle", not as a fault:
// the cycle reports and moves on without placing orders.
var ErrUnavailable = errors.New("exchange data unavailable")

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Balance is one currency's holding as reported by the exchange.
type Balance struct {
	Amount  float64
	AvgCost float64 // average acquisition price in the quote currency
}

// CandleSource fetches the most recent count candles for a market,
// oldest first.
type CandleSource interface {
	Candles(ctx context.Context, symbol, interval string, count int) (*market.Series, error)
}

// QuoteSource returns the latest traded price for a market.
type QuoteSource interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// BalanceSource returns all non-zero holdings keyed by currency code.
type BalanceSource interface {
	Balances(ctx context.Context) (map[string]Balance, error)
}

// OrderPlacer submits a single limit order and returns the exchange's
// order ID. A rejection comes back as an error; there is no retry here.
type OrderPlacer interface {
	PlaceLimitOrder(ctx context.Context, symbol string, side Side, price, quantity float64) (string, error)
}

// Order is one resting order as reported by the exchange. Remaining is
// the unfilled volume; Remaining < Volume means a partial fill.
type Order struct {
	ID        string
	Symbol    string
	Side      Side
	Price     float64
	Volume    float64
	Remaining float64
	CreatedAt time.Time
}

// Filled reports how much of the order has executed so far.
func (o Order) Filled() float64 {
	return o.Volume - o.Remaining
}

// OrderSource lists the orders still resting on the book for a market.
type OrderSource interface {
	OpenOrders(ctx context.Context, symbol string) ([]Order, error)
}

// Client is the full set of exchange collaborators the trading cycle
// needs. Implementations must be safe for sequential reuse across cycles.
type Client interface {
	CandleSource
	QuoteSource
	BalanceSource
	OrderPlacer
	OrderSource
}

// SplitMarket breaks a market code like "KRW-BTC" into its quote and base
// currencies.
func SplitMarket(symbol string) (quote, base string, err error) {
	parts := strings.SplitN(symbol, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid market code %q (want QUOTE-BASE, e.g. KRW-BTC)", symbol)
	}
	return parts[0], parts[1], nil
}
