package live

import (
	"github.com/rustyeddy/breakout/market"
	"github.com/rustyeddy/breakout/signal"
)

// Decision is the single-cycle verdict for the newest candle. It carries
// no memory: whether the bot is "currently long" is read from actual
// holdings each cycle, never inferred from past decisions, so manual
// trades and partial fills reconcile automatically.
type Decision int

const (
	Hold Decision = iota
	Buy
	Sell
	InsufficientData
)

func (d Decision) String() string {
	switch d {
	case Hold:
		return "HOLD"
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	case InsufficientData:
		return "INSUFFICIENT_DATA"
	default:
		return "UNKNOWN"
	}
}

// Decide evaluates the breakout predicate for the final bar only. It is
// the same rule the backtest signal uses, but computed once over the last
// lookback closes instead of across the whole history.
//
// At least lookback+1 candles are required (the channel excludes the
// current bar); anything less is InsufficientData, which is distinct from
// Hold: "we don't know" must never read as "stay put on purpose".
func Decide(s *market.Series, lookback int) Decision {
	if lookback < 2 || s.Len() < lookback+1 {
		return InsufficientData
	}

	closes := s.Closes()
	last := len(closes) - 1

	upper, lower, ok := signal.Channel(closes, lookback, last)
	if !ok {
		return InsufficientData
	}

	switch {
	case closes[last] > upper:
		return Buy
	case closes[last] < lower:
		return Sell
	default:
		return Hold
	}
}
