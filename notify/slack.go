package notify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/slack-go/slack"

	"github.com/rustyeddy/breakout/journal"
)

// Slack posts notifications to a single channel via the Web API.
type Slack struct {
	client  *slack.Client
	channel string
}

func NewSlack(token, channel string) *Slack {
	return &Slack{
		client:  slack.New(token),
		channel: channel,
	}
}

func (s *Slack) post(text string) error {
	_, _, err := s.client.PostMessage(s.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	return nil
}

func (s *Slack) Message(text string) error { return s.post(text) }

func (s *Slack) TradeAlert(e journal.Event) error {
	var b strings.Builder
	switch e.Type {
	case journal.EventOrderPlaced:
		fmt.Fprintf(&b, ":white_check_mark: *%s order placed* `%s`\n", strings.ToUpper(e.Side), e.Symbol)
		fmt.Fprintf(&b, "price: %s  qty: %s\n", formatKRW(e.Price), formatQty(e.Quantity))
		if e.OrderID != "" {
			fmt.Fprintf(&b, "uuid: `%s`\n", e.OrderID)
		}
	case journal.EventOrderSkipped:
		fmt.Fprintf(&b, ":no_entry_sign: *%s order skipped* `%s`\n", strings.ToUpper(e.Side), e.Symbol)
	case journal.EventOrderFailed:
		fmt.Fprintf(&b, ":x: *%s order failed* `%s`\n", strings.ToUpper(e.Side), e.Symbol)
	default:
		fmt.Fprintf(&b, "*%s* `%s`\n", e.Type, e.Symbol)
	}
	if e.Signal != "" {
		fmt.Fprintf(&b, "signal: %s\n", e.Signal)
	}
	if e.Note != "" {
		fmt.Fprintf(&b, "%s\n", e.Note)
	}
	return s.post(b.String())
}

func (s *Slack) StatusUpdate(st Status) error {
	var b strings.Builder
	fmt.Fprintf(&b, ":information_source: *Status* `%s` %s donchian(%d)\n",
		st.Symbol, st.Interval, st.Lookback)
	fmt.Fprintf(&b, "_%s_\n", st.Time.Format("2006-01-02 15:04:05"))

	currencies := make([]string, 0, len(st.Balances))
	for c := range st.Balances {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)
	for _, c := range currencies {
		h := st.Balances[c]
		fmt.Fprintf(&b, "%s: %s (%s KRW)\n", c, formatQty(h.Amount), formatKRW(h.Value))
	}
	fmt.Fprintf(&b, "total: %s KRW\n", formatKRW(st.Total))

	if bt := st.Backtest; bt != nil {
		fmt.Fprintf(&b, "backtest: PF %.2f, ret %.1f%%, mdd %.1f%%, trades %d\n",
			bt.ProfitFactor, bt.CumulativeReturn*100, bt.MaxDrawdown*100, bt.Trades)
	}
	return s.post(b.String())
}

func (s *Slack) ErrorAlert(title, detail string) error {
	return s.post(fmt.Sprintf(":rotating_light: *%s*\n```%s```", title, detail))
}

// formatKRW renders a quote-currency amount with thousands separators and
// no fractional part. Upbit KRW prices are whole numbers.
func formatKRW(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := fmt.Sprintf("%.0f", v)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}

func formatQty(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.8f", v), "0"), ".")
}
