package upbit

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rustyeddy/breakout/exchange"
	"github.com/rustyeddy/breakout/market"
	"github.com/rustyeddy/breakout/pkg/id"
)

// BaseURL is the production Upbit REST endpoint.
const BaseURL = "https://api.upbit.com"

// candleTimeLayout matches candle_date_time_utc in Upbit responses.
const candleTimeLayout = "2006-01-02T15:04:05"

// Client is a thin typed wrapper over the Upbit REST API. Public market
// data needs no credentials; accounts and orders are signed with an HS256
// JWT carrying a SHA-512 hash of the query parameters.
type Client struct {
	baseURL    string
	accessKey  string
	secretKey  string
	httpClient *http.Client
}

var _ exchange.Client = (*Client)(nil)

// NewClient creates an Upbit client. Empty keys are fine for public
// endpoints; authenticated calls will then fail with a clear error.
func NewClient(accessKey, secretKey string) *Client {
	return &Client{
		baseURL:   BaseURL,
		accessKey: accessKey,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithBaseURL is for tests pointing at an httptest server.
func NewClientWithBaseURL(baseURL, accessKey, secretKey string) *Client {
	c := NewClient(accessKey, secretKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// apiCandle is one bar in a candle response. Upbit returns newest first.
type apiCandle struct {
	Market       string  `json:"market"`
	DateTimeUTC  string  `json:"candle_date_time_utc"`
	OpeningPrice float64 `json:"opening_price"`
	HighPrice    float64 `json:"high_price"`
	LowPrice     float64 `json:"low_price"`
	TradePrice   float64 `json:"trade_price"`
	AccVolume    float64 `json:"candle_acc_trade_volume"`
}

// candlePath maps pyupbit-style interval names ("minute240", "day", ...)
// onto Upbit candle endpoints.
func candlePath(interval string) (string, error) {
	switch {
	case strings.HasPrefix(interval, "minute"):
		unit, err := strconv.Atoi(strings.TrimPrefix(interval, "minute"))
		if err != nil || unit <= 0 {
			return "", fmt.Errorf("invalid minute interval %q", interval)
		}
		return fmt.Sprintf("/v1/candles/minutes/%d", unit), nil
	case interval == "day":
		return "/v1/candles/days", nil
	case interval == "week":
		return "/v1/candles/weeks", nil
	case interval == "month":
		return "/v1/candles/months", nil
	default:
		return "", fmt.Errorf("unknown candle interval %q", interval)
	}
}

// Candles fetches the most recent count candles, oldest first.
func (c *Client) Candles(ctx context.Context, symbol, interval string, count int) (*market.Series, error) {
	path, err := candlePath(interval)
	if err != nil {
		return nil, err
	}
	if count <= 0 || count > 200 {
		return nil, fmt.Errorf("candle count must be 1..200, got %d", count)
	}

	params := url.Values{}
	params.Set("market", symbol)
	params.Set("count", strconv.Itoa(count))

	var rows []apiCandle
	if err := c.get(ctx, path, params, false, &rows); err != nil {
		return nil, fmt.Errorf("fetch candles: %w: %w", exchange.ErrUnavailable, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("fetch candles: empty response: %w", exchange.ErrUnavailable)
	}

	candles := make([]market.Candle, 0, len(rows))
	for _, row := range rows {
		ts, err := time.Parse(candleTimeLayout, row.DateTimeUTC)
		if err != nil {
			return nil, fmt.Errorf("parse candle time %q: %w", row.DateTimeUTC, err)
		}
		candles = append(candles, market.Candle{
			Time:   ts.UTC(),
			Open:   row.OpeningPrice,
			High:   row.HighPrice,
			Low:    row.LowPrice,
			Close:  row.TradePrice,
			Volume: row.AccVolume,
		})
	}

	// Upbit orders newest first; the series wants chronological order.
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })

	return market.NewSeries(symbol, interval, candles)
}

type apiTicker struct {
	Market     string  `json:"market"`
	TradePrice float64 `json:"trade_price"`
}

// CurrentPrice returns the latest traded price for the market.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("markets", symbol)

	var rows []apiTicker
	if err := c.get(ctx, "/v1/ticker", params, false, &rows); err != nil {
		return 0, fmt.Errorf("fetch ticker: %w: %w", exchange.ErrUnavailable, err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("fetch ticker: empty response: %w", exchange.ErrUnavailable)
	}
	return rows[0].TradePrice, nil
}

type apiAccount struct {
	Currency    string `json:"currency"`
	Balance     string `json:"balance"`
	AvgBuyPrice string `json:"avg_buy_price"`
}

// Balances returns all holdings keyed by currency code. Upbit encodes
// numbers as strings; unparseable rows are an error rather than a silent
// zero.
func (c *Client) Balances(ctx context.Context) (map[string]exchange.Balance, error) {
	var rows []apiAccount
	if err := c.get(ctx, "/v1/accounts", nil, true, &rows); err != nil {
		return nil, fmt.Errorf("fetch balances: %w: %w", exchange.ErrUnavailable, err)
	}

	out := make(map[string]exchange.Balance, len(rows))
	for _, row := range rows {
		amount, err := strconv.ParseFloat(row.Balance, 64)
		if err != nil {
			return nil, fmt.Errorf("parse balance %q for %s: %w", row.Balance, row.Currency, err)
		}
		avg, err := strconv.ParseFloat(row.AvgBuyPrice, 64)
		if err != nil {
			return nil, fmt.Errorf("parse avg_buy_price %q for %s: %w", row.AvgBuyPrice, row.Currency, err)
		}
		out[row.Currency] = exchange.Balance{Amount: amount, AvgCost: avg}
	}
	return out, nil
}

type apiOrder struct {
	UUID string `json:"uuid"`
}

// PlaceLimitOrder submits one limit order and returns the order UUID.
func (c *Client) PlaceLimitOrder(ctx context.Context, symbol string, side exchange.Side, price, quantity float64) (string, error) {
	var upbitSide string
	switch side {
	case exchange.SideBuy:
		upbitSide = "bid"
	case exchange.SideSell:
		upbitSide = "ask"
	default:
		return "", fmt.Errorf("unknown order side %q", side)
	}

	params := url.Values{}
	params.Set("market", symbol)
	params.Set("side", upbitSide)
	params.Set("ord_type", "limit")
	params.Set("price", strconv.FormatFloat(price, 'f', -1, 64))
	params.Set("volume", strconv.FormatFloat(quantity, 'f', -1, 64))

	var order apiOrder
	if err := c.post(ctx, "/v1/orders", params, &order); err != nil {
		return "", fmt.Errorf("place %s order: %w", side, err)
	}
	if order.UUID == "" {
		return "", fmt.Errorf("place %s order: response carried no order id", side)
	}
	return order.UUID, nil
}

// apiOpenOrder is one row of the order list endpoint. Numbers come back
// string-encoded, same as balances.
type apiOpenOrder struct {
	UUID            string `json:"uuid"`
	Market          string `json:"market"`
	Side            string `json:"side"`
	Price           string `json:"price"`
	Volume          string `json:"volume"`
	RemainingVolume string `json:"remaining_volume"`
	CreatedAt       string `json:"created_at"`
}

// OpenOrders lists the orders still waiting on the book for a market.
func (c *Client) OpenOrders(ctx context.Context, symbol string) ([]exchange.Order, error) {
	params := url.Values{}
	params.Set("market", symbol)
	params.Set("state", "wait")

	var rows []apiOpenOrder
	if err := c.get(ctx, "/v1/orders", params, true, &rows); err != nil {
		return nil, fmt.Errorf("fetch open orders: %w: %w", exchange.ErrUnavailable, err)
	}

	orders := make([]exchange.Order, 0, len(rows))
	for _, row := range rows {
		var side exchange.Side
		switch row.Side {
		case "bid":
			side = exchange.SideBuy
		case "ask":
			side = exchange.SideSell
		default:
			return nil, fmt.Errorf("unknown order side %q for order %s", row.Side, row.UUID)
		}

		price, err := strconv.ParseFloat(row.Price, 64)
		if err != nil {
			return nil, fmt.Errorf("parse price %q for order %s: %w", row.Price, row.UUID, err)
		}
		volume, err := strconv.ParseFloat(row.Volume, 64)
		if err != nil {
			return nil, fmt.Errorf("parse volume %q for order %s: %w", row.Volume, row.UUID, err)
		}
		remaining, err := strconv.ParseFloat(row.RemainingVolume, 64)
		if err != nil {
			return nil, fmt.Errorf("parse remaining_volume %q for order %s: %w", row.RemainingVolume, row.UUID, err)
		}

		o := exchange.Order{
			ID:        row.UUID,
			Symbol:    row.Market,
			Side:      side,
			Price:     price,
			Volume:    volume,
			Remaining: remaining,
		}
		if row.CreatedAt != "" {
			ts, err := time.Parse(time.RFC3339, row.CreatedAt)
			if err != nil {
				return nil, fmt.Errorf("parse created_at %q for order %s: %w", row.CreatedAt, row.UUID, err)
			}
			o.CreatedAt = ts
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// apiError is Upbit's error payload.
type apiError struct {
	Error struct {
		Name    any    `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) get(ctx context.Context, path string, params url.Values, authed bool, out any) error {
	endpoint := c.baseURL + path
	query := params.Encode()
	if query != "" {
		endpoint += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if authed {
		if err := c.sign(req, query); err != nil {
			return err
		}
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, params url.Values, out any) error {
	body := params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// The signature covers the encoded parameters, same as the query
	// string on GET requests.
	if err := c.sign(req, body); err != nil {
		return err
	}
	return c.do(req, out)
}

// sign attaches the Upbit JWT: HS256 over access key, a unique nonce and
// (when parameters are present) a SHA-512 hash of the encoded parameters.
func (c *Client) sign(req *http.Request, query string) error {
	if c.accessKey == "" || c.secretKey == "" {
		return fmt.Errorf("authenticated call without API credentials")
	}

	claims := jwt.MapClaims{
		"access_key": c.accessKey,
		"nonce":      id.New(),
	}
	if query != "" {
		sum := sha512.Sum512([]byte(query))
		claims["query_hash"] = hex.EncodeToString(sum[:])
		claims["query_hash_alg"] = "SHA512"
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.secretKey))
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("upbit: %s (HTTP %d)", apiErr.Error.Message, resp.StatusCode)
		}
		return fmt.Errorf("upbit: HTTP %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
