package upbit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/breakout/exchange"
)

func TestCandles_ReversedToChronological(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/candles/minutes/240", r.URL.Path)
		require.Equal(t, "KRW-BTC", r.URL.Query().Get("market"))
		require.Equal(t, "3", r.URL.Query().Get("count"))

		// Newest first, as Upbit sends them.
		w.Write([]byte(`[
			{"market":"KRW-BTC","candle_date_time_utc":"2025-01-01T08:00:00","opening_price":102,"high_price":103,"low_price":101,"trade_price":103,"candle_acc_trade_volume":3},
			{"market":"KRW-BTC","candle_date_time_utc":"2025-01-01T04:00:00","opening_price":101,"high_price":102,"low_price":100,"trade_price":102,"candle_acc_trade_volume":2},
			{"market":"KRW-BTC","candle_date_time_utc":"2025-01-01T00:00:00","opening_price":100,"high_price":101,"low_price":99,"trade_price":101,"candle_acc_trade_volume":1}
		]`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "", "")
	s, err := c.Candles(context.Background(), "KRW-BTC", "minute240", 3)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())
	require.Equal(t, []float64{101, 102, 103}, s.Closes())
	require.True(t, s.At(0).Time.Before(s.At(2).Time))
}

func TestCandles_EmptyIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "", "")
	_, err := c.Candles(context.Background(), "KRW-BTC", "minute240", 10)
	require.Error(t, err)
	require.True(t, errors.Is(err, exchange.ErrUnavailable))
}

func TestCandles_BadInterval(t *testing.T) {
	c := NewClient("", "")
	_, err := c.Candles(context.Background(), "KRW-BTC", "hourly", 10)
	require.Error(t, err)

	_, err = c.Candles(context.Background(), "KRW-BTC", "minute240", 0)
	require.Error(t, err)
}

func TestCurrentPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/ticker", r.URL.Path)
		require.Equal(t, "KRW-BTC", r.URL.Query().Get("markets"))
		w.Write([]byte(`[{"market":"KRW-BTC","trade_price":141000000}]`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "", "")
	price, err := c.CurrentPrice(context.Background(), "KRW-BTC")
	require.NoError(t, err)
	require.Equal(t, 141000000.0, price)
}

func TestBalances_SignedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/accounts", r.URL.Path)
		auth := r.Header.Get("Authorization")
		require.True(t, strings.HasPrefix(auth, "Bearer "), "missing JWT bearer token")

		w.Write([]byte(`[
			{"currency":"KRW","balance":"1000000","avg_buy_price":"0"},
			{"currency":"BTC","balance":"0.01","avg_buy_price":"95000000"}
		]`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "access", "secret")
	balances, err := c.Balances(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1000000.0, balances["KRW"].Amount)
	require.Equal(t, 0.01, balances["BTC"].Amount)
	require.Equal(t, 95000000.0, balances["BTC"].AvgCost)
}

func TestBalances_NoCredentials(t *testing.T) {
	c := NewClient("", "")
	_, err := c.Balances(context.Background())
	require.Error(t, err)
}

func TestPlaceLimitOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/orders", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "KRW-BTC", r.PostForm.Get("market"))
		require.Equal(t, "bid", r.PostForm.Get("side"))
		require.Equal(t, "limit", r.PostForm.Get("ord_type"))
		require.Equal(t, "140718000", r.PostForm.Get("price"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"uuid":"cdd92199-2897-4e14-9448-f923320408ad"}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "access", "secret")
	orderID, err := c.PlaceLimitOrder(context.Background(), "KRW-BTC", exchange.SideBuy, 140718000, 0.0035)
	require.NoError(t, err)
	require.Equal(t, "cdd92199-2897-4e14-9448-f923320408ad", orderID)
}

func TestPlaceLimitOrder_Rejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"name":"insufficient_funds_bid","message":"주문가능한 금액(KRW)이 부족합니다."}}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "access", "secret")
	_, err := c.PlaceLimitOrder(context.Background(), "KRW-BTC", exchange.SideBuy, 1000, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "부족")
}

func TestOpenOrders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/orders", r.URL.Path)
		require.Equal(t, "KRW-BTC", r.URL.Query().Get("market"))
		require.Equal(t, "wait", r.URL.Query().Get("state"))
		auth := r.Header.Get("Authorization")
		require.True(t, strings.HasPrefix(auth, "Bearer "), "missing JWT bearer token")

		w.Write([]byte(`[
			{"uuid":"uuid-1","market":"KRW-BTC","side":"bid","price":"140718000","volume":"0.01","remaining_volume":"0.004","created_at":"2025-01-01T09:02:00+09:00"}
		]`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL(srv.URL, "access", "secret")
	orders, err := c.OpenOrders(context.Background(), "KRW-BTC")
	require.NoError(t, err)
	require.Len(t, orders, 1)

	o := orders[0]
	require.Equal(t, "uuid-1", o.ID)
	require.Equal(t, exchange.SideBuy, o.Side)
	require.Equal(t, 140718000.0, o.Price)
	require.Equal(t, 0.01, o.Volume)
	require.Equal(t, 0.004, o.Remaining)
	require.InDelta(t, 0.006, o.Filled(), 1e-12)
	require.False(t, o.CreatedAt.IsZero())
}

func TestOpenOrders_NoCredentials(t *testing.T) {
	c := NewClient("", "")
	_, err := c.OpenOrders(context.Background(), "KRW-BTC")
	require.Error(t, err)
	require.True(t, errors.Is(err, exchange.ErrUnavailable))
}

func TestSplitMarket(t *testing.T) {
	quote, base, err := exchange.SplitMarket("KRW-BTC")
	require.NoError(t, err)
	require.Equal(t, "KRW", quote)
	require.Equal(t, "BTC", base)

	_, _, err = exchange.SplitMarket("BTC")
	require.Error(t, err)
}
