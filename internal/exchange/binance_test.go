package exchange

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/skalibog/bfta/internal/config"
)

var dayStart = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func klineRow(day int, open, high, low, close, volume string) string {
	openTime := dayStart.AddDate(0, 0, day).UnixMilli()
	closeTime := dayStart.AddDate(0, 0, day+1).UnixMilli() - 1
	return fmt.Sprintf(`[%d,"%s","%s","%s","%s","%s",%d,"0",10,"0","0","0"]`,
		openTime, open, high, low, close, volume, closeTime)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/klines", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("symbol") != "BTCUSDT" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"code":-1121,"msg":"Invalid symbol."}`)
			return
		}
		if q.Get("interval") != "1d" {
			t.Errorf("interval: got %q, want 1d", q.Get("interval"))
		}
		if q.Get("limit") != "3" {
			t.Errorf("limit: got %q, want 3", q.Get("limit"))
		}
		// строки намеренно не по порядку
		rows := []string{
			klineRow(1, "101.5", "103", "100", "102.25", "12.5"),
			klineRow(0, "100", "102", "99.5", "101.5", "10"),
			klineRow(2, "102.25", "104", "101", "103.75", "8.125"),
		}
		fmt.Fprintf(w, "[%s]", strings.Join(rows, ","))
	})
	mux.HandleFunc("/api/v3/ticker/price", func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		if symbol != "BTCUSDT" {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"code":-1121,"msg":"Invalid symbol."}`)
			return
		}
		fmt.Fprintf(w, `{"symbol":"%s","price":"104.01000000"}`, symbol)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T) *BinanceClient {
	t.Helper()
	srv := newTestServer(t)
	c, err := NewBinanceClient(config.BinanceConfig{BaseURL: srv.URL, QuoteAsset: "usdt", TimeoutSeconds: 5})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestPairSymbol(t *testing.T) {
	c, _ := NewBinanceClient(config.BinanceConfig{})
	tests := map[string]string{
		"BTC":   "BTCUSDT",
		"eth":   "ETHUSDT",
		" sol ": "SOLUSDT",
	}
	for asset, want := range tests {
		if got := c.PairSymbol(asset); got != want {
			t.Errorf("PairSymbol(%q) = %q, want %q", asset, got, want)
		}
	}
}

func TestGetDailyBars(t *testing.T) {
	c := newTestClient(t)
	candles, err := c.GetDailyBars(context.Background(), "btc", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candles) != 3 {
		t.Fatalf("expected 3 candles, got %d", len(candles))
	}
	for i, want := range []float64{101.5, 102.25, 103.75} {
		if candles[i].Close != want {
			t.Errorf("close[%d]: got %v, want %v", i, candles[i].Close, want)
		}
		if !candles[i].OpenTime.Equal(dayStart.AddDate(0, 0, i)) {
			t.Errorf("open time[%d]: got %v", i, candles[i].OpenTime)
		}
		if candles[i].Symbol != "BTCUSDT" || candles[i].Interval != "1d" {
			t.Errorf("candle %d: got %s/%s", i, candles[i].Symbol, candles[i].Interval)
		}
	}
	if candles[2].Volume != 8.125 || candles[0].Low != 99.5 {
		t.Errorf("unexpected parsed fields: %+v %+v", candles[0], candles[2])
	}
}

func TestGetDailyBars_UnknownSymbol(t *testing.T) {
	c := newTestClient(t)
	_, err := c.GetDailyBars(context.Background(), "NOPE", 3)
	if !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestGetDailyBars_InvalidDays(t *testing.T) {
	c := newTestClient(t)
	if _, err := c.GetDailyBars(context.Background(), "BTC", 0); err == nil {
		t.Fatal("expected error for zero days")
	}
}

func TestGetCurrentPrice(t *testing.T) {
	c := newTestClient(t)
	price, err := c.GetCurrentPrice(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 104.01 {
		t.Errorf("price: got %v, want 104.01", price)
	}

	if _, err := c.GetCurrentPrice(context.Background(), "NOPE"); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("expected ErrUnknownSymbol, got %v", err)
	}
}
