package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func sandboxSession() *Session {
	return &Session{Client: NewClient(testCreds, ModeSandbox), Mode: ModeSandbox}
}

func TestCandlesReversesToOldestFirst(t *testing.T) {
	// OKX отдаёт newest-first
	withServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("instId"); got != "BTC-USDT" {
			t.Errorf("instId = %q", got)
		}
		if got := r.URL.Query().Get("bar"); got != "15m" {
			t.Errorf("bar = %q", got)
		}
		_, _ = w.Write([]byte(`{"code":"0","data":[
			["1700000900000","3","3","3","3","30","0","0","1"],
			["1700000000000","1","2","1","2","10","0","0","1"]
		]}`))
	}))

	candles, err := sandboxSession().Candles(context.Background(), "BTC/USDT", "15m", 50)
	if err != nil {
		t.Fatalf("candles: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("want 2 candles, got %d", len(candles))
	}
	if !candles[0].Start.Before(candles[1].Start) {
		t.Error("candles must be oldest-first")
	}
	if candles[0].Close != 2 || candles[1].Close != 3 {
		t.Errorf("closes: %v %v", candles[0].Close, candles[1].Close)
	}
}

func TestCandlesRetriesTransientFailure(t *testing.T) {
	calls := 0
	withServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"code":"0","data":[["1700000000000","1","2","1","2","10"]]}`))
	}))

	candles, err := sandboxSession().Candles(context.Background(), "BTC-USDT", "15m", 50)
	if err != nil {
		t.Fatalf("candles after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("want 2 calls, got %d", calls)
	}
	if len(candles) != 1 {
		t.Errorf("want 1 candle, got %d", len(candles))
	}
}

func TestCandlesNoDataAfterEmptyResponses(t *testing.T) {
	withServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code":"0","data":[]}`))
	}))

	_, err := sandboxSession().Candles(context.Background(), "XXX-USDT", "15m", 50)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("want *FetchError, got %v", err)
	}
	if fe.Kind != FetchNoData {
		t.Errorf("kind = %s, want NO_DATA", fe.Kind)
	}
}

func TestCandlesTransportAfterPersistentFailure(t *testing.T) {
	withServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = fmt.Fprint(w, "boom")
	}))

	_, err := sandboxSession().Candles(context.Background(), "BTC-USDT", "15m", 50)

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("want *FetchError, got %v", err)
	}
	if fe.Kind != FetchTransport {
		t.Errorf("kind = %s, want TRANSPORT", fe.Kind)
	}
}

func TestOkxBarMapping(t *testing.T) {
	cases := map[string]string{
		"15m": "15m",
		"1h":  "1H",
		"4h":  "4H",
		"1d":  "1D",
	}
	for in, want := range cases {
		got, err := okxBar(in)
		if err != nil || got != want {
			t.Errorf("okxBar(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := okxBar("7m"); err == nil {
		t.Error("unsupported timeframe must error")
	}
}
