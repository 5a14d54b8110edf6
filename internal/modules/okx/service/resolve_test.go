package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/bvielcanet-cmyk/crypt/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// подменяет базовый URL на httptest-сервер на время теста
func withServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	old := apiBase
	apiBase = srv.URL
	t.Cleanup(func() {
		apiBase = old
		srv.Close()
	})
	return srv
}

var testCreds = Credentials{APIKey: "k", APISecret: "s", Passphrase: "p"}

func TestResolveFallsBackToLive(t *testing.T) {
	withServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v5/account/balance" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-simulated-trading") == "1" {
			// sandbox-проба отбивается
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":"50119","msg":"API key doesn't exist"}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":"0","data":[{"totalEq":"100","details":[{"ccy":"USDT","cashBal":"100"}]}]}`))
	}))

	sess, err := Resolve(context.Background(), testCreds, []Mode{ModeSandbox, ModeLive})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sess.Mode != ModeLive {
		t.Errorf("mode = %s, want live", sess.Mode)
	}
}

func TestResolveAggregatesAllProbeFailures(t *testing.T) {
	withServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"50119","msg":"bad key"}`))
	}))

	_, err := Resolve(context.Background(), testCreds, []Mode{ModeSandbox, ModeLive})
	if err == nil {
		t.Fatal("want connectivity error")
	}

	cErr, ok := err.(*ConnectivityError)
	if !ok {
		t.Fatalf("want *ConnectivityError, got %T", err)
	}
	if len(cErr.Probes) != 2 {
		t.Fatalf("want 2 probe messages, got %d", len(cErr.Probes))
	}
	msg := cErr.Error()
	for _, mode := range []string{"sandbox", "live"} {
		if !strings.Contains(msg, mode) {
			t.Errorf("error text misses mode %s: %q", mode, msg)
		}
	}
}

func TestResolvePublicNeedsNoCreds(t *testing.T) {
	withServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v5/public/time" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"code":"0","data":[{"ts":"1700000000000"}]}`))
	}))

	sess, err := Resolve(context.Background(), Credentials{}, []Mode{ModePublic})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sess.Mode != ModePublic {
		t.Errorf("mode = %s, want public", sess.Mode)
	}
}

func TestResolveAuthedModeWithoutCreds(t *testing.T) {
	_, err := Resolve(context.Background(), Credentials{}, []Mode{ModeSandbox})
	if err == nil {
		t.Fatal("want error for authed mode without creds")
	}
}

func TestParseModes(t *testing.T) {
	got := ParseModes([]string{" Sandbox ", "live", "bogus", "PUBLIC"})
	want := []Mode{ModeSandbox, ModeLive, ModePublic}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("modes[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNormalizeInstID(t *testing.T) {
	if got := NormalizeInstID(" btc/usdt "); got != "BTC-USDT" {
		t.Errorf("got %q", got)
	}
	if got := NormalizeInstID("ETH-USDT"); got != "ETH-USDT" {
		t.Errorf("got %q", got)
	}
}
