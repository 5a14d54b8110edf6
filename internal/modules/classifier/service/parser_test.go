package service

import (
	"testing"

	"github.com/bvielcanet-cmyk/crypt/internal/models"
)

func TestParseVerdictsPipeRows(t *testing.T) {
	raw := "BTC/USDT | 92 | BUY | strong breakout\ngarbage line\nETH/USDT | 40 | WAIT | range"

	sigs := ParseVerdicts(raw, "")
	if len(sigs) != 2 {
		t.Fatalf("want 2 signals, got %d: %+v", len(sigs), sigs)
	}

	if sigs[0].Symbol != "BTC/USDT" || sigs[0].Score != 92 || sigs[0].Action != models.ActionBuy {
		t.Errorf("first signal: %+v", sigs[0])
	}
	if sigs[0].Rationale != "strong breakout" {
		t.Errorf("first rationale: %q", sigs[0].Rationale)
	}
	if sigs[1].Symbol != "ETH/USDT" || sigs[1].Score != 40 || sigs[1].Action != models.ActionWait {
		t.Errorf("second signal: %+v", sigs[1])
	}
}

func TestParseVerdictsSkipsHeader(t *testing.T) {
	raw := "SYMBOLE | SCORE | ACTION\nSOL/USDT | 88 | BUY"

	sigs := ParseVerdicts(raw, "")
	if len(sigs) != 1 {
		t.Fatalf("want 1 signal, got %d: %+v", len(sigs), sigs)
	}
	if sigs[0].Symbol != "SOL/USDT" {
		t.Errorf("symbol: %q", sigs[0].Symbol)
	}
}

func TestParseVerdictsLabeled(t *testing.T) {
	raw := "VERDICT: BUY\nSCORE: 91\nANALYSE: momentum confirmed"

	sigs := ParseVerdicts(raw, "BTC-USDT")
	if len(sigs) != 1 {
		t.Fatalf("want 1 signal, got %d: %+v", len(sigs), sigs)
	}
	got := sigs[0]
	if got.Symbol != "BTC-USDT" || got.Action != models.ActionBuy || got.Score != 91 {
		t.Errorf("signal: %+v", got)
	}
	if got.Rationale != "momentum confirmed" {
		t.Errorf("rationale: %q", got.Rationale)
	}
}

func TestParseVerdictsLabeledNeedsSymbol(t *testing.T) {
	// помеченный формат без известного символа не даёт сигнала
	if sigs := ParseVerdicts("VERDICT: BUY\nSCORE: 90", ""); len(sigs) != 0 {
		t.Fatalf("want 0 signals, got %+v", sigs)
	}
}

func TestParseVerdictsGarbageOnly(t *testing.T) {
	sigs := ParseVerdicts("I cannot provide financial advice.\n\nPlease consult a professional.", "BTC-USDT")
	if len(sigs) != 0 {
		t.Fatalf("want 0 signals, got %+v", sigs)
	}
}

func TestParseScore(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"[85]", 85},
		{"N/A", 0},
		{" 92 ", 92},
		{"100", 100},
		{"9/10", 100}, // цифры склеиваются, выше 100 — кламп
	}

	for _, c := range cases {
		if got := parseScore(c.in); got != c.want {
			t.Errorf("parseScore(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseActionVariants(t *testing.T) {
	if a, ok := parseAction(" **BUY** "); !ok || a != models.ActionBuy {
		t.Errorf("BUY variant: %v %v", a, ok)
	}
	if a, ok := parseAction("hold"); !ok || a != models.ActionWait {
		t.Errorf("hold maps to WAIT: %v %v", a, ok)
	}
	if _, ok := parseAction("maybe"); ok {
		t.Error("unknown action should not parse")
	}
}

func TestSignalQualifies(t *testing.T) {
	buy := func(score int) models.Signal {
		return models.Signal{Symbol: "BTC-USDT", Action: models.ActionBuy, Score: score}
	}

	if buy(79).Qualifies(80) {
		t.Error("score below threshold must not qualify")
	}
	if !buy(80).Qualifies(80) {
		t.Error("score at threshold must qualify")
	}
	wait := models.Signal{Symbol: "BTC-USDT", Action: models.ActionWait, Score: 95}
	if wait.Qualifies(80) {
		t.Error("WAIT must not qualify regardless of score")
	}
}
