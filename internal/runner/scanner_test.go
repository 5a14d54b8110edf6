package runner

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bvielcanet-cmyk/crypt/internal/models"
	"github.com/bvielcanet-cmyk/crypt/internal/modules/config"
	okxsvc "github.com/bvielcanet-cmyk/crypt/internal/modules/okx/service"
	"github.com/bvielcanet-cmyk/crypt/internal/notify"
	"github.com/bvielcanet-cmyk/crypt/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeFetcher struct {
	failSymbol string
	failKind   okxsvc.FetchErrKind
}

func (f *fakeFetcher) Candles(_ context.Context, symbol, _ string, _ int) ([]models.Candle, error) {
	if symbol == f.failSymbol {
		return nil, &okxsvc.FetchError{Kind: f.failKind, Symbol: symbol}
	}
	start := time.Unix(1700000000, 0)
	out := make([]models.Candle, 20)
	for i := range out {
		px := 100 + float64(i)
		out[i] = models.Candle{Start: start.Add(time.Duration(i) * time.Minute), Open: px, High: px, Low: px, Close: px, Volume: 1}
	}
	return out, nil
}

type fakeClassifier struct {
	response string
	err      error
}

func (f *fakeClassifier) ClassifyOne(_ context.Context, snap models.Snapshot) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return strings.ReplaceAll(f.response, "{SYM}", snap.Symbol), nil
}

func (f *fakeClassifier) ClassifyBatch(context.Context, []models.Snapshot) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeStore struct {
	mu      sync.Mutex
	upserts []models.Signal
	result  models.StoreResult
}

func (f *fakeStore) UpsertIfQualifying(_ context.Context, sig models.Signal, _, _ float64, threshold int) (models.StoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !sig.Qualifies(threshold) {
		if sig.Action != models.ActionBuy {
			return models.StoreSkippedAction, nil
		}
		return models.StoreSkippedScore, nil
	}
	f.upserts = append(f.upserts, sig)
	if f.result != "" {
		return f.result, nil
	}
	return models.StoreStored, nil
}

func (f *fakeStore) SaveReport(context.Context, *models.CycleReport) error { return nil }

func testScanner(symbols []string, cls verdictSource, store signalStore) *Scanner {
	cfg := &config.Config{}
	cfg.Scan.Symbols = symbols
	cfg.Scan.Timeframe = "15m"
	cfg.Scan.CandleLimit = 50
	cfg.Scan.Threshold = 85
	cfg.Scan.Workers = 4

	return &Scanner{
		cfg:      cfg,
		cls:      cls,
		store:    store,
		notifier: notify.NewStdout(),
		sem:      make(chan struct{}, 4),
	}
}

func TestPerSymbolIsolation(t *testing.T) {
	symbols := []string{"BTC-USDT", "ETH-USDT", "SOL-USDT", "FET-USDT"}
	fetch := &fakeFetcher{failSymbol: "SOL-USDT", failKind: okxsvc.FetchNoData}
	cls := &fakeClassifier{response: "VERDICT: BUY\nSCORE: 90\nANALYSE: breakout"}
	store := &fakeStore{}

	s := testScanner(symbols, cls, store)
	report := models.NewCycleReport()
	s.runPerSymbol(context.Background(), fetch, report)

	if len(report.Outcomes) != len(symbols) {
		t.Fatalf("want %d outcomes, got %d", len(symbols), len(report.Outcomes))
	}

	failed := 0
	for sym, o := range report.Outcomes {
		if o.OK {
			continue
		}
		failed++
		if sym != "SOL-USDT" {
			t.Errorf("unexpected failure for %s: %+v", sym, o)
		}
		if o.Fail != models.FailFetchNoData {
			t.Errorf("fail kind = %s, want FETCH_NO_DATA", o.Fail)
		}
	}
	if failed != 1 {
		t.Errorf("want exactly 1 failure, got %d", failed)
	}
	if got := len(store.upserts); got != len(symbols)-1 {
		t.Errorf("want %d upserts, got %d", len(symbols)-1, got)
	}
}

func TestPerSymbolClassifierFailureIsolated(t *testing.T) {
	cls := &fakeClassifier{err: &clsError{}}
	s := testScanner([]string{"BTC-USDT"}, cls, &fakeStore{})
	report := models.NewCycleReport()
	s.runPerSymbol(context.Background(), &fakeFetcher{}, report)

	o := report.Outcomes["BTC-USDT"]
	if o.OK {
		t.Fatal("outcome must fail")
	}
	if o.Fail != models.FailClassifierTransport {
		t.Errorf("fail kind = %s, want CLASSIFIER_TRANSPORT", o.Fail)
	}
	if o.LastPx == 0 {
		t.Error("last price must survive into the failure outcome")
	}
}

func TestPerSymbolUnparseableVerdict(t *testing.T) {
	cls := &fakeClassifier{response: "I cannot advise on trading."}
	s := testScanner([]string{"BTC-USDT"}, cls, &fakeStore{})
	report := models.NewCycleReport()
	s.runPerSymbol(context.Background(), &fakeFetcher{}, report)

	if o := report.Outcomes["BTC-USDT"]; o.Fail != models.FailClassifierEmpty {
		t.Errorf("fail kind = %s, want CLASSIFIER_EMPTY", o.Fail)
	}
}

func TestPerSymbolWaitNotStored(t *testing.T) {
	cls := &fakeClassifier{response: "VERDICT: WAIT\nSCORE: 95\nANALYSE: range"}
	store := &fakeStore{}
	s := testScanner([]string{"BTC-USDT"}, cls, store)
	report := models.NewCycleReport()
	s.runPerSymbol(context.Background(), &fakeFetcher{}, report)

	o := report.Outcomes["BTC-USDT"]
	if !o.OK {
		t.Fatalf("WAIT is a success outcome: %+v", o)
	}
	if o.Stored != models.StoreSkippedAction {
		t.Errorf("stored = %s, want SKIPPED_ACTION", o.Stored)
	}
	if len(store.upserts) != 0 {
		t.Errorf("WAIT must not be stored: %+v", store.upserts)
	}
}

func TestBatchVerdictsFanOut(t *testing.T) {
	symbols := []string{"BTC-USDT", "ETH-USDT", "SOL-USDT"}
	cls := &fakeClassifier{response: strings.Join([]string{
		"SYMBOL | SCORE | ACTION",
		"BTC-USDT | 92 | BUY | breakout",
		"ETH-USDT | 40 | WAIT | range",
	}, "\n")}
	store := &fakeStore{}

	s := testScanner(symbols, cls, store)
	s.cfg.Scan.Mosaic = true
	report := models.NewCycleReport()
	s.runBatch(context.Background(), &fakeFetcher{}, report)

	if len(report.Outcomes) != 3 {
		t.Fatalf("want 3 outcomes, got %d", len(report.Outcomes))
	}
	if o := report.Outcomes["BTC-USDT"]; !o.OK || o.Stored != models.StoreStored {
		t.Errorf("BTC outcome: %+v", o)
	}
	if o := report.Outcomes["ETH-USDT"]; !o.OK || o.Stored != models.StoreSkippedAction {
		t.Errorf("ETH outcome: %+v", o)
	}
	// символ без строки в ответе — пустой вердикт, не "успех без сигнала"
	if o := report.Outcomes["SOL-USDT"]; o.OK || o.Fail != models.FailClassifierEmpty {
		t.Errorf("SOL outcome: %+v", o)
	}
}

func TestBatchClassifierFailureFailsAllFetched(t *testing.T) {
	cls := &fakeClassifier{err: &clsError{}}
	s := testScanner([]string{"BTC-USDT", "ETH-USDT"}, cls, &fakeStore{})
	report := models.NewCycleReport()
	s.runBatch(context.Background(), &fakeFetcher{}, report)

	for sym, o := range report.Outcomes {
		if o.OK || o.Fail != models.FailClassifierTransport {
			t.Errorf("%s outcome: %+v", sym, o)
		}
	}
}

func TestDuplicateReportedAsSkipped(t *testing.T) {
	cls := &fakeClassifier{response: "VERDICT: BUY\nSCORE: 90\nANALYSE: x"}
	store := &fakeStore{result: models.StoreSkippedDuplicate}
	s := testScanner([]string{"BTC-USDT"}, cls, store)
	report := models.NewCycleReport()
	s.runPerSymbol(context.Background(), &fakeFetcher{}, report)

	o := report.Outcomes["BTC-USDT"]
	if !o.OK || o.Stored != models.StoreSkippedDuplicate {
		t.Errorf("outcome: %+v", o)
	}
}

// clsError изображает транспортный отказ классификатора.
type clsError struct{}

func (*clsError) Error() string { return "http 429: quota" }
