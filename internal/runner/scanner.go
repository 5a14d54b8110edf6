package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/bvielcanet-cmyk/crypt/internal/models"
	clssvc "github.com/bvielcanet-cmyk/crypt/internal/modules/classifier/service"
	"github.com/bvielcanet-cmyk/crypt/internal/modules/config"
	okxsvc "github.com/bvielcanet-cmyk/crypt/internal/modules/okx/service"
	portfoliosvc "github.com/bvielcanet-cmyk/crypt/internal/modules/portfolio/service"
	strategysvc "github.com/bvielcanet-cmyk/crypt/internal/modules/strategy/service"
	"github.com/bvielcanet-cmyk/crypt/internal/notify"
	"github.com/bvielcanet-cmyk/crypt/pkg/logger"
)

const fetchTimeout = 20 * time.Second

// Узкие границы под-конвейера. Конкретика: okx/service.Session,
// classifier/service.Classifier, portfolio/service.Store.
type candleFetcher interface {
	Candles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
}

type verdictSource interface {
	ClassifyOne(ctx context.Context, snap models.Snapshot) (string, error)
	ClassifyBatch(ctx context.Context, snaps []models.Snapshot) (string, error)
}

type signalStore interface {
	UpsertIfQualifying(ctx context.Context, sig models.Signal, entryPrice, stopPct float64, threshold int) (models.StoreResult, error)
	SaveReport(ctx context.Context, report *models.CycleReport) error
}

// Scanner — оркестратор цикла: резолв сессии, фетч окон по символам,
// вердикт классификатора, разбор, запись в портфель. Отказ одного символа
// не трогает остальные; фатален для цикла только отказ резолва.
type Scanner struct {
	cfg      *config.Config
	source   *okxsvc.SessionSource
	cls      verdictSource
	store    signalStore
	notifier notify.Notifier

	sem chan struct{}

	mu     sync.Mutex
	last   *models.CycleReport
	cycles int64
}

func NewScanner(
	cfg *config.Config,
	source *okxsvc.SessionSource,
	cls *clssvc.Classifier,
	store *portfoliosvc.Store,
	notifier notify.Notifier,
) *Scanner {
	workers := cfg.Scan.Workers
	if workers <= 0 {
		workers = 8
	}
	return &Scanner{
		cfg:      cfg,
		source:   source,
		cls:      cls,
		store:    store,
		notifier: notifier,
		sem:      make(chan struct{}, workers),
	}
}

// LastReport — отчёт последнего завершённого цикла (для health и /status).
func (s *Scanner) LastReport() *models.CycleReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// CyclesRun — сколько циклов завершилось с момента старта.
func (s *Scanner) CyclesRun() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cycles
}

// RunCycle — один полный проход по watchlist'у. Всегда возвращает отчёт
// со всеми символами: у каждого либо сигнал, либо типизированный отказ.
func (s *Scanner) RunCycle(ctx context.Context) *models.CycleReport {
	span, ctx := opentracing.StartSpanFromContext(ctx, "scan.cycle")
	defer span.Finish()

	report := models.NewCycleReport()
	report.State = models.CycleResolving

	defer func() {
		s.mu.Lock()
		s.last = report
		s.cycles++
		s.mu.Unlock()

		if err := s.store.SaveReport(ctx, report); err != nil {
			logger.Error("[SCAN] save report: %v", err)
		}
		if s.notifier != nil {
			s.notifier.SendService(ctx, summary(report))
		}
	}()

	sess, err := s.source.Get(ctx)
	if err != nil {
		// резолв сессии фатален для всего цикла
		s.source.Invalidate()
		report.Err = err.Error()
		for _, sym := range s.cfg.Scan.Symbols {
			report.Outcomes[sym] = models.Outcome{
				Symbol: sym,
				Fail:   models.FailConnectivity,
				Reason: err.Error(),
			}
		}
		report.Finish(models.CycleDone)
		logger.Error("[SCAN] connectivity: %v", err)
		return report
	}
	report.Mode = string(sess.Mode)
	span.SetTag("mode", report.Mode)

	if s.cfg.Scan.Mosaic {
		s.runBatch(ctx, sess, report)
	} else {
		s.runPerSymbol(ctx, sess, report)
	}

	report.Finish(models.CycleDone)
	logger.Info("[SCAN] cycle done: mode=%s symbols=%d stored=%d failed=%d",
		report.Mode, len(report.Outcomes), report.StoredCount(), report.FailedCount())
	return report
}

// runPerSymbol — по-символьные под-конвейеры: ограниченный пул воркеров,
// запуск с паузой pace между символами, чтобы не упереться в rate limit.
func (s *Scanner) runPerSymbol(ctx context.Context, fetch candleFetcher, report *models.CycleReport) {
	report.State = models.CycleFetching

	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, sym := range s.cfg.Scan.Symbols {
		if i > 0 && s.cfg.Scan.Pace > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.cfg.Scan.Pace):
			}
		}

		sym := sym
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.sem <- struct{}{}
			defer func() { <-s.sem }()

			out := s.scanOne(ctx, fetch, sym)
			mu.Lock()
			report.Outcomes[sym] = out
			mu.Unlock()
		}()
	}

	wg.Wait()
}

func (s *Scanner) scanOne(ctx context.Context, fetch candleFetcher, sym string) models.Outcome {
	span, ctx := opentracing.StartSpanFromContext(ctx, "scan.symbol")
	span.SetTag("symbol", sym)
	defer span.Finish()

	snap, out, ok := s.fetchSnapshot(ctx, fetch, sym)
	if !ok {
		return out
	}

	raw, err := s.cls.ClassifyOne(ctx, snap)
	if err != nil {
		return failOutcome(sym, snap.LastPx, classifierFail(err), err)
	}

	sigs := clssvc.ParseVerdicts(raw, sym)
	if len(sigs) == 0 {
		return failOutcome(sym, snap.LastPx, models.FailClassifierEmpty,
			fmt.Errorf("no parseable verdict in response"))
	}

	return s.persist(ctx, sigs[0], snap.LastPx)
}

// fetchSnapshot — свечи + индикаторы одного символа. ok=false означает
// терминальный Outcome уже заполнен.
func (s *Scanner) fetchSnapshot(ctx context.Context, fetch candleFetcher, sym string) (models.Snapshot, models.Outcome, bool) {
	fctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	candles, err := fetch.Candles(fctx, sym, s.cfg.Scan.Timeframe, s.cfg.Scan.CandleLimit)
	if err != nil {
		return models.Snapshot{}, failOutcome(sym, 0, fetchFail(err), err), false
	}

	snap := models.NewSnapshot(sym, s.cfg.Scan.Timeframe, candles)
	ind := strategysvc.Derive(candles)
	snap.Indicators = &ind
	return snap, models.Outcome{}, true
}

// persist — запись квалифицирующегося сигнала. Отказ БД не валит цикл:
// сигнал остаётся в отчёте с PERSIST_FAILURE.
func (s *Scanner) persist(ctx context.Context, sig models.Signal, lastPx float64) models.Outcome {
	res, err := s.store.UpsertIfQualifying(ctx, sig, lastPx, s.cfg.Scan.StopPct, s.cfg.Scan.Threshold)
	if err != nil {
		o := failOutcome(sig.Symbol, lastPx, models.FailPersist, err)
		o.Signal = &sig
		return o
	}
	return models.Outcome{
		Symbol: sig.Symbol,
		OK:     true,
		LastPx: lastPx,
		Signal: &sig,
		Stored: res,
	}
}

// runBatch — мозаичный режим: все окна собираются, классификатор зовётся
// один раз, ответ режется на сигналы по символам. Экономит вызовы модели,
// но отказ единственного вызова кладёт весь батч.
func (s *Scanner) runBatch(ctx context.Context, fetch candleFetcher, report *models.CycleReport) {
	report.State = models.CycleFetching

	snaps := make(map[string]models.Snapshot, len(s.cfg.Scan.Symbols))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, sym := range s.cfg.Scan.Symbols {
		sym := sym
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.sem <- struct{}{}
			defer func() { <-s.sem }()

			snap, out, ok := s.fetchSnapshot(ctx, fetch, sym)
			mu.Lock()
			defer mu.Unlock()
			if !ok {
				report.Outcomes[sym] = out
				return
			}
			snaps[sym] = snap
		}()
	}
	wg.Wait()

	if len(snaps) == 0 {
		return
	}

	report.State = models.CycleClassifying
	ordered := make([]models.Snapshot, 0, len(snaps))
	for _, sym := range s.cfg.Scan.Symbols {
		if snap, ok := snaps[sym]; ok {
			ordered = append(ordered, snap)
		}
	}

	raw, err := s.cls.ClassifyBatch(ctx, ordered)
	if err != nil {
		kind := classifierFail(err)
		for sym, snap := range snaps {
			report.Outcomes[sym] = failOutcome(sym, snap.LastPx, kind, err)
		}
		return
	}

	report.State = models.CycleParsing
	sigs := clssvc.ParseVerdicts(raw, "")
	bySymbol := make(map[string]models.Signal, len(sigs))
	for _, sig := range sigs {
		if _, dup := bySymbol[sig.Symbol]; !dup {
			bySymbol[sig.Symbol] = sig
		}
	}

	report.State = models.CyclePersisting
	for sym, snap := range snaps {
		sig, ok := bySymbol[sym]
		if !ok {
			report.Outcomes[sym] = failOutcome(sym, snap.LastPx, models.FailClassifierEmpty,
				fmt.Errorf("no verdict row for symbol"))
			continue
		}
		report.Outcomes[sym] = s.persist(ctx, sig, snap.LastPx)
	}
}

func failOutcome(sym string, lastPx float64, kind models.FailKind, err error) models.Outcome {
	o := models.Outcome{Symbol: sym, LastPx: lastPx, Fail: kind}
	if err != nil {
		o.Reason = err.Error()
	}
	return o
}

func fetchFail(err error) models.FailKind {
	var fe *okxsvc.FetchError
	if errors.As(err, &fe) && fe.Kind == okxsvc.FetchNoData {
		return models.FailFetchNoData
	}
	return models.FailFetchTransport
}

func classifierFail(err error) models.FailKind {
	var ce *clssvc.Error
	if errors.As(err, &ce) && ce.Kind == clssvc.ErrEmpty {
		return models.FailClassifierEmpty
	}
	return models.FailClassifierTransport
}

// summary — короткий отчёт цикла для сервисного чата.
func summary(r *models.CycleReport) string {
	if r.Err != "" {
		return "🛑 scan cycle failed: " + r.Err
	}

	stored := r.StoredCount()
	failed := r.FailedCount()
	icon := "✅"
	if failed > 0 {
		icon = "⚠️"
	}
	msg := fmt.Sprintf("%s scan done (%s): %d symbols, %d stored, %d failed",
		icon, r.Mode, len(r.Outcomes), stored, failed)

	for _, o := range r.Outcomes {
		if o.Stored == models.StoreStored && o.Signal != nil {
			msg += fmt.Sprintf("\n🟢 %s BUY score=%d @ %.4f", o.Symbol, o.Signal.Score, o.LastPx)
		}
	}
	return msg
}
