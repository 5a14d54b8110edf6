package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bvielcanet-cmyk/crypt/internal/models"
)

const (
	fetchAttempts   = 2
	fetchRetryDelay = 700 * time.Millisecond
)

type FetchErrKind string

const (
	FetchTransport FetchErrKind = "TRANSPORT"
	FetchNoData    FetchErrKind = "NO_DATA"
)

// FetchError — типизированный исход фетча. За эту границу ничего не
// паникует: вызывающий всегда получает либо свечи, либо *FetchError.
type FetchError struct {
	Kind   FetchErrKind
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.Symbol, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Symbol, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Candles — свечи по символу с повтором. Нотация символа транслируется
// здесь, на границе адаптера площадки. Свечи возвращаются от старых к новым.
func (s *Session) Candles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	instID := NormalizeInstID(symbol)

	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, &FetchError{Kind: FetchTransport, Symbol: symbol, Err: ctx.Err()}
			case <-time.After(fetchRetryDelay):
			}
		}

		candles, err := s.getCandles(ctx, instID, timeframe, limit)
		if err != nil {
			lastErr = err
			continue
		}
		if len(candles) == 0 {
			// пустой ответ — не транспорт, пробуем ещё раз
			lastErr = nil
			continue
		}
		return candles, nil
	}

	if lastErr != nil {
		return nil, &FetchError{Kind: FetchTransport, Symbol: symbol, Err: lastErr}
	}
	return nil, &FetchError{Kind: FetchNoData, Symbol: symbol}
}

func (s *Session) getCandles(ctx context.Context, instID, tf string, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	bar, err := okxBar(tf)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/api/v5/market/candles?instId=%s&bar=%s&limit=%d",
		s.base, url.QueryEscape(instID), url.QueryEscape(bar), limit,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(b))
	}

	var r struct {
		Code string     `json:"code"`
		Msg  string     `json:"msg"`
		Data [][]string `json:"data"`
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	if r.Code != "0" {
		return nil, fmt.Errorf("okx candles error: code=%s msg=%s", r.Code, r.Msg)
	}

	// OKX отдаёт newest-first — разворачиваем, чтобы окно шло по времени
	out := make([]models.Candle, 0, len(r.Data))
	for i := len(r.Data) - 1; i >= 0; i-- {
		row := r.Data[i]
		if len(row) < 6 {
			continue
		}

		tsMs, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		open, _ := strconv.ParseFloat(row[1], 64)
		high, _ := strconv.ParseFloat(row[2], 64)
		low, _ := strconv.ParseFloat(row[3], 64)
		closep, _ := strconv.ParseFloat(row[4], 64)
		vol, _ := strconv.ParseFloat(row[5], 64)
		if closep <= 0 {
			continue
		}

		out = append(out, models.Candle{
			Start:  time.UnixMilli(tsMs),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closep,
			Volume: vol,
		})
	}
	return out, nil
}

func okxBar(tf string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(tf)) {
	case "1m", "3m", "5m", "15m", "30m":
		return strings.ToLower(strings.TrimSpace(tf)), nil

	case "60m", "1h":
		return "1H", nil
	case "2h":
		return "2H", nil
	case "4h":
		return "4H", nil
	case "6h":
		return "6H", nil
	case "12h":
		return "12H", nil

	case "1d":
		return "1D", nil
	case "1w":
		return "1W", nil
	}
	return "", fmt.Errorf("unsupported timeframe for OKX bar: %q", tf)
}
