package service

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bvielcanet-cmyk/crypt/pkg/logger"
)

const publicWSURL = "wss://ws.okx.com:8443/ws/v5/public"

// Ticker — публичный поток последних цен по watchlist'у. Держит кэш
// last price для health-эндпоинта и диагностики, к самому скану не
// относится (скан берёт last price из свечей).
type Ticker struct {
	wsDialer *websocket.Dialer

	mu        sync.RWMutex
	prices    map[string]float64
	connected bool
}

func NewTicker() *Ticker {
	return &Ticker{
		wsDialer: &websocket.Dialer{},
		prices:   make(map[string]float64),
	}
}

func (t *Ticker) setPrice(instID string, px float64) {
	t.mu.Lock()
	t.prices[instID] = px
	t.mu.Unlock()
}

func (t *Ticker) Price(symbol string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.prices[NormalizeInstID(symbol)]
}

func (t *Ticker) Connected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

func (t *Ticker) setConnected(v bool) {
	t.mu.Lock()
	t.connected = v
	t.mu.Unlock()
}

// Start — подписка на tickers по всем символам с реконнектом.
// Блокируется до отмены ctx; запускать в горутине.
func (t *Ticker) Start(ctx context.Context, symbols []string) {
	args := make([]map[string]string, 0, len(symbols))
	for _, s := range symbols {
		args = append(args, map[string]string{"channel": "tickers", "instId": NormalizeInstID(s)})
	}

	retry := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := t.wsDialer.DialContext(ctx, publicWSURL, nil)
		if err != nil {
			retry++
			if retry > 8 {
				logger.Error("[WS] ticker stream gave up after %d dials: %v", retry, err)
				return
			}
			time.Sleep(time.Duration(300*retry) * time.Millisecond)
			continue
		}
		retry = 0
		t.setConnected(true)
		_ = conn.WriteJSON(map[string]any{"op": "subscribe", "args": args})

		stopPing := make(chan struct{})
		go func() {
			tk := time.NewTicker(15 * time.Second)
			defer tk.Stop()
			for {
				select {
				case <-stopPing:
					return
				case <-ctx.Done():
					return
				case <-tk.C:
					_ = conn.WriteMessage(websocket.TextMessage, []byte("ping"))
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				close(stopPing)
				_ = conn.Close()
				t.setConnected(false)
				break
			}
			var frame struct {
				Arg struct {
					Channel string `json:"channel"`
					InstID  string `json:"instId"`
				} `json:"arg"`
				Data []struct {
					Last string `json:"last"`
				} `json:"data"`
			}
			if err := json.Unmarshal(msg, &frame); err == nil &&
				frame.Arg.Channel == "tickers" && len(frame.Data) > 0 {
				if px, err := strconv.ParseFloat(frame.Data[0].Last, 64); err == nil && px > 0 {
					t.setPrice(frame.Arg.InstID, px)
				}
			}
		}

		select {
		case <-ctx.Done():
			return
		default:
			time.Sleep(1 * time.Second)
		}
	}
}
