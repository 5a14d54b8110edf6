package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

const baseURL = "https://www.okx.com"

// apiBase перекрывается в тестах на httptest-сервер.
var apiBase = baseURL

// Mode — режим сессии OKX. Sandbox и live взаимоисключаемы в рамках
// одной сессии; public работает без ключей.
type Mode string

const (
	ModeSandbox Mode = "sandbox"
	ModeLive    Mode = "live"
	ModePublic  Mode = "public"
)

type Credentials struct {
	APIKey     string
	APISecret  string
	Passphrase string
}

func (c Credentials) Empty() bool {
	return c.APIKey == "" || c.APISecret == "" || c.Passphrase == ""
}

// Client — REST-клиент OKX под конкретный режим. Все вызовы скана — только
// GET без общего состояния, поэтому клиент безопасен для конкурентных фетчей.
type Client struct {
	http      *http.Client
	base      string
	creds     Credentials
	simulated bool // x-simulated-trading: 1
}

func NewClient(creds Credentials, mode Mode) *Client {
	return &Client{
		http:      &http.Client{Timeout: 10 * time.Second},
		base:      apiBase,
		creds:     creds,
		simulated: mode == ModeSandbox,
	}
}

func (c *Client) generateRequest(ctx context.Context, method string, requestPath string, body string) *http.Request {
	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	msg := ts + strings.ToUpper(method) + requestPath + body
	h := hmac.New(sha256.New, []byte(c.creds.APISecret))
	h.Write([]byte(msg))
	req, _ := http.NewRequestWithContext(ctx, method, c.base+requestPath, nil)
	req.Header.Set("OK-ACCESS-KEY", c.creds.APIKey)
	req.Header.Set("OK-ACCESS-SIGN", base64.StdEncoding.EncodeToString(h.Sum(nil)))
	req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.creds.Passphrase)
	if c.simulated {
		req.Header.Set("x-simulated-trading", "1")
	}
	return req
}

// NormalizeInstID — приводим нотацию символа к виду OKX (BTC/USDT -> BTC-USDT).
// Единственное место трансляции нотаций: выше по конвейеру символ опаковый.
func NormalizeInstID(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(symbol)), "/", "-")
}
