package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// FetchBalance — дешёвый аутентифицированный вызов: и проба живости режима,
// и источник баланса USDT для диагностики.
func (c *Client) FetchBalance(ctx context.Context) (float64, error) {
	resp, err := c.http.Do(c.generateRequest(ctx, http.MethodGet, "/api/v5/account/balance?ccy=USDT", ""))
	if err != nil {
		return 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return 0, fmt.Errorf("http %d: %s", resp.StatusCode, string(rb))
	}

	var payload struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			TotalEq string `json:"totalEq"`
			Details []struct {
				Ccy     string `json:"ccy"`
				CashBal string `json:"cashBal"`
			} `json:"details"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rb, &payload); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if payload.Code != "0" {
		return 0, fmt.Errorf("okx balance error: code=%s msg=%s", payload.Code, payload.Msg)
	}
	if len(payload.Data) == 0 {
		return 0, nil
	}

	for _, d := range payload.Data[0].Details {
		if d.Ccy == "USDT" {
			v, _ := strconv.ParseFloat(d.CashBal, 64)
			return v, nil
		}
	}
	v, _ := strconv.ParseFloat(payload.Data[0].TotalEq, 64)
	return v, nil
}

// FetchTime — публичная проба живости: не требует ключей и проходит всегда,
// когда площадка доступна.
func (c *Client) FetchTime(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/v5/public/time", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(rb))
	}

	var payload struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(rb, &payload); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if payload.Code != "0" {
		return fmt.Errorf("okx time error: code=%s msg=%s", payload.Code, payload.Msg)
	}
	return nil
}
