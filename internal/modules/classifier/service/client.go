package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const geminiBase = "https://generativelanguage.googleapis.com/v1beta"

// apiBase перекрывается в тестах.
var apiBase = geminiBase

type ErrKind string

const (
	ErrTransport ErrKind = "TRANSPORT"
	ErrEmpty     ErrKind = "EMPTY"
)

// Error — типизированный отказ классификатора. Возвращается, не паникует:
// решение пропустить символ или подставить WAIT принимает вызывающий.
type Error struct {
	Kind ErrKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("classifier: %s", e.Kind)
	}
	return fmt.Sprintf("classifier: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Config struct {
	Model     string
	APIKey    string
	MaxTokens int
	Timeout   time.Duration
}

// Client — вызов generateContent: текст промпта плюс опционально один
// отрендеренный график (PNG). Одна модель на процесс, имя приходит из
// конфига уже готовым (см. cmd/modelprobe).
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
	GenerationConfig struct {
		MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
	} `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Generate — один вызов модели на запрос. imagePNG может быть nil.
func (c *Client) Generate(ctx context.Context, prompt string, imagePNG []byte) (string, error) {
	req := geminiRequest{}
	parts := []geminiPart{{Text: prompt}}
	if len(imagePNG) > 0 {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: "image/png",
			Data:     base64.StdEncoding.EncodeToString(imagePNG),
		}})
	}
	req.Contents = []geminiContent{{Parts: parts}}
	req.GenerationConfig.MaxOutputTokens = c.cfg.MaxTokens

	body, err := json.Marshal(req)
	if err != nil {
		return "", &Error{Kind: ErrTransport, Err: fmt.Errorf("marshal request: %w", err)}
	}

	u := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		apiBase, url.PathEscape(c.cfg.Model), url.QueryEscape(c.cfg.APIKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: ErrTransport, Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &Error{Kind: ErrTransport, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: ErrTransport, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode/100 != 2 {
		// сюда же попадают квоты и rate limit (429)
		return "", &Error{Kind: ErrTransport, Err: fmt.Errorf("http %d: %s", resp.StatusCode, string(rb))}
	}

	var gr geminiResponse
	if err := json.Unmarshal(rb, &gr); err != nil {
		return "", &Error{Kind: ErrTransport, Err: fmt.Errorf("decode: %w", err)}
	}
	if gr.Error != nil {
		return "", &Error{Kind: ErrTransport, Err: fmt.Errorf("api error %d %s: %s", gr.Error.Code, gr.Error.Status, gr.Error.Message)}
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", &Error{Kind: ErrEmpty}
	}

	var b strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", &Error{Kind: ErrEmpty}
	}
	return text, nil
}
