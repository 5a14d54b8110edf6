package service

import (
	"context"

	"github.com/bvielcanet-cmyk/crypt/internal/models"
)

// Classifier — сборка запроса (текст + опциональный график) и один вызов
// модели. Ошибки транспорта/квот/пустого ответа приходят типизированным
// *Error, дальше решает оркестратор.
type Classifier struct {
	client   *Client
	renderer ChartRenderer
}

func New(client *Client, renderer ChartRenderer) *Classifier {
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &Classifier{client: client, renderer: renderer}
}

// ClassifyOne — вердикт по одному снапшоту (грамматика VERDICT/SCORE/ANALYSE).
func (c *Classifier) ClassifyOne(ctx context.Context, snap models.Snapshot) (string, error) {
	img := c.renderer.RenderPNG([]models.Snapshot{snap})
	return c.client.Generate(ctx, BuildPrompt(snap), img)
}

// ClassifyBatch — один вызов на все снапшоты (pipe-строки). Выгоднее по
// round-trip'ам, но отказ вызова кладёт весь батч.
func (c *Classifier) ClassifyBatch(ctx context.Context, snaps []models.Snapshot) (string, error) {
	img := c.renderer.RenderPNG(snaps)
	return c.client.Generate(ctx, BuildBatchPrompt(snaps), img)
}
