package service

import "github.com/bvielcanet-cmyk/crypt/internal/models"

// ChartRenderer — инжектируемая способность "отрисовать график".
// Ядро графиков не рисует: presentation-слой может подставить свой рендер,
// по умолчанию картинки в запросе нет.
type ChartRenderer interface {
	// RenderPNG возвращает nil, когда картинки нет — это валидный ответ.
	RenderPNG(snaps []models.Snapshot) []byte
}

type NopRenderer struct{}

func NewNopRenderer() *NopRenderer { return &NopRenderer{} }

func (NopRenderer) RenderPNG([]models.Snapshot) []byte { return nil }
