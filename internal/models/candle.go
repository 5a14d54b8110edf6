package models

import "time"

// Candle — одна закрытая OHLCV-свеча фиксированного таймфрейма.
type Candle struct {
	Start  time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Snapshot — срез рынка по одному символу на момент скана.
// Свечи идут от старых к новым; LastPx = close последней свечи.
type Snapshot struct {
	Symbol     string
	Timeframe  string
	Candles    []Candle
	LastPx     float64
	Indicators *Indicators
}

// Indicators — производные фичи по окну свечей.
// RSIDefined=false когда окна не хватило на период RSI.
type Indicators struct {
	EMAShort   float64
	EMALong    float64
	RSI        float64
	RSIDefined bool
}

func NewSnapshot(symbol, tf string, candles []Candle) Snapshot {
	s := Snapshot{Symbol: symbol, Timeframe: tf, Candles: candles}
	if n := len(candles); n > 0 {
		s.LastPx = candles[n-1].Close
	}
	return s
}
