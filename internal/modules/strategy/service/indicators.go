package service

import (
	"fmt"

	"github.com/bvielcanet-cmyk/crypt/internal/models"
)

const (
	emaShortPeriod = 9
	emaLongPeriod  = 21
	rsiPeriod      = 14
)

// Derive — чистая функция фич по окну свечей: EMA(9/21) и RSI Уайлдера.
// На любом непустом окне даёт результат; если окна не хватает на период
// RSI — RSI деградирует в "не определён", а не в ошибку. Ни I/O, ни
// состояния между вызовами.
func Derive(candles []models.Candle) models.Indicators {
	ind := models.Indicators{}
	if len(candles) == 0 {
		return ind
	}

	kShort := 2.0 / float64(emaShortPeriod+1)
	kLong := 2.0 / float64(emaLongPeriod+1)

	emaShort := candles[0].Close
	emaLong := candles[0].Close
	for _, c := range candles[1:] {
		emaShort = emaShort + kShort*(c.Close-emaShort)
		emaLong = emaLong + kLong*(c.Close-emaLong)
	}
	ind.EMAShort = emaShort
	ind.EMALong = emaLong

	// RSI по Уайлдеру: нужен период+1 закрытий
	if len(candles) < rsiPeriod+1 {
		return ind
	}

	var avgGain, avgLoss float64
	for i := 1; i <= rsiPeriod; i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= rsiPeriod
	avgLoss /= rsiPeriod

	alpha := 1.0 / float64(rsiPeriod)
	for i := rsiPeriod + 1; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (1-alpha)*avgGain + alpha*gain
		avgLoss = (1-alpha)*avgLoss + alpha*loss
	}

	switch {
	case avgGain == 0 && avgLoss == 0:
		ind.RSI = 50 // плоское окно
	case avgLoss == 0:
		ind.RSI = 100
	default:
		rs := avgGain / avgLoss
		ind.RSI = 100 - (100 / (1 + rs))
	}
	ind.RSIDefined = true
	return ind
}

// Summary — короткая сводка для промпта классификатора.
func Summary(ind models.Indicators) string {
	rsi := "n/a"
	if ind.RSIDefined {
		rsi = fmt.Sprintf("%.1f", ind.RSI)
	}
	return fmt.Sprintf("EMA9=%.4f EMA21=%.4f RSI14=%s", ind.EMAShort, ind.EMALong, rsi)
}
