package service

import (
	"fmt"
	"strings"

	"github.com/bvielcanet-cmyk/crypt/internal/models"
	strategy "github.com/bvielcanet-cmyk/crypt/internal/modules/strategy/service"
)

// Промпт жёстко фиксирует грамматику ответа: остальной конвейер парсит
// только её, всё прочее отбрасывается.

// BuildPrompt — одиночный символ, ответ в формате VERDICT/SCORE/ANALYSE.
func BuildPrompt(snap models.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyse %s at %.6f$ on the %s timeframe.\n", snap.Symbol, snap.LastPx, snap.Timeframe)
	if snap.Indicators != nil {
		fmt.Fprintf(&b, "Indicators: %s\n", strategy.Summary(*snap.Indicators))
	}
	b.WriteString("Reply with EXACTLY three lines:\n")
	b.WriteString("VERDICT: <BUY|WAIT|SELL>\n")
	b.WriteString("SCORE: <0-100>\n")
	b.WriteString("ANALYSE: <one short reason>\n")
	return b.String()
}

// BuildBatchPrompt — мозаичный запрос: все символы одним вызовом,
// ответ построчно SYMBOL | SCORE | ACTION | RATIONALE.
func BuildBatchPrompt(snaps []models.Snapshot) string {
	var b strings.Builder
	b.WriteString("Analyse these markets. Data: ")
	for _, s := range snaps {
		fmt.Fprintf(&b, "%s:%.6f$ ", s.Symbol, s.LastPx)
	}
	b.WriteString("\n")
	for _, s := range snaps {
		if s.Indicators != nil {
			fmt.Fprintf(&b, "%s %s\n", s.Symbol, strategy.Summary(*s.Indicators))
		}
	}
	b.WriteString("Score each from 0 to 100. Reply one line per symbol, nothing else:\n")
	b.WriteString("SYMBOL | SCORE | ACTION | RATIONALE\n")
	b.WriteString("ACTION is one of BUY, WAIT, SELL.\n")
	return b.String()
}
