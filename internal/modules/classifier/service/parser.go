package service

import (
	"strings"

	"github.com/bvielcanet-cmyk/crypt/internal/models"
)

// ParseVerdicts — толерантный построчный разбор ответа модели.
// Понимает обе грамматики: pipe-строки `SYMBOL | SCORE | ACTION [| RATIONALE]`
// и помеченный одиночный формат VERDICT:/SCORE:/ANALYSE:. Модель —
// недетерминированный генератор текста, поэтому кривая строка молча
// отбрасывается и никогда не валит разбор остального ответа.
// По ожидаемым символам парсер НЕ фильтрует: это дело квалификации ниже.
func ParseVerdicts(raw string, fallbackSymbol string) []models.Signal {
	lines := strings.Split(raw, "\n")

	signals := parsePipeRows(lines)
	if labeled, ok := parseLabeled(lines, fallbackSymbol); ok {
		signals = append(signals, labeled)
	}
	return signals
}

func parsePipeRows(lines []string) []models.Signal {
	var out []models.Signal
	for _, line := range lines {
		if !strings.Contains(line, "|") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			continue
		}

		sym := strings.TrimSpace(parts[0])
		action, ok := parseAction(parts[2])
		if sym == "" || !ok {
			continue
		}
		// заголовочные строки типа "SYMBOL | SCORE | ACTION"
		if strings.EqualFold(sym, "SYMBOL") || strings.EqualFold(sym, "SYMBOLE") {
			continue
		}

		sig := models.Signal{
			Symbol: sym,
			Score:  parseScore(parts[1]),
			Action: action,
		}
		if len(parts) > 3 {
			sig.Rationale = strings.TrimSpace(parts[3])
		}
		out = append(out, sig)
	}
	return out
}

func parseLabeled(lines []string, symbol string) (models.Signal, bool) {
	sig := models.Signal{Symbol: symbol}
	haveVerdict := false
	for _, line := range lines {
		label, rest, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(label)) {
		case "VERDICT":
			if a, ok := parseAction(rest); ok {
				sig.Action = a
				haveVerdict = true
			}
		case "SCORE":
			sig.Score = parseScore(rest)
		case "ANALYSE", "ANALYSIS":
			sig.Rationale = strings.TrimSpace(rest)
		}
	}
	if !haveVerdict || symbol == "" {
		return models.Signal{}, false
	}
	return sig, true
}

func parseAction(field string) (models.Action, bool) {
	f := strings.ToUpper(field)
	// "BUY" внутри поля достаточно: модели любят дописывать вокруг
	switch {
	case strings.Contains(f, "BUY"):
		return models.ActionBuy, true
	case strings.Contains(f, "SELL"):
		return models.ActionSell, true
	case strings.Contains(f, "WAIT"), strings.Contains(f, "HOLD"):
		return models.ActionWait, true
	}
	return "", false
}

// parseScore — выкидываем всё, кроме цифр; поле без цифр читается как 0.
func parseScore(field string) int {
	n := 0
	seen := false
	for _, r := range field {
		if r < '0' || r > '9' {
			continue
		}
		seen = true
		n = n*10 + int(r-'0')
		if n > 100 {
			return 100
		}
	}
	if !seen {
		return 0
	}
	return n
}
