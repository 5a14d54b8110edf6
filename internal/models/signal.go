package models

// Action — вердикт классификатора по символу.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionWait Action = "WAIT"
	ActionSell Action = "SELL"
)

// Signal — распарсенный типизированный вердикт.
// Score всегда в диапазоне 0..100.
type Signal struct {
	Symbol    string
	Action    Action
	Score     int
	Rationale string
}

// Qualifies — порог пропуска в портфель: только BUY и score не ниже порога.
func (s Signal) Qualifies(threshold int) bool {
	return s.Action == ActionBuy && s.Score >= threshold
}
