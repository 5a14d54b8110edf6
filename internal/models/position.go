package models

import "time"

type PositionStatus string

const (
	StatusOpen   PositionStatus = "OPEN"
	StatusClosed PositionStatus = "CLOSED"
)

// PositionRecord — бумажная позиция. Инвариант: не больше одной OPEN-записи
// на символ, это держит частичный уникальный индекс в БД.
type PositionRecord struct {
	ID         int64
	Symbol     string
	EntryPrice float64
	StopPrice  float64 // 0 => стоп не выставлен
	Status     PositionStatus
	Score      int
	Verdict    string
	CreatedAt  time.Time
}
