package service

import (
	"time"

	"github.com/bvielcanet-cmyk/crypt/internal/models"
	okxsvc "github.com/bvielcanet-cmyk/crypt/internal/modules/okx/service"
	"github.com/bvielcanet-cmyk/crypt/internal/runner"
)

// State — живое представление состояния сервиса для health-эндпоинтов.
// Ничего не хранит сам, читает из компонентов.
type State struct {
	startedAt time.Time

	source  *okxsvc.SessionSource
	ticker  *okxsvc.Ticker
	scanner *runner.Scanner
}

func NewState(source *okxsvc.SessionSource, ticker *okxsvc.Ticker, scanner *runner.Scanner) *State {
	return &State{
		startedAt: time.Now(),
		source:    source,
		ticker:    ticker,
		scanner:   scanner,
	}
}

// Ready — сессия площадки зарезолвлена.
func (s *State) Ready() bool { return s.source.Current() != nil }

func (s *State) Mode() string {
	if sess := s.source.Current(); sess != nil {
		return string(sess.Mode)
	}
	return ""
}

// Balance — USDT на момент резолва сессии (0 для public-режима).
func (s *State) Balance() float64 {
	if sess := s.source.Current(); sess != nil {
		return sess.Balance
	}
	return 0
}

func (s *State) WSConnected() bool { return s.ticker.Connected() }

func (s *State) LastCycle() *models.CycleReport { return s.scanner.LastReport() }

func (s *State) CyclesRun() int64 { return s.scanner.CyclesRun() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
