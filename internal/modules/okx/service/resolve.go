package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bvielcanet-cmyk/crypt/pkg/logger"
)

// Session — разрешённая рабочая сессия площадки. Создаётся один раз на
// процесс composition root'ом, переиспользуется всеми фетчами и
// пересоздаётся только после CONNECTIVITY-отказа.
type Session struct {
	*Client
	Mode Mode
	// Balance — USDT на момент резолва (0 для public): диагностика, не
	// источник правды по счёту.
	Balance float64
}

// ConnectivityError — все режимы из списка не прошли пробу. Сообщения проб
// сохраняются дословно по режимам: это единственная диагностика оператора,
// схлопывать их нельзя.
type ConnectivityError struct {
	Probes map[Mode]string
	order  []Mode
}

func (e *ConnectivityError) Error() string {
	var b strings.Builder
	b.WriteString("okx connectivity failed:")
	for _, m := range e.order {
		fmt.Fprintf(&b, "\n  %s: %s", m, e.Probes[m])
	}
	return b.String()
}

// Resolve — перебирает режимы в заданном порядке, по одной пробе на режим,
// возвращает первую заработавшую сессию. Повторных проб по режиму нет.
func Resolve(ctx context.Context, creds Credentials, modes []Mode) (*Session, error) {
	if len(modes) == 0 {
		modes = []Mode{ModeSandbox, ModeLive, ModePublic}
	}

	cErr := &ConnectivityError{Probes: make(map[Mode]string)}
	for _, mode := range modes {
		c := NewClient(creds, mode)

		var err error
		var bal float64
		switch mode {
		case ModePublic:
			err = c.FetchTime(ctx)
		default:
			if creds.Empty() {
				err = fmt.Errorf("no credentials for mode %s", mode)
				break
			}
			bal, err = c.FetchBalance(ctx)
		}

		if err == nil {
			logger.Info("[CONNECT] session resolved: mode=%s balance=%.2f USDT", mode, bal)
			return &Session{Client: c, Mode: mode, Balance: bal}, nil
		}

		logger.Error("[CONNECT] probe %s failed: %v", mode, err)
		cErr.Probes[mode] = err.Error()
		cErr.order = append(cErr.order, mode)
	}

	return nil, cErr
}

// ParseModes — операторский список режимов из конфига в типизированный вид.
// Неизвестные значения отбрасываются.
func ParseModes(raw []string) []Mode {
	out := make([]Mode, 0, len(raw))
	for _, r := range raw {
		switch Mode(strings.ToLower(strings.TrimSpace(r))) {
		case ModeSandbox:
			out = append(out, ModeSandbox)
		case ModeLive:
			out = append(out, ModeLive)
		case ModePublic:
			out = append(out, ModePublic)
		}
	}
	return out
}
