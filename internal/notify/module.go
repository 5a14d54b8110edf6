package notify

import (
	"context"

	"go.uber.org/fx"

	"github.com/bvielcanet-cmyk/crypt/internal/modules/config"
	portfoliosvc "github.com/bvielcanet-cmyk/crypt/internal/modules/portfolio/service"
	"github.com/bvielcanet-cmyk/crypt/pkg/logger"
)

// Без токена телеграма работаем через Stdout — локальный запуск и тесты
// не требуют бота.
func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			func(cfg *config.Config, store *portfoliosvc.Store) (Notifier, error) {
				if cfg.Telegram.Token == "" {
					logger.Info("[NOTIFY] telegram token is empty, using stdout")
					return NewStdout(), nil
				}
				return NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, store)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, n Notifier, ctx context.Context) {
			tg, ok := n.(*Telegram)
			if !ok {
				return
			}
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					return tg.Start(ctx)
				},
				OnStop: func(_ context.Context) error {
					tg.Stop()
					return nil
				},
			})
		}),
	)
}
