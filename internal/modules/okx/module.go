package okx

import (
	"context"

	"go.uber.org/fx"

	"github.com/bvielcanet-cmyk/crypt/internal/modules/config"
	"github.com/bvielcanet-cmyk/crypt/internal/modules/okx/service"
)

func Module() fx.Option {
	return fx.Module("okx",
		fx.Provide(
			func(cfg *config.Config) *service.SessionSource {
				creds := service.Credentials{
					APIKey:     cfg.OKX.APIKey,
					APISecret:  cfg.OKX.APISecret,
					Passphrase: cfg.OKX.Passphrase,
				}
				return service.NewSessionSource(creds, service.ParseModes(cfg.OKX.AuthModes))
			},
			service.NewTicker,
		),
		fx.Invoke(func(lc fx.Lifecycle, t *service.Ticker, cfg *config.Config, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go t.Start(ctx, cfg.Scan.Symbols)
					return nil
				},
			})
		}),
	)
}
