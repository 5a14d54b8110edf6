package runner

import (
	"context"
	"time"

	"go.uber.org/fx"

	"github.com/bvielcanet-cmyk/crypt/internal/modules/config"
	"github.com/bvielcanet-cmyk/crypt/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			NewScanner, // *Scanner
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			s *Scanner,
			cfg *config.Config,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						logger.Info("[SCAN] loop start: interval=%s symbols=%d mosaic=%v",
							cfg.Scan.Interval, len(cfg.Scan.Symbols), cfg.Scan.Mosaic)

						s.RunCycle(ctx)

						t := time.NewTicker(cfg.Scan.Interval)
						defer t.Stop()
						for {
							select {
							case <-ctx.Done():
								return
							case <-t.C:
								s.RunCycle(ctx)
							}
						}
					}()
					return nil
				},
			})
		}),
	)
}
