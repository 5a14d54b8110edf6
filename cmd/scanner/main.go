package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"github.com/bvielcanet-cmyk/crypt/internal/modules/classifier"
	"github.com/bvielcanet-cmyk/crypt/internal/modules/config"
	"github.com/bvielcanet-cmyk/crypt/internal/modules/health"
	"github.com/bvielcanet-cmyk/crypt/internal/modules/okx"
	"github.com/bvielcanet-cmyk/crypt/internal/modules/portfolio"
	"github.com/bvielcanet-cmyk/crypt/internal/modules/postgres"
	"github.com/bvielcanet-cmyk/crypt/internal/notify"
	"github.com/bvielcanet-cmyk/crypt/internal/runner"
	"github.com/bvielcanet-cmyk/crypt/pkg/logger"
	"github.com/bvielcanet-cmyk/crypt/pkg/tracing"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	logger.SetServiceName("scanner")
	tracing.SetServiceName("scanner")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		postgres.Module(),
		okx.Module(),
		classifier.Module(),
		portfolio.Module(),
		notify.Module(),
		runner.Module(),
		health.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Service.JaegerHost,
				Port: cfg.Service.JaegerPort,
			})
			if err != nil {
				// трейсинг не критичен для скана
				logger.Error("[BOOT] init tracer: %v", err)
				return nil
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),
	)
	app.Run()
}
