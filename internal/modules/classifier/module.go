package classifier

import (
	"go.uber.org/fx"

	"github.com/bvielcanet-cmyk/crypt/internal/modules/classifier/service"
	"github.com/bvielcanet-cmyk/crypt/internal/modules/config"
)

func Module() fx.Option {
	return fx.Module("classifier",
		fx.Provide(
			func(cfg *config.Config) *service.Client {
				return service.NewClient(service.Config{
					Model:     cfg.Classifier.Model,
					APIKey:    cfg.Classifier.APIKey,
					MaxTokens: cfg.Classifier.MaxTokens,
					Timeout:   cfg.Classifier.Timeout,
				})
			},
			func() service.ChartRenderer { return service.NewNopRenderer() },
			service.New, // *service.Classifier
		),
	)
}
