package portfolio

import (
	"go.uber.org/fx"

	"github.com/bvielcanet-cmyk/crypt/internal/modules/portfolio/service"
)

func Module() fx.Option {
	return fx.Module("portfolio",
		fx.Provide(
			service.NewStore,
		),
	)
}
