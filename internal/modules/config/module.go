package config

import "go.uber.org/fx"

// NewConfig регистрируем как fx-провайдер: конфиг читается один раз на старте.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
		),
	)
}
