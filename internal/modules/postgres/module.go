package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/bvielcanet-cmyk/crypt/internal/modules/config"
	"github.com/bvielcanet-cmyk/crypt/pkg/db"
)

// Схема накатывается на старте, миграционного инструмента нет:
// таблиц две, IF NOT EXISTS достаточно. Частичный уникальный индекс —
// ровно тот инвариант, на который опирается portfolio.Store.
const schema = `
CREATE TABLE IF NOT EXISTS paper_portfolio (
	id          BIGSERIAL PRIMARY KEY,
	symbol      TEXT        NOT NULL,
	entry_price NUMERIC     NOT NULL,
	stop_price  NUMERIC,
	status      TEXT        NOT NULL DEFAULT 'OPEN',
	score       INT,
	verdict     TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS paper_portfolio_open_symbol
	ON paper_portfolio (symbol) WHERE status = 'OPEN';

CREATE TABLE IF NOT EXISTS scan_reports (
	id         BIGSERIAL PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	state      TEXT        NOT NULL,
	report     JSONB       NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Module регистрируем как fx-провайдер.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(ctx)
				if err != nil {
					return nil, err
				}

				return db.NewPgTxManager(poolMaster), nil
			},
		),
		fx.Invoke(
			func(ctx context.Context, m *db.PgTxManager, lc fx.Lifecycle) error {
				if _, err := m.Conn().Exec(ctx, schema); err != nil {
					return fmt.Errorf("apply schema: %w", err)
				}
				lc.Append(fx.Hook{
					OnStop: func(context.Context) error {
						m.Close()
						return nil
					},
				})
				return nil
			},
		),
	)
}
