package service

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"

	"github.com/bvielcanet-cmyk/crypt/internal/models"
	"github.com/bvielcanet-cmyk/crypt/pkg/db"
)

// Store — бумажный портфель поверх Postgres. Единственный инвариант,
// который он охраняет: не больше одной OPEN-записи на символ. Дисциплина —
// один атомарный INSERT .. ON CONFLICT DO NOTHING по частичному уникальному
// индексу; никакого глобального лока не нужно, разные символы не
// конкурируют за один ключ.
type Store struct {
	db *db.PgTxManager
}

func NewStore(db *db.PgTxManager) *Store {
	return &Store{db: db}
}

// UpsertIfQualifying — кладём сигнал, только если он проходит порог.
// stopPct > 0 печёт в запись симулируемый стоп от цены входа.
func (s *Store) UpsertIfQualifying(
	ctx context.Context,
	sig models.Signal,
	entryPrice float64,
	stopPct float64,
	threshold int,
) (res models.StoreResult, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.UpsertIfQualifying: %w", err)
		}
	}()

	if sig.Action != models.ActionBuy {
		return models.StoreSkippedAction, nil
	}
	if sig.Score < threshold {
		return models.StoreSkippedScore, nil
	}

	var stop any
	if stopPct > 0 && entryPrice > 0 {
		stop = entryPrice * (1 - stopPct/100)
	}

	tag, err := s.db.Conn().Exec(ctx, `
		INSERT INTO paper_portfolio (symbol, entry_price, stop_price, status, score, verdict)
		VALUES ($1, $2, $3, 'OPEN', $4, $5)
		ON CONFLICT (symbol) WHERE status = 'OPEN' DO NOTHING`,
		sig.Symbol, entryPrice, stop, sig.Score, sig.Rationale,
	)
	if err != nil {
		return models.StoreNone, err
	}
	if tag.RowsAffected() == 0 {
		// по символу уже висит OPEN-позиция
		return models.StoreSkippedDuplicate, nil
	}
	return models.StoreStored, nil
}

// Open — все открытые записи.
func (s *Store) Open(ctx context.Context) ([]models.PositionRecord, error) {
	return s.selectWhere(ctx, `WHERE status = 'OPEN'`)
}

// All — вся история портфеля.
func (s *Store) All(ctx context.Context) ([]models.PositionRecord, error) {
	return s.selectWhere(ctx, ``)
}

func (s *Store) selectWhere(ctx context.Context, where string) (out []models.PositionRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.select: %w", err)
		}
	}()

	rows, err := s.db.Conn().Query(ctx, `
		SELECT id, symbol, entry_price, COALESCE(stop_price, 0), status,
		       COALESCE(score, 0), COALESCE(verdict, ''), created_at
		FROM paper_portfolio `+where+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r models.PositionRecord
		var status string
		if err := rows.Scan(&r.ID, &r.Symbol, &r.EntryPrice, &r.StopPrice,
			&status, &r.Score, &r.Verdict, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Status = models.PositionStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close — ручное закрытие позиции (вне сканирующего цикла).
func (s *Store) Close(ctx context.Context, symbol string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.Close: %w", err)
		}
	}()
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctxTx,
			`UPDATE paper_portfolio SET status = 'CLOSED' WHERE symbol = $1 AND status = 'OPEN'`,
			symbol,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("no open position for %s", symbol)
		}
		return nil
	})
}

// Delete — полное удаление истории по символу.
func (s *Store) Delete(ctx context.Context, symbol string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.Delete: %w", err)
		}
	}()
	_, err = s.db.Conn().Exec(ctx, `DELETE FROM paper_portfolio WHERE symbol = $1`, symbol)
	return err
}

// SaveReport — отчёт цикла целиком в JSONB, для разбора полётов.
func (s *Store) SaveReport(ctx context.Context, report *models.CycleReport) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.SaveReport: %w", err)
		}
	}()

	data, err := sonic.Marshal(report)
	if err != nil {
		return err
	}
	_, err = s.db.Conn().Exec(ctx, `
		INSERT INTO scan_reports (started_at, state, report) VALUES ($1, $2, $3)`,
		report.StartedAt, string(report.State), data,
	)
	return err
}
