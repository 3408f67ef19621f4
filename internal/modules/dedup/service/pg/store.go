package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"setup_scanner/internal/models"
	"setup_scanner/pkg/db"
)

const schema = `
CREATE TABLE IF NOT EXISTS alerts_sent (
	symbol       text        NOT NULL,
	setup        text        NOT NULL,
	last_sent_at timestamptz NOT NULL,
	PRIMARY KEY (symbol, setup)
)`

// Store: alerts_sent в Postgres поверх PgTxManager.
type Store struct {
	db *db.PgTxManager
}

// New создаёт таблицу, если её нет.
func New(ctx context.Context, tx *db.PgTxManager) (*Store, error) {
	if _, err := tx.Conn().Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("pg.New: %w", err)
	}
	return &Store{db: tx}, nil
}

func (s *Store) Load(ctx context.Context) (out []models.AlertRecord, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Load: %w", err)
		}
	}()

	rows, err := s.db.Conn().Query(ctx,
		`SELECT symbol, setup, last_sent_at FROM alerts_sent ORDER BY symbol, setup`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AlertRecord, error) {
		var r models.AlertRecord
		err := row.Scan(&r.Key.Symbol, &r.Key.Setup, &r.LastSentAt)
		r.LastSentAt = r.LastSentAt.UTC()
		return r, err
	})
}

func (s *Store) Put(ctx context.Context, rec models.AlertRecord) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Put: %w", err)
		}
	}()
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, `
			INSERT INTO alerts_sent (symbol, setup, last_sent_at) VALUES ($1, $2, $3)
			ON CONFLICT (symbol, setup) DO UPDATE SET last_sent_at = EXCLUDED.last_sent_at`,
			rec.Key.Symbol, rec.Key.Setup, rec.LastSentAt.UTC())
		return err
	})
}

func (s *Store) Delete(ctx context.Context, key models.AlertKey) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.Delete: %w", err)
		}
	}()
	return s.db.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx,
			`DELETE FROM alerts_sent WHERE symbol = $1 AND setup = $2`, key.Symbol, key.Setup)
		return err
	})
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}
