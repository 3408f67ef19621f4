package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"setup_scanner/pkg/logger"
)

// Conn: общее у пула и pgx.Tx.
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PoolConfig struct {
	DSN            string
	MaxConns       int32
	ConnectTimeout time.Duration
}

// NewPool разбирает DSN и применяет лимиты поверх него. Нулевые поля не трогают DSN.
func NewPool(ctx context.Context, conf PoolConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(conf.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if conf.MaxConns > 0 {
		pc.MaxConns = conf.MaxConns
	}
	if conf.ConnectTimeout > 0 {
		pc.ConnConfig.ConnectTimeout = conf.ConnectTimeout
	}
	return pgxpool.NewWithConfig(ctx, pc)
}

type PgTxManager struct {
	pool *pgxpool.Pool
}

func NewPgTxManager(pool *pgxpool.Pool) *PgTxManager {
	return &PgTxManager{pool: pool}
}

func (m *PgTxManager) Conn() Conn { return m.pool }

func (m *PgTxManager) Ping(ctx context.Context) error { return m.pool.Ping(ctx) }

func (m *PgTxManager) Close() { m.pool.Close() }

// RunMaster выполняет fn в read committed транзакции: commit если fn без ошибки,
// rollback при ошибке или панике (панику пробрасываем дальше).
func (m *PgTxManager) RunMaster(ctx context.Context, fn func(ctxTx context.Context, tx pgx.Tx) error) (err error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			logger.Error("tx panic, rollback: %v", p)
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	if err = fn(ctx, tx); err != nil {
		return fmt.Errorf("tx fn: %w", err)
	}
	return nil
}
