package postgres

import (
	"context"
	"fmt"
	"time"

	"setup_scanner/pkg/db"
)

// Connect открывает пул и проверяет соединение.
func Connect(ctx context.Context, dsn string) (*db.PgTxManager, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: empty dsn (db_dsn / DATABASE_DSN)")
	}
	// алерт-стору хватает пары соединений
	pool, err := db.NewPool(ctx, db.PoolConfig{
		DSN:            dsn,
		MaxConns:       4,
		ConnectTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}

	tm := db.NewPgTxManager(pool)
	if err := tm.Ping(ctx); err != nil {
		tm.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return tm, nil
}
