package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"setup_scanner/internal/models"
)

// Store: таблица alerts_sent в SQLite (WAL, один writer).
type Store struct {
	db *sql.DB
}

func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS alerts_sent (
			symbol       TEXT    NOT NULL,
			setup        TEXT    NOT NULL,
			last_sent_at INTEGER NOT NULL,
			PRIMARY KEY (symbol, setup)
		);
	`)
	return err
}

func (s *Store) Load(ctx context.Context) ([]models.AlertRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, setup, last_sent_at FROM alerts_sent ORDER BY symbol, setup`)
	if err != nil {
		return nil, fmt.Errorf("sqlite load: %w", err)
	}
	defer rows.Close()

	var out []models.AlertRecord
	for rows.Next() {
		var (
			r  models.AlertRecord
			ns int64
		)
		if err := rows.Scan(&r.Key.Symbol, &r.Key.Setup, &ns); err != nil {
			return nil, fmt.Errorf("sqlite scan: %w", err)
		}
		r.LastSentAt = time.Unix(0, ns).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Put(ctx context.Context, rec models.AlertRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts_sent (symbol, setup, last_sent_at) VALUES (?, ?, ?)
		ON CONFLICT(symbol, setup) DO UPDATE SET last_sent_at = excluded.last_sent_at`,
		rec.Key.Symbol, rec.Key.Setup, rec.LastSentAt.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("sqlite put: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key models.AlertKey) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM alerts_sent WHERE symbol = ? AND setup = ?`, key.Symbol, key.Setup)
	if err != nil {
		return fmt.Errorf("sqlite delete: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
