package config

import (
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Fan-out workers hold connections concurrently; keep headroom above
	// the recipient concurrency limit.
	db.SetMaxOpenConns(cfg.FanoutRecipientConcurrency + 9)
	db.SetMaxIdleConns(5)

	return db, nil
}
