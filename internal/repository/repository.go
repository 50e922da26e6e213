package repository

import (
	"context"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"wg-vpn-service/internal/config"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Repository provides Postgres-backed persistence for all domain records
type Repository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// New connects to Postgres and returns a ready Repository
func New(cfg config.DatabaseConfig, logger *logrus.Logger) (*Repository, error) {
	url := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)

	db, err := sqlx.Connect("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	logger.Info("Connected to database successfully")

	return &Repository{db: db, logger: logger}, nil
}

// Close closes the underlying connection pool
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks database liveness
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Transaction runs t inside a transaction, rolling back on error
func (r *Repository) Transaction(ctx context.Context, t func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := t(tx); err != nil {
		if txErr := tx.Rollback(); txErr != nil {
			return fmt.Errorf("%w (rollback error: %v)", err, txErr)
		}
		return err
	}
	return tx.Commit()
}
