package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/LuckyBoy34/taxi/internal/dialog"
)

type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// PostgresStorage — архив оформленных заказов.
type PostgresStorage struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPostgresStorage(ctx context.Context, cfg Config, logger *zap.Logger) (*PostgresStorage, error) {
	const operation = "storage.NewPostgresStorage"

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName,
	)

	var db *sqlx.DB

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...")

	err := backoff.RetryNotify(
		func() error {
			var err error
			db, err = sqlx.ConnectContext(ctx, "postgres", connStr)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err = db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		retryPolicy,
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return &PostgresStorage{db: db, logger: logger}, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// Migrate brings the schema up to date.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.db.DB, s.logger)
}

// SaveOrder archives a finalized order and returns its id.
func (s *PostgresStorage) SaveOrder(ctx context.Context, order dialog.Order) (int64, error) {
	const query = `
		INSERT INTO orders (
			chat_id, start_address, end_address, phone, taxi_type,
			distance_km, cost, created_at
		) VALUES (
			:chat_id, :start_address, :end_address, :phone, :taxi_type,
			:distance_km, :cost, :created_at
		) RETURNING id`

	rows, err := s.db.NamedQueryContext(ctx, query, order)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	defer rows.Close()

	var id int64
	if !rows.Next() {
		return 0, fmt.Errorf("insert order: no id returned")
	}
	if err := rows.Scan(&id); err != nil {
		return 0, fmt.Errorf("scan order id: %w", err)
	}
	return id, nil
}

// RecentOrders returns the latest archived orders, newest first.
func (s *PostgresStorage) RecentOrders(ctx context.Context, limit int) ([]dialog.Order, error) {
	const query = `
		SELECT chat_id, start_address, end_address, phone, taxi_type,
		       distance_km, cost, created_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1`

	var orders []dialog.Order
	if err := s.db.SelectContext(ctx, &orders, query, limit); err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	return orders, nil
}
