// Package postgres stores bookings in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/store/migrations"
)

// Store is a booking.Store backed by PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open connects to dsn and applies pending migrations.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dsn == "" {
		return nil, fmt.Errorf("postgres: dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if err := Migrate(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Migrate applies pending migrations using a database/sql view of pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	_, err := migrations.Up(ctx, migrations.Postgres, db, logger)
	return err
}

// SchemaVersion reports the applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()
	return migrations.Version(ctx, migrations.Postgres, db)
}

func (s *Store) CreateBooking(ctx context.Context, req booking.Request) (booking.Booking, error) {
	b := booking.Booking{
		ID:          uuid.NewString(),
		Service:     req.Service,
		Stylist:     req.Stylist,
		Date:        req.Date,
		Status:      booking.StatusConfirmed,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bookings (id, service, stylist, date, status, client_name, client_phone)
		VALUES (@id, @service, @stylist, @date, @status, @client_name, @client_phone)
	`, pgx.NamedArgs{
		"id":           b.ID,
		"service":      b.Service,
		"stylist":      b.Stylist,
		"date":         b.Date,
		"status":       string(b.Status),
		"client_name":  b.ClientName,
		"client_phone": b.ClientPhone,
	})
	if err != nil {
		return booking.Booking{}, fmt.Errorf("postgres: insert booking: %w", err)
	}
	s.logger.Debug("booking stored", "id", b.ID, "service", b.Service)
	return b, nil
}

// ListBookings returns bookings ordered by appointment date.
func (s *Store) ListBookings(ctx context.Context) ([]booking.Booking, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, service, stylist, date, status, client_name, client_phone
		FROM bookings ORDER BY date ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: query bookings: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[booking.Booking])
	if err != nil {
		return nil, fmt.Errorf("postgres: collect bookings: %w", err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
