// Package sqlite stores bookings in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/store/migrations"
)

// Store is a booking.Store backed by SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and writes serialized.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := migrations.Up(ctx, migrations.SQLite, db, logger); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, logger: logger}, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// SchemaVersion reports the applied migration version.
func (s *Store) SchemaVersion(ctx context.Context) (int64, error) {
	return migrations.Version(ctx, migrations.SQLite, s.db)
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
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (id, service, stylist, date, status, client_name, client_phone)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Service, b.Stylist, b.Date, string(b.Status), b.ClientName, b.ClientPhone)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("sqlite: insert booking: %w", err)
	}
	s.logger.Debug("booking stored", "id", b.ID, "service", b.Service)
	return b, nil
}

// ListBookings returns bookings ordered by appointment date.
func (s *Store) ListBookings(ctx context.Context) ([]booking.Booking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, service, stylist, date, status, client_name, client_phone
		FROM bookings ORDER BY date ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query bookings: %w", err)
	}
	defer rows.Close()

	var out []booking.Booking
	for rows.Next() {
		var b booking.Booking
		var status string
		if err := rows.Scan(&b.ID, &b.Service, &b.Stylist, &b.Date, &status, &b.ClientName, &b.ClientPhone); err != nil {
			return nil, fmt.Errorf("sqlite: scan booking: %w", err)
		}
		b.Status = booking.Status(status)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate bookings: %w", err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
