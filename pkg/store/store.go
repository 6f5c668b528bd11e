// Package store selects a booking.Store implementation by driver name.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/store/memory"
	"github.com/vango-go/pj-assistant/pkg/store/postgres"
	"github.com/vango-go/pj-assistant/pkg/store/sqlite"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the store for driver. dsn is a file path for sqlite and a
// connection string for postgres; memory ignores it.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (booking.Store, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverMemory:
		return memory.New(), nil
	case DriverSQLite, "sqlite3":
		return sqlite.Open(ctx, dsn, logger)
	case DriverPostgres, "postgresql", "pgx":
		return postgres.Open(ctx, dsn, logger)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}
