package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
)

// Runs only against a disposable database named by PJ_TEST_POSTGRES_DSN.
func TestStore_RoundTrip(t *testing.T) {
	dsn := os.Getenv("PJ_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PJ_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if _, err := s.pool.Exec(ctx, "DELETE FROM bookings"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	date := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	created, err := s.CreateBooking(ctx, booking.Request{Service: "Corte de Cabelo", Stylist: "Marco Silva", Date: date})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	list, err := s.ListBookings(ctx)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ID || !list[0].Date.Equal(date) {
		t.Fatalf("list = %+v", list)
	}
	if list[0].Status != booking.StatusConfirmed {
		t.Fatalf("status = %q", list[0].Status)
	}
}

func TestOpen_RequiresDSN(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), "", nil); err == nil {
		t.Fatal("expected error")
	}
}
