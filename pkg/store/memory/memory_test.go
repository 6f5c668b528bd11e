package memory

import (
	"context"
	"testing"
	"time"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
)

func TestStore_CreateAndList(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	later := time.Date(2025, 3, 2, 10, 0, 0, 0, time.Local)
	sooner := later.Add(-24 * time.Hour)

	first, err := s.CreateBooking(ctx, booking.Request{Service: "Corte", Stylist: "Marco", Date: later})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if first.ID == "" || first.Status != booking.StatusConfirmed {
		t.Fatalf("booking = %+v", first)
	}
	if _, err := s.CreateBooking(ctx, booking.Request{Service: "Barba", Stylist: "Marco", Date: sooner}); err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	// Same slot twice is allowed.
	if _, err := s.CreateBooking(ctx, booking.Request{Service: "Corte", Stylist: "Marco", Date: later}); err != nil {
		t.Fatalf("CreateBooking duplicate: %v", err)
	}

	list, err := s.ListBookings(ctx)
	if err != nil {
		t.Fatalf("ListBookings: %v", err)
	}
	if len(list) != 3 || list[0].Service != "Barba" {
		t.Fatalf("list = %+v", list)
	}
}

func TestStore_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().CreateBooking(ctx, booking.Request{}); err == nil {
		t.Fatal("expected context error")
	}
}
