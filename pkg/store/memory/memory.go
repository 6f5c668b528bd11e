// Package memory keeps bookings in process memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
)

// Store is an in-memory booking.Store.
type Store struct {
	mu       sync.RWMutex
	bookings []booking.Booking
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

func (s *Store) CreateBooking(ctx context.Context, req booking.Request) (booking.Booking, error) {
	if err := ctx.Err(); err != nil {
		return booking.Booking{}, err
	}
	b := booking.Booking{
		ID:          uuid.NewString(),
		Service:     req.Service,
		Stylist:     req.Stylist,
		Date:        req.Date,
		Status:      booking.StatusConfirmed,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
	}
	s.mu.Lock()
	s.bookings = append(s.bookings, b)
	s.mu.Unlock()
	return b, nil
}

// ListBookings returns bookings ordered by appointment date.
func (s *Store) ListBookings(ctx context.Context) ([]booking.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	out := append([]booking.Booking(nil), s.bookings...)
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }
