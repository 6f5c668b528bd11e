// Package booking holds the barbershop domain: the service and stylist
// catalog, booking records and customer notifications, plus the collaborator
// interfaces the assistant writes through.
package booking

import (
	"context"
	"time"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Service is a bookable catalog entry.
type Service struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Price       float64 `json:"price" yaml:"price"`
	Duration    int     `json:"duration" yaml:"duration"` // minutes
	Description string  `json:"description,omitempty" yaml:"description"`
	Image       string  `json:"image,omitempty" yaml:"image"`
}

// Stylist is a barber that can be booked.
type Stylist struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Role      string `json:"role,omitempty" yaml:"role"`
	Specialty string `json:"specialty,omitempty" yaml:"specialty"`
	Bio       string `json:"bio,omitempty" yaml:"bio"`
	Avatar    string `json:"avatar,omitempty" yaml:"avatar"`
	Email     string `json:"email,omitempty" yaml:"email"`
}

// Booking is a persisted appointment. Records are append-only from the
// assistant's point of view; double booking is allowed.
type Booking struct {
	ID          string    `json:"id" db:"id"`
	Service     string    `json:"service" db:"service"`
	Stylist     string    `json:"stylist" db:"stylist"`
	Date        time.Time `json:"date" db:"date"`
	Status      Status    `json:"status" db:"status"`
	ClientName  string    `json:"clientName,omitempty" db:"client_name"`
	ClientPhone string    `json:"clientPhone,omitempty" db:"client_phone"`
}

// Request carries the fields a caller chooses when creating a booking.
type Request struct {
	Service     string
	Stylist     string
	Date        time.Time
	ClientName  string
	ClientPhone string
}

// Booker creates bookings.
type Booker interface {
	CreateBooking(ctx context.Context, req Request) (Booking, error)
}

// Store is a Booker that can also list what it holds.
type Store interface {
	Booker
	ListBookings(ctx context.Context) ([]Booking, error)
	Ping(ctx context.Context) error
	Close() error
}

// Category distinguishes notification kinds.
type Category string

const (
	CategoryConfirmation Category = "confirmation"
	CategoryReminder     Category = "reminder"
)

// Notification is a message surfaced to the customer.
type Notification struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Category Category  `json:"type"`
	Date     time.Time `json:"date"`
	Read     bool      `json:"read"`
}

// Notifier delivers notifications. Only Title, Message and Category are
// required; the notifier assigns the rest.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
