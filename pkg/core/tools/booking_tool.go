package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/core/types"
)

// BookServiceName is the function name the model calls to book.
const BookServiceName = "agendarServico"

const (
	bookingHour       = 10
	bookingTimeLabel  = "10:00"
	defaultDayOffset  = 1
	maxDayOffset      = 365
	bookingNoticeHead = "Agendamento via Assistente"
)

// BookingToolConfig wires the booking tool to its collaborators.
type BookingToolConfig struct {
	Catalog  booking.Catalog
	Booker   booking.Booker
	Notifier booking.Notifier
	// Cue plays the confirmation sound. Optional.
	Cue func()
	// ClientName is stored on every booking made through the assistant.
	ClientName string
	Now        func() time.Time
	Logger     *slog.Logger
}

// BookingTool books a service with a stylist at 10:00 on a day relative to
// today. It never fails: unmatched names fall back to the first catalog
// entry and collaborator errors are only logged.
type BookingTool struct {
	cfg BookingToolConfig
}

// NewBookingTool creates the booking executor.
func NewBookingTool(cfg BookingToolConfig) *BookingTool {
	if cfg.Catalog == nil {
		cfg.Catalog = booking.DefaultCatalog()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &BookingTool{cfg: cfg}
}

func (t *BookingTool) Name() string { return BookServiceName }

func (t *BookingTool) Definition() types.Tool {
	return types.Tool{
		Name:        BookServiceName,
		Description: "Agenda um serviço de barbearia para o cliente.",
		InputSchema: &types.JSONSchema{
			Type:        "object",
			Description: "Agenda um serviço de barbearia para o cliente.",
			Properties: map[string]types.JSONSchema{
				"serviceName": {Type: "string", Description: "O nome do serviço desejado."},
				"stylistName": {Type: "string", Description: "O nome do barbeiro preferido."},
				"dayOffset":   {Type: "number", Description: "Número de dias a partir de hoje."},
			},
			Required: []string{"serviceName"},
		},
	}
}

func (t *BookingTool) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	serviceQuery, _ := stringArg(input, "serviceName")
	stylistQuery, hasStylist := stringArg(input, "stylistName")
	dayOffset, ok := intArg(input, "dayOffset")
	if !ok {
		dayOffset = defaultDayOffset
	}
	dayOffset = clampInt(dayOffset, -maxDayOffset, maxDayOffset)

	serviceName := t.resolveService(serviceQuery)
	stylistName := t.resolveStylist(stylistQuery, hasStylist)

	now := t.cfg.Now()
	when := time.Date(now.Year(), now.Month(), now.Day()+dayOffset, bookingHour, 0, 0, 0, now.Location())

	if t.cfg.Booker != nil {
		b, err := t.cfg.Booker.CreateBooking(ctx, booking.Request{
			Service:    serviceName,
			Stylist:    stylistName,
			Date:       when,
			ClientName: t.cfg.ClientName,
		})
		if err != nil {
			t.cfg.Logger.Error("create booking failed", "service", serviceName, "stylist", stylistName, "error", err)
		} else {
			t.cfg.Logger.Info("booking created", "id", b.ID, "service", serviceName, "stylist", stylistName, "date", when)
		}
	}

	if t.cfg.Notifier != nil {
		err := t.cfg.Notifier.Notify(ctx, booking.Notification{
			Title:    bookingNoticeHead,
			Message:  fmt.Sprintf("O seu serviço de %s com %s foi reservado para %s às %s.", serviceName, stylistName, dayLabel(dayOffset, when), bookingTimeLabel),
			Category: booking.CategoryConfirmation,
		})
		if err != nil {
			t.cfg.Logger.Error("booking notification failed", "error", err)
		}
	}

	if t.cfg.Cue != nil {
		t.cfg.Cue()
	}

	return map[string]any{
		"status":  "success",
		"service": serviceName,
		"stylist": stylistName,
		"date":    FormatDate(when),
		"time":    bookingTimeLabel,
	}, nil
}

func (t *BookingTool) resolveService(query string) string {
	if s, ok := t.cfg.Catalog.FindService(query); ok {
		return s.Name
	}
	if all := t.cfg.Catalog.Services(); len(all) > 0 {
		return all[0].Name
	}
	return query
}

func (t *BookingTool) resolveStylist(query string, given bool) string {
	if given {
		if s, ok := t.cfg.Catalog.FindStylist(query); ok {
			return s.Name
		}
	}
	if all := t.cfg.Catalog.Stylists(); len(all) > 0 {
		return all[0].Name
	}
	return query
}

// FormatDate renders a date the Portuguese way, dd/mm/yyyy.
func FormatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func dayLabel(offset int, when time.Time) string {
	switch offset {
	case 0:
		return "hoje"
	case 1:
		return "amanhã"
	default:
		return FormatDate(when)
	}
}
