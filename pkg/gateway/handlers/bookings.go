package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/gateway/apierror"
	"github.com/vango-go/pj-assistant/pkg/gateway/mw"
)

const maxBookingBodyBytes = 16 << 10

// BookingsHandler lists bookings (GET) and creates one directly (POST).
type BookingsHandler struct {
	Store   booking.Store
	Catalog booking.Catalog
	Logger  *slog.Logger
}

type createBookingRequest struct {
	Service     string `json:"service"`
	Stylist     string `json:"stylist"`
	Date        string `json:"date"`
	ClientName  string `json:"clientName"`
	ClientPhone string `json:"clientPhone"`
}

func (h BookingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		methodNotAllowed(w, r, "GET, POST")
	}
}

func (h BookingsHandler) list(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	items, err := h.Store.ListBookings(r.Context())
	if err != nil {
		h.logger().Error("list bookings failed", "request_id", reqID, "error", err)
		apierror.Write(w, reqID, err)
		return
	}
	if items == nil {
		items = []booking.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": items})
}

func (h BookingsHandler) create(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBookingBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierror.WriteJSON(w, http.StatusRequestEntityTooLarge, &apierror.Error{Type: apierror.ErrInvalidRequest, Message: "request body too large", RequestID: reqID})
			return
		}
		apierror.WriteJSON(w, http.StatusBadRequest, &apierror.Error{Type: apierror.ErrInvalidRequest, Message: "failed to read request body", RequestID: reqID})
		return
	}
	var in createBookingRequest
	if err := json.Unmarshal(body, &in); err != nil {
		apierror.WriteJSON(w, http.StatusBadRequest, &apierror.Error{Type: apierror.ErrInvalidRequest, Message: "invalid json body", RequestID: reqID})
		return
	}

	req, apiErr := h.validate(in)
	if apiErr != nil {
		apiErr.RequestID = reqID
		apierror.WriteJSON(w, apierror.StatusFromType(apiErr.Type), apiErr)
		return
	}

	b, err := h.Store.CreateBooking(r.Context(), req)
	if err != nil {
		h.logger().Error("create booking failed", "request_id", reqID, "error", err)
		apierror.Write(w, reqID, err)
		return
	}
	h.logger().Info("booking created", "request_id", reqID, "id", b.ID, "service", b.Service, "stylist", b.Stylist, "date", b.Date)
	writeJSON(w, http.StatusCreated, b)
}

func (h BookingsHandler) validate(in createBookingRequest) (booking.Request, *apierror.Error) {
	catalog := h.Catalog
	if catalog == nil {
		catalog = booking.DefaultCatalog()
	}

	if strings.TrimSpace(in.Service) == "" {
		return booking.Request{}, &apierror.Error{Type: apierror.ErrInvalidRequest, Message: "service is required", Param: "service"}
	}
	svc, ok := catalog.FindService(in.Service)
	if !ok {
		return booking.Request{}, &apierror.Error{Type: apierror.ErrInvalidRequest, Message: "unknown service", Param: "service"}
	}

	stylistName := ""
	if strings.TrimSpace(in.Stylist) != "" {
		st, ok := catalog.FindStylist(in.Stylist)
		if !ok {
			return booking.Request{}, &apierror.Error{Type: apierror.ErrInvalidRequest, Message: "unknown stylist", Param: "stylist"}
		}
		stylistName = st.Name
	} else if all := catalog.Stylists(); len(all) > 0 {
		stylistName = all[0].Name
	}

	when, err := time.Parse(time.RFC3339, strings.TrimSpace(in.Date))
	if err != nil {
		return booking.Request{}, &apierror.Error{Type: apierror.ErrInvalidRequest, Message: "date must be RFC 3339", Param: "date"}
	}

	return booking.Request{
		Service:     svc.Name,
		Stylist:     stylistName,
		Date:        when,
		ClientName:  strings.TrimSpace(in.ClientName),
		ClientPhone: strings.TrimSpace(in.ClientPhone),
	}, nil
}

func (h BookingsHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}
