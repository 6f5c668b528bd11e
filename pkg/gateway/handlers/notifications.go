package handlers

import (
	"net/http"
	"strings"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
	"github.com/vango-go/pj-assistant/pkg/gateway/apierror"
	"github.com/vango-go/pj-assistant/pkg/gateway/mw"
)

// NotificationsHandler serves the customer's inbox. GET lists it; POST
// /v1/notifications/read marks one (?id=) or all notifications as read.
type NotificationsHandler struct {
	Inbox *booking.Inbox
}

func (h NotificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/v1/notifications" && r.Method == http.MethodGet:
		items := h.Inbox.List()
		if items == nil {
			items = []booking.Notification{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"notifications": items, "unread": h.Inbox.Unread()})

	case r.URL.Path == "/v1/notifications/read" && r.Method == http.MethodPost:
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		if id == "" {
			h.Inbox.MarkAllRead()
		} else if !h.Inbox.MarkRead(id) {
			reqID, _ := mw.RequestIDFrom(r.Context())
			apierror.WriteJSON(w, http.StatusNotFound, &apierror.Error{Type: apierror.ErrNotFound, Message: "notification not found", Param: "id", RequestID: reqID})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"unread": h.Inbox.Unread()})

	case r.URL.Path == "/v1/notifications":
		methodNotAllowed(w, r, "GET")
	case r.URL.Path == "/v1/notifications/read":
		methodNotAllowed(w, r, "POST")
	default:
		NotFoundHandler{}.ServeHTTP(w, r)
	}
}
