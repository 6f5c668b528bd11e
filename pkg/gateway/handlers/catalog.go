package handlers

import (
	"net/http"

	"github.com/vango-go/pj-assistant/pkg/core/booking"
)

type CatalogHandler struct {
	Catalog booking.Catalog
}

func (h CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"services": h.Catalog.Services(),
		"stylists": h.Catalog.Stylists(),
	})
}
