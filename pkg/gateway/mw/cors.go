package mw

import (
	"net/http"
	"strings"

	"github.com/vango-go/pj-assistant/pkg/gateway/config"
)

// corsRoutes lists the browser-callable JSON routes and the methods each
// accepts. /v1/assistant is absent: WebSocket upgrades are never
// preflighted and the handler checks OriginAllowed itself.
var corsRoutes = map[string][]string{
	"/v1/catalog":            {http.MethodGet},
	"/v1/bookings":           {http.MethodGet, http.MethodPost},
	"/v1/notifications":      {http.MethodGet},
	"/v1/notifications/read": {http.MethodPost},
}

// Booking creation sends JSON; the request ID lets a booking page correlate
// its call with the gateway access log.
var corsAllowedHeaders = "Content-Type, X-Request-ID"

var corsExposedHeaders = "X-Request-ID"

// OriginAllowed reports whether a browser origin may use the API. Requests
// without an Origin header (curl, native hosts) are always allowed.
func OriginAllowed(cfg config.Config, origin string) bool {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return true
	}
	_, ok := cfg.CORSAllowedOrigins[origin]
	return ok
}

func corsMethods(path string) ([]string, bool) {
	methods, ok := corsRoutes[strings.TrimSuffix(path, "/")]
	return methods, ok
}

func methodListed(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

// CORS answers preflights for the booking and notification routes and tags
// allowlisted cross-origin responses. Other routes never get CORS headers.
func CORS(cfg config.Config, next http.Handler) http.Handler {
	allowed := cfg.CORSAllowedOrigins
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		methods, browserRoute := corsMethods(r.URL.Path)
		originOK := origin != "" && len(allowed) > 0 && OriginAllowed(cfg, origin)

		requested := strings.ToUpper(strings.TrimSpace(r.Header.Get("Access-Control-Request-Method")))
		if r.Method == http.MethodOptions && requested != "" {
			if !originOK || !browserRoute || !methodListed(methods, requested) {
				http.Error(w, "cors preflight not allowed", http.StatusForbidden)
				return
			}
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", strings.Join(methods, ", ")+", "+http.MethodOptions)
			h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if originOK && browserRoute {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Vary", "Origin")
			h.Set("Access-Control-Expose-Headers", corsExposedHeaders)
		}
		next.ServeHTTP(w, r)
	})
}
