package mid

import (
	"context"
	"net/http"
	"slices"

	"github.com/ardanlabs/argonsim/foundation/web"
)

// OriginAllowed reports whether the request origin is in the allowed list.
// A "*" entry allows every origin.
func OriginAllowed(origins []string, origin string) bool {
	return slices.Contains(origins, "*") || (origin != "" && slices.Contains(origins, origin))
}

// Cors sets the response headers needed for Cross-Origin Resource Sharing
// for the configured origins. A "*" entry answers every origin with a
// wildcard. Otherwise an allowed request origin is echoed back and other
// origins get no CORS headers. The simulation API only accepts GET, POST
// and OPTIONS.
func Cors(origins []string) web.Middleware {
	wildcard := slices.Contains(origins, "*")

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			origin := r.Header.Get("Origin")

			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")

			case OriginAllowed(origins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")

			default:
				return handler(ctx, w, r)
			}

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, Content-Length, Accept-Encoding")

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
