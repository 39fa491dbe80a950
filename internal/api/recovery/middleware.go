// Package recovery turns handler panics into clean 500 responses so a single
// bad request cannot take down the service.
package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"github.com/mindloom/mindloom/server/internal/api/respond"
)

// Middleware intercepts panics from downstream handlers, logs details, and
// returns the standard error envelope with HTTP 500. Panic values never reach
// the client.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().
					Str("component", "http").
					Interface("panic", rec).
					Str("method", r.Method).
					Str("url", r.URL.String()).
					Str("remote", r.RemoteAddr).
					Str("user_agent", r.UserAgent()).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				respond.WriteInternalError(w, "Something went wrong, please try again later")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
