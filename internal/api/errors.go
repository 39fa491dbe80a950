package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mindloom/mindloom/server/internal/api/respond"
)

const msgInternalError = "Something went wrong, please try again later"

// writeInternal logs the underlying failure and returns an opaque 500 body.
// Wrapped store and driver errors never reach the client.
func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	log.Error().
		Stack().
		Err(err).
		Str("method", r.Method).
		Str("url", r.URL.Path).
		Msg("request failed")
	respond.WriteInternalError(w, msgInternalError)
}
