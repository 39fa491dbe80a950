package api

import (
	"context"
	"net/http"

	"github.com/mindloom/mindloom/server/internal/api/respond"
	"github.com/mindloom/mindloom/server/internal/auth"
)

type contextKey string

const actorContextKey contextKey = "actor"

// WithAuth wraps a router with API-key authentication. The resolved actor is
// attached to the request context; handlers read it via ActorFromContext.
func WithAuth(authorizer auth.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, err := auth.ExtractAPIKey(r)
			if err != nil {
				respond.WriteUnauthorized(w, err.Error())
				return
			}
			actor, err := authorizer.Authorize(r.Context(), apiKey, r.Method+" "+r.URL.Path)
			if err != nil {
				respond.WriteUnauthorized(w, "invalid API key")
				return
			}
			ctx := context.WithValue(r.Context(), actorContextKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext returns the authenticated actor, or nil outside WithAuth.
func ActorFromContext(ctx context.Context) *auth.ActorInfo {
	actor, _ := ctx.Value(actorContextKey).(*auth.ActorInfo)
	return actor
}
