// Package api is the HTTP transport. Handlers authenticate via the shared
// middleware, translate domain errors into the response taxonomy, and leave
// policy to the services layer.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/mindloom/mindloom/server/internal/api/respond"
	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/services"
)

// User-facing rejection messages for the generate operation.
const (
	msgDuplicateInsight  = "Insight already exists for this week"
	msgInsufficientData  = "Not enough data this week to generate reflection"
	msgGenerationFailure = "Could not generate reflection, please try again later"
)

// InsightHandler serves the weekly reflection endpoints.
type InsightHandler struct {
	svc *services.InsightService
}

func NewInsightHandler(svc *services.InsightService) *InsightHandler {
	return &InsightHandler{svc: svc}
}

// GenerateInsight POST /api/insights/generate
func (h *InsightHandler) GenerateInsight(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())

	run, err := h.svc.Generate(r.Context(), actor.UserID, actor.Tier)
	switch {
	case err == nil:
		respond.WriteJSON(w, http.StatusCreated, run)
	case errors.Is(err, model.ErrConflict):
		respond.WriteConflict(w, msgDuplicateInsight)
	case errors.Is(err, model.ErrInsufficientData):
		respond.WriteUnprocessable(w, msgInsufficientData)
	default:
		log.Error().Stack().Err(err).Str("user_id", actor.UserID).Msg("insight generation failed")
		respond.WriteInternalError(w, msgGenerationFailure)
	}
}

// GetCurrentInsight GET /api/insights/current
func (h *InsightHandler) GetCurrentInsight(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())

	run, err := h.svc.Current(r.Context(), actor.UserID)
	switch {
	case err == nil:
		respond.WriteJSON(w, http.StatusOK, run)
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "No insight for the current week")
	default:
		writeInternal(w, r, err)
	}
}

// ListInsights GET /api/insights?limit=
func (h *InsightHandler) ListInsights(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.WriteBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := h.svc.List(r.Context(), actor.UserID, limit)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"insights": runs, "count": len(runs)})
}

// DeleteInsight DELETE /api/insights/{insightId}
func (h *InsightHandler) DeleteInsight(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	insightID := mux.Vars(r)["insightId"]

	err := h.svc.Delete(r.Context(), actor.UserID, insightID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "Insight not found")
	default:
		writeInternal(w, r, err)
	}
}
