package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mindloom/mindloom/server/internal/api/respond"
	"github.com/mindloom/mindloom/server/internal/api/validate"
	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/services"
)

const msgPremiumRequired = "Saving memories requires a premium subscription"

// MemoryHandler serves explicitly saved recollections (premium feature).
type MemoryHandler struct {
	svc *services.MemoryService
}

func NewMemoryHandler(svc *services.MemoryService) *MemoryHandler { return &MemoryHandler{svc: svc} }

// SaveMemory POST /api/memories
func (h *MemoryHandler) SaveMemory(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())

	var req struct {
		Summary    string    `json:"summary"`
		SourceType string    `json:"sourceType"`
		SourceID   string    `json:"sourceId"`
		SourceDate time.Time `json:"sourceDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.SourceType(req.SourceType); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if req.SourceDate.IsZero() {
		req.SourceDate = time.Now().UTC()
	}

	m, err := h.svc.Save(r.Context(), actor.Tier, &model.UserMemory{
		UserID:     actor.UserID,
		Summary:    req.Summary,
		SourceType: req.SourceType,
		SourceID:   req.SourceID,
		SourceDate: req.SourceDate,
	})
	switch {
	case err == nil:
		respond.WriteJSON(w, http.StatusCreated, m)
	case errors.Is(err, model.ErrPremiumRequired):
		respond.WriteForbidden(w, msgPremiumRequired)
	case errors.Is(err, model.ErrValidation):
		respond.WriteBadRequest(w, err.Error())
	default:
		writeInternal(w, r, err)
	}
}

// ListMemories GET /api/memories
func (h *MemoryHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())

	mems, err := h.svc.List(r.Context(), actor.Tier, actor.UserID)
	switch {
	case err == nil:
		respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"memories": mems, "count": len(mems)})
	case errors.Is(err, model.ErrPremiumRequired):
		respond.WriteForbidden(w, msgPremiumRequired)
	default:
		writeInternal(w, r, err)
	}
}

// DeleteMemory DELETE /api/memories/{memoryId}
func (h *MemoryHandler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	memoryID := mux.Vars(r)["memoryId"]

	err := h.svc.Delete(r.Context(), actor.Tier, actor.UserID, memoryID)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, model.ErrPremiumRequired):
		respond.WriteForbidden(w, msgPremiumRequired)
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "Memory not found")
	default:
		writeInternal(w, r, err)
	}
}
