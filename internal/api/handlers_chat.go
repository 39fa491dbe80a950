package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mindloom/mindloom/server/internal/api/respond"
	"github.com/mindloom/mindloom/server/internal/api/validate"
	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/services"
)

// ChatHandler serves companion sessions and messages.
type ChatHandler struct {
	svc *services.ChatService
}

func NewChatHandler(svc *services.ChatService) *ChatHandler { return &ChatHandler{svc: svc} }

// StartSession POST /api/chat/sessions
func (h *ChatHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())

	sess, err := h.svc.StartSession(r.Context(), actor.UserID)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, sess)
}

// ListSessions GET /api/chat/sessions?from=&to=
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())

	from, to, err := parseRange(r)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	sessions, err := h.svc.ListSessions(r.Context(), actor.UserID, from, to)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions, "count": len(sessions)})
}

// AppendMessage POST /api/chat/sessions/{sessionId}/messages
func (h *ChatHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	sessionID := mux.Vars(r)["sessionId"]

	var req struct {
		Role      string   `json:"role"`
		Content   string   `json:"content"`
		Emotion   *string  `json:"emotion"`
		Intensity *int     `json:"intensity"`
		Topics    []string `json:"topics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	if err := validate.Role(req.Role); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Content(req.Content); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if req.Emotion != nil {
		if err := validate.Emotion(*req.Emotion); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	if req.Intensity != nil {
		if err := validate.Intensity(*req.Intensity); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	if err := validate.Topics(req.Topics); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	msg, err := h.svc.AppendMessage(r.Context(), &model.ChatMessage{
		SessionID: sessionID,
		UserID:    actor.UserID,
		Role:      req.Role,
		Content:   req.Content,
		Emotion:   req.Emotion,
		Intensity: req.Intensity,
		Topics:    req.Topics,
	})
	switch {
	case err == nil:
		respond.WriteJSON(w, http.StatusCreated, msg)
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "Session not found")
	default:
		writeInternal(w, r, err)
	}
}

// CloseSession PUT /api/chat/sessions/{sessionId}/summary
func (h *ChatHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	sessionID := mux.Vars(r)["sessionId"]

	var req struct {
		Summary  string                 `json:"summary"`
		Progress map[string]interface{} `json:"progress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Summary == "" {
		respond.WriteBadRequest(w, "summary is required")
		return
	}

	err := h.svc.CloseSession(r.Context(), actor.UserID, sessionID, req.Summary, req.Progress)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "Session not found")
	default:
		writeInternal(w, r, err)
	}
}
