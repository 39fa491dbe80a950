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

// MoodHandler serves daily mood check-ins.
type MoodHandler struct {
	svc *services.MoodService
}

func NewMoodHandler(svc *services.MoodService) *MoodHandler { return &MoodHandler{svc: svc} }

// LogMood POST /api/moods
func (h *MoodHandler) LogMood(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	var req struct {
		Day       string  `json:"day"`
		Emotion   string  `json:"emotion"`
		Intensity int     `json:"intensity"`
		Note      *string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}

	day, err := validate.Day(req.Day)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Emotion(req.Emotion); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Intensity(req.Intensity); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.Note(req.Note); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	entry, err := h.svc.Log(r.Context(), &model.MoodEntry{
		UserID:    actor.UserID,
		Day:       day,
		Emotion:   req.Emotion,
		Intensity: req.Intensity,
		Note:      req.Note,
	})
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, entry)
}

// ListMoods GET /api/moods?from=&to=
func (h *MoodHandler) ListMoods(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())

	from, to, err := parseRange(r)
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	entries, err := h.svc.ListRange(r.Context(), actor.UserID, from, to)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"moods": entries, "count": len(entries)})
}

// DeleteMood DELETE /api/moods/{day}
func (h *MoodHandler) DeleteMood(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())

	day, err := validate.Day(mux.Vars(r)["day"])
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	err = h.svc.Delete(r.Context(), actor.UserID, day)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "No mood entry for that day")
	default:
		writeInternal(w, r, err)
	}
}

// parseRange reads optional from/to query params (RFC 3339 or YYYY-MM-DD).
// Missing bounds default to a wide-open range.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

	var err error
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = parseTimeParam(raw); err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be RFC 3339 or YYYY-MM-DD")
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = parseTimeParam(raw); err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be RFC 3339 or YYYY-MM-DD")
		}
	}
	return from, to, nil
}

func parseTimeParam(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", v)
}
