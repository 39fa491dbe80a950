package services

import (
	"context"
	"time"

	"github.com/mindloom/mindloom/server/internal/events"
	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/store"
)

// MoodService handles daily mood check-ins.
type MoodService struct {
	store store.Store
	bus   *events.Bus
}

func NewMoodService(s store.Store, bus *events.Bus) *MoodService {
	return &MoodService{store: s, bus: bus}
}

// Log records the mood for the entry's day, replacing any earlier entry for
// that day. The day is normalized to a UTC date before it reaches the store.
func (s *MoodService) Log(ctx context.Context, e *model.MoodEntry) (*model.MoodEntry, error) {
	e.Day = normalizeDay(e.Day)
	stored, err := s.store.Moods().Upsert(ctx, e)
	if err != nil {
		return nil, err
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{Kind: events.EventMoodLogged, UserID: e.UserID})
	}
	return stored, nil
}

// ListRange returns entries with day in [from, to).
func (s *MoodService) ListRange(ctx context.Context, userID string, from, to time.Time) ([]*model.MoodEntry, error) {
	return s.store.Moods().ListRange(ctx, userID, from, to)
}

// Delete removes the entry for the given day.
func (s *MoodService) Delete(ctx context.Context, userID string, day time.Time) error {
	return s.store.Moods().Delete(ctx, userID, normalizeDay(day))
}

func normalizeDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
