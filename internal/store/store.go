package store

import (
	"context"
	"time"

	"github.com/mindloom/mindloom/server/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (e.g., postgres, sqlite).
type Store interface {
	Moods() Moods
	Sessions() Sessions
	Messages() Messages
	UserMemories() UserMemories
	Insights() Insights
}

// Moods persists one mood entry per user per UTC day.
type Moods interface {
	// Upsert writes the entry for its day, replacing an existing one.
	Upsert(ctx context.Context, e *model.MoodEntry) (*model.MoodEntry, error)
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]*model.MoodEntry, error)
	Delete(ctx context.Context, userID string, day time.Time) error
}

type Sessions interface {
	Create(ctx context.Context, s *model.ChatSession) (*model.ChatSession, error)
	Get(ctx context.Context, userID, sessionID string) (*model.ChatSession, error)
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]*model.ChatSession, error)
	SetSummary(ctx context.Context, userID, sessionID, summary string, progress map[string]interface{}) error
}

// Messages is append-only; appending also bumps the owning session's
// message count and end time in the same transaction.
type Messages interface {
	Append(ctx context.Context, m *model.ChatMessage) (*model.ChatMessage, error)
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]*model.ChatMessage, error)
}

type UserMemories interface {
	Create(ctx context.Context, m *model.UserMemory) (*model.UserMemory, error)
	List(ctx context.Context, userID string) ([]*model.UserMemory, error)
	ListRange(ctx context.Context, userID string, from, to time.Time) ([]*model.UserMemory, error)
	Delete(ctx context.Context, userID, memoryID string) error
}

// Insights persists at most one run per (user, window start, window end).
// Insert surfaces the uniqueness constraint as model.ErrConflict; that
// constraint, not the FindByWindow pre-check, is the authoritative guard.
type Insights interface {
	Insert(ctx context.Context, r *model.InsightRun) (*model.InsightRun, error)
	FindByWindow(ctx context.Context, userID string, start, end time.Time) (*model.InsightRun, error)
	List(ctx context.Context, userID string, limit int) ([]*model.InsightRun, error)
	Delete(ctx context.Context, userID, insightID string) error
}
