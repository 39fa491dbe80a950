package model

import "time"

// Window is one 7-day reporting interval. Start is inclusive, End exclusive,
// both in UTC so boundaries do not drift across client time zones.
type Window struct {
	Start time.Time `json:"windowStart"`
	End   time.Time `json:"windowEnd"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// MoodEntry is one mood log per user per UTC calendar day.
// A second write for the same day replaces the first (upsert semantics).
type MoodEntry struct {
	UserID         string     `json:"userId"`
	Day            time.Time  `json:"day"`
	Emotion        string     `json:"emotion"`
	Intensity      int        `json:"intensity"`
	Note           *string    `json:"note,omitempty"`
	CreationTime   time.Time  `json:"creationTime"`
	LastUpdateTime *time.Time `json:"lastUpdateTime,omitempty"`
}

// ChatSession is one conversation with the companion.
type ChatSession struct {
	SessionID    string                 `json:"sessionId"`
	UserID       string                 `json:"userId"`
	StartedAt    time.Time              `json:"startedAt"`
	EndedAt      *time.Time             `json:"endedAt,omitempty"`
	MessageCount int                    `json:"messageCount"`
	Summary      *string                `json:"summary,omitempty"`
	Progress     map[string]interface{} `json:"progress,omitempty"`
}

// ChatMessage is one turn within a session. Append-only, never mutated.
type ChatMessage struct {
	MessageID    string    `json:"messageId"`
	SessionID    string    `json:"sessionId"`
	UserID       string    `json:"userId"`
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	Emotion      *string   `json:"emotion,omitempty"`
	Intensity    *int      `json:"intensity,omitempty"`
	Topics       []string  `json:"topics,omitempty"`
	CreationTime time.Time `json:"creationTime"`
}

// UserMemory is a recollection the user explicitly asked to keep.
// Read-only input to the aggregator, premium tier only.
type UserMemory struct {
	MemoryID     string    `json:"memoryId"`
	UserID       string    `json:"userId"`
	Summary      string    `json:"summary"`
	SourceType   string    `json:"sourceType"`
	SourceID     string    `json:"sourceId"`
	SourceDate   time.Time `json:"sourceDate"`
	CreationTime time.Time `json:"creationTime"`
}

// Mood trend labels produced by the aggregator.
const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Resilience delta labels.
const (
	ResilienceUp   = "up"
	ResilienceDown = "down"
	ResilienceFlat = "flat"
)

// Entitlement tiers recognized by the authorizer.
const (
	TierFree    = "free"
	TierPremium = "premium"
)

// KeyInsight is one discrete, titled observation inside an insight run.
type KeyInsight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Polarity    string `json:"polarity"`
}

// SourceMeta records which inputs produced an insight run. Core fields are
// versioned and explicit; Extra is the extension point for future producers.
type SourceMeta struct {
	Version              int                    `json:"version"`
	MoodCount            int                    `json:"moodCount"`
	SessionCount         int                    `json:"sessionCount"`
	MessageCount         int                    `json:"messageCount"`
	MemoryCount          int                    `json:"memoryCount"`
	HasMemoryContext     bool                   `json:"hasMemoryContext"`
	UsedSessionSummaries bool                   `json:"usedSessionSummaries"`
	Extra                map[string]interface{} `json:"extra,omitempty"`
}

// InsightRun is one generated weekly reflection. At most one row exists per
// (user, window start, window end); rows are immutable once written.
// Exactly one of KeyInsights and Narrative is populated.
type InsightRun struct {
	InsightID        string       `json:"insightId"`
	UserID           string       `json:"userId"`
	WindowStart      time.Time    `json:"windowStart"`
	WindowEnd        time.Time    `json:"windowEnd"`
	DominantEmotions []string     `json:"dominantEmotions"`
	RecurringThemes  []string     `json:"recurringThemes"`
	MoodTrend        string       `json:"moodTrend"`
	ResilienceDelta  string       `json:"resilienceDelta"`
	Narrative        *string      `json:"narrative,omitempty"`
	KeyInsights      []KeyInsight `json:"keyInsights,omitempty"`
	SourceMeta       SourceMeta   `json:"sourceMeta"`
	CreationTime     time.Time    `json:"creationTime"`
}

// LabelCount is one row of a frequency table. Order of a []LabelCount is
// first-seen order, which doubles as the tie-break when ranking.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// SessionDigest carries a session summary plus progress indicators into the
// narrative prompt.
type SessionDigest struct {
	SessionID string                 `json:"sessionId"`
	Summary   string                 `json:"summary"`
	Progress  map[string]interface{} `json:"progress,omitempty"`
}

// Aggregate is the bundle the aggregator hands to the generator.
type Aggregate struct {
	UserID          string          `json:"userId"`
	Window          Window          `json:"window"`
	MoodCount       int             `json:"moodCount"`
	SessionCount    int             `json:"sessionCount"`
	MessageCount    int             `json:"messageCount"`
	EmotionCounts   []LabelCount    `json:"emotionCounts"`
	TopicCounts     []LabelCount    `json:"topicCounts"`
	MoodTrend       string          `json:"moodTrend"`
	ResilienceDelta string          `json:"resilienceDelta"`
	MemoryContext   []string        `json:"memoryContext,omitempty"`
	SessionDigests  []SessionDigest `json:"sessionDigests,omitempty"`
}

// Empty reports whether the window held no usable signal at all. Generation
// must be rejected for empty aggregates instead of producing a vacuous report.
func (a *Aggregate) Empty() bool {
	return a.MoodCount == 0 && a.SessionCount == 0
}
