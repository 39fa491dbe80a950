// Package narrative generates the language-model half of a weekly insight
// run. A Client turns an aggregated week into either a list of key insights
// or a free-form narrative; callers fall back to deterministic text when the
// client errors or returns nothing.
package narrative

import (
	"context"

	"github.com/mindloom/mindloom/server/internal/model"
)

// Request is the model-facing view of one aggregated week.
type Request struct {
	Window          model.Window
	EmotionCounts   []model.LabelCount
	TopicCounts     []model.LabelCount
	MoodTrend       string
	ResilienceDelta string
	SessionDigests  []model.SessionDigest
	MemoryContext   []string
}

// Client produces generated insight content. Implementations must honor ctx
// cancellation; the pipeline runs them under a deadline.
type Client interface {
	// KeyInsights returns discrete titled observations for the week. An
	// empty slice with a nil error means the model had nothing to say.
	KeyInsights(ctx context.Context, req Request) ([]model.KeyInsight, error)

	// Narrative returns a short free-form reflection for the week.
	Narrative(ctx context.Context, req Request) (string, error)
}
