package insight

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/narrative"
)

// stubClient scripts the two generative calls.
type stubClient struct {
	insights    []model.KeyInsight
	insightsErr error
	text        string
	textErr     error
	delay       time.Duration

	insightCalls  int
	narrativeCall int
}

func (s *stubClient) KeyInsights(ctx context.Context, _ narrative.Request) ([]model.KeyInsight, error) {
	s.insightCalls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.insights, s.insightsErr
}

func (s *stubClient) Narrative(ctx context.Context, _ narrative.Request) (string, error) {
	s.narrativeCall++
	return s.text, s.textErr
}

func sampleAggregate() *model.Aggregate {
	win := CurrentWindow(time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC))
	return &model.Aggregate{
		UserID:    "u1",
		Window:    win,
		MoodCount: 4, SessionCount: 1, MessageCount: 6,
		EmotionCounts: []model.LabelCount{
			{Label: "anxious", Count: 3},
			{Label: "calm", Count: 3},
			{Label: "hopeful", Count: 1},
			{Label: "tired", Count: 5},
		},
		TopicCounts: []model.LabelCount{
			{Label: "work", Count: 4},
			{Label: "sleep", Count: 2},
		},
		MoodTrend:       model.TrendImproving,
		ResilienceDelta: model.ResilienceUp,
		SessionDigests:  []model.SessionDigest{{SessionID: "s1", Summary: "deadline pressure"}},
		MemoryContext:   []string{"finished the presentation"},
	}
}

func newTestGenerator(c narrative.Client, timeout time.Duration) *Generator {
	return NewGenerator(c, timeout, zerolog.Nop())
}

func TestGenerateRejectsEmptyAggregate(t *testing.T) {
	g := newTestGenerator(nil, 0)
	_, err := g.Generate(context.Background(), &model.Aggregate{UserID: "u1"})
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestGenerateUsesKeyInsights(t *testing.T) {
	stub := &stubClient{insights: []model.KeyInsight{
		{Title: "Anxiety eased", Description: "Your week ended calmer than it began.", Category: "mood", Polarity: "positive"},
	}}
	g := newTestGenerator(stub, time.Second)

	run, err := g.Generate(context.Background(), sampleAggregate())
	require.NoError(t, err)

	require.Len(t, run.KeyInsights, 1)
	assert.Nil(t, run.Narrative)
	assert.Equal(t, 0, stub.narrativeCall, "narrative path must not run when insights exist")
}

func TestGenerateFallsBackToModelNarrativeOnZeroInsights(t *testing.T) {
	stub := &stubClient{text: "A steady week with a hopeful turn."}
	g := newTestGenerator(stub, time.Second)

	run, err := g.Generate(context.Background(), sampleAggregate())
	require.NoError(t, err)

	assert.Empty(t, run.KeyInsights)
	require.NotNil(t, run.Narrative)
	assert.Equal(t, "A steady week with a hopeful turn.", *run.Narrative)
	assert.Equal(t, 1, stub.insightCalls)
	assert.Equal(t, 1, stub.narrativeCall)
}

func TestGenerateDeterministicFallbackOnError(t *testing.T) {
	stub := &stubClient{insightsErr: errors.New("model unavailable")}
	g := newTestGenerator(stub, time.Second)
	agg := sampleAggregate()

	run, err := g.Generate(context.Background(), agg)
	require.NoError(t, err)

	assert.Empty(t, run.KeyInsights)
	require.NotNil(t, run.Narrative)
	assert.Equal(t, FallbackNarrative(agg), *run.Narrative)
	assert.Equal(t, 0, stub.narrativeCall, "narrative call skipped when the first call already failed")
}

func TestGenerateDeterministicFallbackOnTimeout(t *testing.T) {
	stub := &stubClient{delay: 200 * time.Millisecond, insights: []model.KeyInsight{{Title: "late", Description: "too late"}}}
	g := newTestGenerator(stub, 20*time.Millisecond)
	agg := sampleAggregate()

	run, err := g.Generate(context.Background(), agg)
	require.NoError(t, err)
	require.NotNil(t, run.Narrative)
	assert.Equal(t, FallbackNarrative(agg), *run.Narrative)
}

func TestGenerateWithoutClient(t *testing.T) {
	g := newTestGenerator(nil, 0)
	agg := sampleAggregate()

	run, err := g.Generate(context.Background(), agg)
	require.NoError(t, err)
	require.NotNil(t, run.Narrative)
	assert.Equal(t, FallbackNarrative(agg), *run.Narrative)
}

func TestGenerateRankings(t *testing.T) {
	g := newTestGenerator(nil, 0)
	run, err := g.Generate(context.Background(), sampleAggregate())
	require.NoError(t, err)

	// Top three by count; anxious/calm tie broken by first-seen order.
	assert.Equal(t, []string{"tired", "anxious", "calm"}, run.DominantEmotions)
	assert.Equal(t, []string{"work", "sleep"}, run.RecurringThemes)
}

func TestGenerateSourceMeta(t *testing.T) {
	g := newTestGenerator(nil, 0)
	agg := sampleAggregate()

	run, err := g.Generate(context.Background(), agg)
	require.NoError(t, err)

	meta := run.SourceMeta
	assert.Equal(t, 1, meta.Version)
	assert.Equal(t, 4, meta.MoodCount)
	assert.Equal(t, 1, meta.SessionCount)
	assert.Equal(t, 6, meta.MessageCount)
	assert.Equal(t, 1, meta.MemoryCount)
	assert.True(t, meta.HasMemoryContext)
	assert.True(t, meta.UsedSessionSummaries)
}

func TestFallbackNarrativeMentionsSignals(t *testing.T) {
	text := FallbackNarrative(sampleAggregate())

	assert.Contains(t, text, "tired")
	assert.Contains(t, text, "anxious")
	assert.Contains(t, text, "mood lifted")
	assert.Contains(t, text, "Work and sleep")
	assert.Contains(t, text, "positive toward the end")
}

func TestFallbackNarrativeSessionsOnly(t *testing.T) {
	win := CurrentWindow(time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC))
	agg := &model.Aggregate{
		UserID: "u1", Window: win,
		SessionCount: 2, MessageCount: 3,
		MoodTrend:       model.TrendStable,
		ResilienceDelta: model.ResilienceFlat,
	}
	text := FallbackNarrative(agg)
	assert.NotEmpty(t, text)
	assert.Contains(t, text, "checked in this week")
}
