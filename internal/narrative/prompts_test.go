package narrative

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mindloom/mindloom/server/internal/model"
)

func sampleRequest() Request {
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	return Request{
		Window:          model.Window{Start: start, End: start.AddDate(0, 0, 7)},
		EmotionCounts:   []model.LabelCount{{Label: "anxious", Count: 3}, {Label: "calm", Count: 2}},
		TopicCounts:     []model.LabelCount{{Label: "work", Count: 4}},
		MoodTrend:       model.TrendImproving,
		ResilienceDelta: model.ResilienceUp,
		SessionDigests: []model.SessionDigest{
			{SessionID: "s1", Summary: "talked about deadline pressure"},
		},
		MemoryContext: []string{"finished the big presentation"},
	}
}

func TestRenderRequestIncludesAllSignals(t *testing.T) {
	body := renderRequest(sampleRequest())

	assert.Contains(t, body, "2026-08-24")
	assert.Contains(t, body, "2026-08-30") // inclusive last day, not the exclusive bound
	assert.Contains(t, body, "Mood trend: improving")
	assert.Contains(t, body, "anxious (3x), calm (2x)")
	assert.Contains(t, body, "work (4x)")
	assert.Contains(t, body, "talked about deadline pressure")
	assert.Contains(t, body, "finished the big presentation")
}

func TestRenderRequestOmitsEmptySections(t *testing.T) {
	req := sampleRequest()
	req.EmotionCounts = nil
	req.MemoryContext = nil

	body := renderRequest(req)
	assert.NotContains(t, body, "Emotions logged")
	assert.NotContains(t, body, "Remembered moment")
}

func TestNormalizeInsight(t *testing.T) {
	in, ok := normalizeInsight(model.KeyInsight{
		Title:       "  Sleep improved  ",
		Description: "You reported sleeping better toward the weekend.",
		Category:    "Habit",
		Polarity:    "POSITIVE",
	})
	assert.True(t, ok)
	assert.Equal(t, "Sleep improved", in.Title)
	assert.Equal(t, "habit", in.Category)
	assert.Equal(t, "positive", in.Polarity)
}

func TestNormalizeInsightDefaultsUnknownLabels(t *testing.T) {
	in, ok := normalizeInsight(model.KeyInsight{
		Title:       "A pattern",
		Description: "Something recurring.",
		Category:    "astrology",
		Polarity:    "mixed",
	})
	assert.True(t, ok)
	assert.Equal(t, defaultCategory, in.Category)
	assert.Equal(t, defaultPolarity, in.Polarity)
}

func TestNormalizeInsightDropsBlankItems(t *testing.T) {
	_, ok := normalizeInsight(model.KeyInsight{Title: "   ", Description: "text"})
	assert.False(t, ok)

	_, ok = normalizeInsight(model.KeyInsight{Title: "title", Description: strings.Repeat(" ", 4)})
	assert.False(t, ok)
}
