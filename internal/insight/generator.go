package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/narrative"
)

// topN caps the dominant-emotion and recurring-theme lists.
const topN = 3

// Generator turns an aggregate into a complete insight run. The generative
// client is optional; without one every run gets the deterministic narrative.
type Generator struct {
	client  narrative.Client
	timeout time.Duration
	log     zerolog.Logger
}

func NewGenerator(client narrative.Client, timeout time.Duration, log zerolog.Logger) *Generator {
	return &Generator{client: client, timeout: timeout, log: log.With().Str("component", "generator").Logger()}
}

// Generate composes the run for a non-empty aggregate. Generation never
// fails outright on model trouble: errors and timeouts degrade to the
// deterministic narrative, so the result always carries exactly one of a
// non-empty key-insights list or a narrative.
func (g *Generator) Generate(ctx context.Context, agg *model.Aggregate) (*model.InsightRun, error) {
	if agg.Empty() {
		return nil, fmt.Errorf("no data in window: %w", model.ErrInsufficientData)
	}

	run := &model.InsightRun{
		UserID:           agg.UserID,
		WindowStart:      agg.Window.Start,
		WindowEnd:        agg.Window.End,
		DominantEmotions: topLabels(agg.EmotionCounts),
		RecurringThemes:  topLabels(agg.TopicCounts),
		MoodTrend:        agg.MoodTrend,
		ResilienceDelta:  agg.ResilienceDelta,
		SourceMeta: model.SourceMeta{
			Version:              1,
			MoodCount:            agg.MoodCount,
			SessionCount:         agg.SessionCount,
			MessageCount:         agg.MessageCount,
			MemoryCount:          len(agg.MemoryContext),
			HasMemoryContext:     len(agg.MemoryContext) > 0,
			UsedSessionSummaries: len(agg.SessionDigests) > 0,
		},
	}

	insights, text := g.generateContent(ctx, agg)
	if len(insights) > 0 {
		run.KeyInsights = insights
	} else {
		run.Narrative = &text
	}
	return run, nil
}

// generateContent tries the generative path and degrades stepwise:
// key insights, then a model narrative, then the deterministic fallback.
func (g *Generator) generateContent(ctx context.Context, agg *model.Aggregate) ([]model.KeyInsight, string) {
	if g.client == nil {
		return nil, FallbackNarrative(agg)
	}

	genCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	req := narrative.Request{
		Window:          agg.Window,
		EmotionCounts:   agg.EmotionCounts,
		TopicCounts:     agg.TopicCounts,
		MoodTrend:       agg.MoodTrend,
		ResilienceDelta: agg.ResilienceDelta,
		SessionDigests:  agg.SessionDigests,
		MemoryContext:   agg.MemoryContext,
	}

	insights, err := g.client.KeyInsights(genCtx, req)
	if err != nil {
		g.log.Warn().Err(err).Str("userId", agg.UserID).Msg("key insight generation failed, using deterministic narrative")
		return nil, FallbackNarrative(agg)
	}
	if len(insights) > 0 {
		return insights, ""
	}

	g.log.Debug().Str("userId", agg.UserID).Msg("model returned no key insights, requesting narrative")
	text, err := g.client.Narrative(genCtx, req)
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			g.log.Warn().Err(err).Str("userId", agg.UserID).Msg("narrative generation failed, using deterministic narrative")
		}
		return nil, FallbackNarrative(agg)
	}
	return nil, text
}

// topLabels returns up to topN labels ordered by count descending; equal
// counts keep their first-seen order, which []LabelCount already encodes.
func topLabels(counts []model.LabelCount) []string {
	ranked := make([]model.LabelCount, len(counts))
	copy(ranked, counts)
	// Insertion sort keeps the sort stable without pulling in sort.SliceStable
	// machinery for a handful of labels.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].Count > ranked[j-1].Count; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	n := len(ranked)
	if n > topN {
		n = topN
	}
	out := make([]string, 0, n)
	for _, lc := range ranked[:n] {
		out = append(out, lc.Label)
	}
	return out
}

// FallbackNarrative derives a short reflection purely from the aggregate.
// It is the floor of the degradation ladder and must work for any non-empty
// aggregate without external calls.
func FallbackNarrative(agg *model.Aggregate) string {
	var sb strings.Builder

	emotions := topLabels(agg.EmotionCounts)
	switch {
	case len(emotions) >= 2:
		fmt.Fprintf(&sb, "This week you mostly felt %s.", joinNatural(emotions))
	case len(emotions) == 1:
		fmt.Fprintf(&sb, "This week %s stood out in what you logged.", emotions[0])
	default:
		sb.WriteString("You checked in this week, and showing up is its own kind of progress.")
	}

	switch agg.MoodTrend {
	case model.TrendImproving:
		sb.WriteString(" Your mood lifted as the week went on.")
	case model.TrendDeclining:
		sb.WriteString(" The later part of the week felt heavier than the start.")
	}

	if themes := topLabels(agg.TopicCounts); len(themes) > 0 {
		fmt.Fprintf(&sb, " %s came up repeatedly in your conversations.", capitalize(joinNatural(themes)))
	}

	switch agg.ResilienceDelta {
	case model.ResilienceUp:
		sb.WriteString(" More of your moments turned positive toward the end of the week.")
	case model.ResilienceDown:
		sb.WriteString(" Be gentle with yourself; the week asked a lot of you.")
	}

	return sb.String()
}

func joinNatural(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	default:
		return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
