package insight

import (
	"context"
	"fmt"
	"time"

	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/store"
)

// Trend thresholds on the late-vs-early average intensity delta.
const (
	trendThreshold      = 0.75
	resilienceThreshold = 0.15
)

// positiveEmotions marks labels that count toward the resilience signal.
var positiveEmotions = map[string]bool{
	"calm":     true,
	"content":  true,
	"excited":  true,
	"grateful": true,
	"happy":    true,
	"hopeful":  true,
	"proud":    true,
	"relaxed":  true,
}

// Aggregator reduces a user's in-window records into the bundle the
// generator consumes. It only ever reads; mood and chat data are never
// mutated here.
type Aggregator struct {
	store store.Store
}

func NewAggregator(s store.Store) *Aggregator { return &Aggregator{store: s} }

// Aggregate queries mood entries, chat sessions/messages, and (premium only)
// stored memories within the window and reduces them. Any query failure
// aborts the whole call; empty sub-results are valid.
func (a *Aggregator) Aggregate(ctx context.Context, userID, tier string, win model.Window) (*model.Aggregate, error) {
	moodEntries, err := a.store.Moods().ListRange(ctx, userID, win.Start, win.End)
	if err != nil {
		return nil, fmt.Errorf("aggregate mood entries: %w", err)
	}
	sessions, err := a.store.Sessions().ListRange(ctx, userID, win.Start, win.End)
	if err != nil {
		return nil, fmt.Errorf("aggregate chat sessions: %w", err)
	}
	msgs, err := a.store.Messages().ListRange(ctx, userID, win.Start, win.End)
	if err != nil {
		return nil, fmt.Errorf("aggregate chat messages: %w", err)
	}

	agg := &model.Aggregate{
		UserID:       userID,
		Window:       win,
		MoodCount:    len(moodEntries),
		SessionCount: len(sessions),
		MessageCount: len(msgs),
	}

	emotions := newFrequencyTable()
	topics := newFrequencyTable()
	for _, e := range moodEntries {
		emotions.add(e.Emotion)
	}
	for _, m := range msgs {
		if m.Emotion != nil && *m.Emotion != "" {
			emotions.add(*m.Emotion)
		}
		for _, topic := range m.Topics {
			topics.add(topic)
		}
	}
	agg.EmotionCounts = emotions.counts
	agg.TopicCounts = topics.counts

	agg.MoodTrend = classifyTrend(moodEntries, win)
	agg.ResilienceDelta = classifyResilience(moodEntries, msgs, win)

	for _, s := range sessions {
		if s.Summary != nil && *s.Summary != "" {
			agg.SessionDigests = append(agg.SessionDigests, model.SessionDigest{
				SessionID: s.SessionID,
				Summary:   *s.Summary,
				Progress:  s.Progress,
			})
		}
	}

	// The sole feature gate in the pipeline: memory context is folded in for
	// premium callers only, enforced here rather than hidden in the UI.
	if tier == model.TierPremium {
		mems, err := a.store.UserMemories().ListRange(ctx, userID, win.Start, win.End)
		if err != nil {
			return nil, fmt.Errorf("aggregate memory context: %w", err)
		}
		for _, m := range mems {
			agg.MemoryContext = append(agg.MemoryContext, m.Summary)
		}
	}

	return agg, nil
}

// frequencyTable counts labels preserving first-seen order.
type frequencyTable struct {
	index  map[string]int
	counts []model.LabelCount
}

func newFrequencyTable() *frequencyTable {
	return &frequencyTable{index: make(map[string]int)}
}

func (t *frequencyTable) add(label string) {
	if i, ok := t.index[label]; ok {
		t.counts[i].Count++
		return
	}
	t.index[label] = len(t.counts)
	t.counts = append(t.counts, model.LabelCount{Label: label, Count: 1})
}

// classifyTrend compares average mood intensity between the early and late
// halves of the window. Both halves need at least one entry; otherwise the
// week is called stable.
func classifyTrend(entries []*model.MoodEntry, win model.Window) string {
	mid := windowMidpoint(win)
	earlyAvg, earlyN := halfAverage(entries, mid, true)
	lateAvg, lateN := halfAverage(entries, mid, false)
	if earlyN == 0 || lateN == 0 {
		return model.TrendStable
	}
	switch delta := lateAvg - earlyAvg; {
	case delta >= trendThreshold:
		return model.TrendImproving
	case delta <= -trendThreshold:
		return model.TrendDeclining
	default:
		return model.TrendStable
	}
}

func halfAverage(entries []*model.MoodEntry, mid time.Time, early bool) (float64, int) {
	sum, n := 0.0, 0
	for _, e := range entries {
		inEarly := e.Day.Before(mid)
		if inEarly == early {
			sum += float64(e.Intensity)
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// classifyResilience tracks the change in positive-emotion share between the
// two halves of the window, across moods and tagged chat messages.
func classifyResilience(entries []*model.MoodEntry, msgs []*model.ChatMessage, win model.Window) string {
	mid := windowMidpoint(win)
	var earlyPos, earlyTotal, latePos, lateTotal int

	record := func(at time.Time, emotion string) {
		if at.Before(mid) {
			earlyTotal++
			if positiveEmotions[emotion] {
				earlyPos++
			}
		} else {
			lateTotal++
			if positiveEmotions[emotion] {
				latePos++
			}
		}
	}

	for _, e := range entries {
		record(e.Day, e.Emotion)
	}
	for _, m := range msgs {
		if m.Emotion != nil && *m.Emotion != "" {
			record(m.CreationTime, *m.Emotion)
		}
	}

	if earlyTotal == 0 || lateTotal == 0 {
		return model.ResilienceFlat
	}
	earlyShare := float64(earlyPos) / float64(earlyTotal)
	lateShare := float64(latePos) / float64(lateTotal)
	switch delta := lateShare - earlyShare; {
	case delta >= resilienceThreshold:
		return model.ResilienceUp
	case delta <= -resilienceThreshold:
		return model.ResilienceDown
	default:
		return model.ResilienceFlat
	}
}

func windowMidpoint(win model.Window) time.Time {
	return win.Start.Add(win.End.Sub(win.Start) / 2)
}
