package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindloom/mindloom/server/internal/events"
	"github.com/mindloom/mindloom/server/internal/insight"
	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/store"
	"github.com/mindloom/mindloom/server/internal/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.New(filepath.Join(t.TempDir(), "svc-test.db"))
	if err != nil {
		t.Fatalf("sqlite open: %v", err)
	}
	return s
}

// fixedNow pins the clock to a Wednesday so the whole test runs inside one
// reporting window (Monday 2026-08-24 .. Monday 2026-08-31).
var fixedNow = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

func newInsightService(t *testing.T, s store.Store, bus *events.Bus) *InsightService {
	t.Helper()
	agg := insight.NewAggregator(s)
	gen := insight.NewGenerator(nil, 0, zerolog.Nop())
	return NewInsightService(s, agg, gen, bus, 20, zerolog.Nop()).WithClock(func() time.Time { return fixedNow })
}

func seedWeek(t *testing.T, s store.Store, userID string) {
	t.Helper()
	ctx := context.Background()
	moods := NewMoodService(s, nil)
	for i, emotion := range []string{"anxious", "calm", "hopeful"} {
		_, err := moods.Log(ctx, &model.MoodEntry{
			UserID:    userID,
			Day:       fixedNow.AddDate(0, 0, -i),
			Emotion:   emotion,
			Intensity: 5 + i,
		})
		require.NoError(t, err)
	}
}

func TestInsightServiceGenerate(t *testing.T) {
	s := newTestStore(t)
	bus := events.NewBus(4)
	svc := newInsightService(t, s, bus)
	seedWeek(t, s, "u1")

	ch, cancel := bus.Subscribe()
	defer cancel()

	run, err := svc.Generate(context.Background(), "u1", model.TierFree)
	require.NoError(t, err)

	assert.NotEmpty(t, run.InsightID)
	assert.Equal(t, "u1", run.UserID)
	assert.Equal(t, time.Monday, run.WindowStart.UTC().Weekday())
	require.NotNil(t, run.Narrative)
	assert.Empty(t, run.KeyInsights)
	assert.Equal(t, 3, run.SourceMeta.MoodCount)

	select {
	case evt := <-ch:
		assert.Equal(t, events.EventInsightCreated, evt.Kind)
		assert.Equal(t, "u1", evt.UserID)
		assert.NotEmpty(t, evt.WindowStart)
	default:
		t.Fatal("expected an insight_created event")
	}
}

func TestInsightServiceGenerateDuplicateWindow(t *testing.T) {
	s := newTestStore(t)
	svc := newInsightService(t, s, nil)
	seedWeek(t, s, "u1")

	_, err := svc.Generate(context.Background(), "u1", model.TierFree)
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), "u1", model.TierFree)
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestInsightServiceGenerateEmptyWeek(t *testing.T) {
	s := newTestStore(t)
	svc := newInsightService(t, s, nil)

	_, err := svc.Generate(context.Background(), "u1", model.TierFree)
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	// A failed generation leaves no row behind.
	runs, err := svc.List(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestInsightServiceCurrent(t *testing.T) {
	s := newTestStore(t)
	svc := newInsightService(t, s, nil)
	seedWeek(t, s, "u1")

	_, err := svc.Current(context.Background(), "u1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	created, err := svc.Generate(context.Background(), "u1", model.TierFree)
	require.NoError(t, err)

	got, err := svc.Current(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, created.InsightID, got.InsightID)
}

func TestInsightServiceDeleteFreesWindow(t *testing.T) {
	s := newTestStore(t)
	bus := events.NewBus(4)
	svc := newInsightService(t, s, bus)
	seedWeek(t, s, "u1")

	run, err := svc.Generate(context.Background(), "u1", model.TierFree)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "u1", run.InsightID))

	// Window slot is free again.
	_, err = svc.Generate(context.Background(), "u1", model.TierFree)
	assert.NoError(t, err)

	// Foreign or repeated delete surfaces not-found.
	err = svc.Delete(context.Background(), "u2", run.InsightID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestInsightServiceListDefaultLimit(t *testing.T) {
	s := newTestStore(t)
	svc := newInsightService(t, s, nil)
	seedWeek(t, s, "u1")

	_, err := svc.Generate(context.Background(), "u1", model.TierFree)
	require.NoError(t, err)

	runs, err := svc.List(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestInsightServicePremiumIncludesMemoryContext(t *testing.T) {
	s := newTestStore(t)
	svc := newInsightService(t, s, nil)
	seedWeek(t, s, "u1")

	mems := NewMemoryService(s)
	_, err := mems.Save(context.Background(), model.TierPremium, &model.UserMemory{
		UserID:     "u1",
		Summary:    "proud of finishing the course",
		SourceType: "chat",
		SourceID:   "s1",
		SourceDate: fixedNow,
	})
	require.NoError(t, err)

	run, err := svc.Generate(context.Background(), "u1", model.TierPremium)
	require.NoError(t, err)
	assert.True(t, run.SourceMeta.HasMemoryContext)
	assert.Equal(t, 1, run.SourceMeta.MemoryCount)
}
