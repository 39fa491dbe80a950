package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	// Unique test identifiers
	userID := "u-" + uuid.New().String()
	otherID := "u-" + uuid.New().String()
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	// Moods: upsert replaces the same day
	note := "rough morning"
	if _, err := s.Moods().Upsert(ctx, &model.MoodEntry{UserID: userID, Day: day, Emotion: "anxious", Intensity: 3, Note: &note}); err != nil {
		t.Fatalf("UpsertMood: %v", err)
	}
	e2, err := s.Moods().Upsert(ctx, &model.MoodEntry{UserID: userID, Day: day, Emotion: "calm", Intensity: 6})
	if err != nil {
		t.Fatalf("UpsertMood replace: %v", err)
	}
	if e2.LastUpdateTime == nil {
		t.Fatalf("UpsertMood replace: expected last_update_time to be set")
	}
	if _, err := s.Moods().Upsert(ctx, &model.MoodEntry{UserID: userID, Day: day.AddDate(0, 0, 2), Emotion: "hopeful", Intensity: 7}); err != nil {
		t.Fatalf("UpsertMood day2: %v", err)
	}

	lst, err := s.Moods().ListRange(ctx, userID, day, day.AddDate(0, 0, 7))
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListMoods: n=%d err=%v", len(lst), err)
	}
	if lst[0].Emotion != "calm" {
		t.Fatalf("ListMoods: expected replaced entry, got %q", lst[0].Emotion)
	}
	if !lst[0].Day.Equal(day) {
		t.Fatalf("ListMoods: day mismatch got=%v want=%v", lst[0].Day, day)
	}

	// Ownership: another user sees nothing
	if lst, err := s.Moods().ListRange(ctx, otherID, day, day.AddDate(0, 0, 7)); err != nil || len(lst) != 0 {
		t.Fatalf("ListMoods other user: n=%d err=%v", len(lst), err)
	}

	// Delete by day, not-found afterwards
	if err := s.Moods().Delete(ctx, userID, day.AddDate(0, 0, 2)); err != nil {
		t.Fatalf("DeleteMood: %v", err)
	}
	if err := s.Moods().Delete(ctx, userID, day.AddDate(0, 0, 2)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteMood repeat: want ErrNotFound, got %v", err)
	}

	// Sessions and messages
	sess, err := s.Sessions().Create(ctx, &model.ChatSession{UserID: userID, StartedAt: day.Add(10 * time.Hour)})
	if err != nil || sess.SessionID == "" {
		t.Fatalf("CreateSession: sess=%v err=%v", sess, err)
	}
	emotion := "stressed"
	intensity := 7
	if _, err := s.Messages().Append(ctx, &model.ChatMessage{
		SessionID: sess.SessionID, UserID: userID, Role: "user",
		Content: "work has been a lot", Emotion: &emotion, Intensity: &intensity,
		Topics: []string{"work", "sleep"},
	}); err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if _, err := s.Messages().Append(ctx, &model.ChatMessage{
		SessionID: sess.SessionID, UserID: userID, Role: "assistant", Content: "tell me more",
	}); err != nil {
		t.Fatalf("AppendMessage assistant: %v", err)
	}

	// Appending into a session the caller does not own fails
	if _, err := s.Messages().Append(ctx, &model.ChatMessage{
		SessionID: sess.SessionID, UserID: otherID, Role: "user", Content: "hijack",
	}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("AppendMessage foreign session: want ErrNotFound, got %v", err)
	}

	got, err := s.Sessions().Get(ctx, userID, sess.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.MessageCount != 2 || got.EndedAt == nil {
		t.Fatalf("GetSession: count=%d endedAt=%v", got.MessageCount, got.EndedAt)
	}

	if err := s.Sessions().SetSummary(ctx, userID, sess.SessionID, "talked about work stress", map[string]interface{}{"goalProgress": "started sleep routine"}); err != nil {
		t.Fatalf("SetSummary: %v", err)
	}
	if err := s.Sessions().SetSummary(ctx, otherID, sess.SessionID, "nope", nil); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("SetSummary foreign session: want ErrNotFound, got %v", err)
	}
	got, err = s.Sessions().Get(ctx, userID, sess.SessionID)
	if err != nil || got.Summary == nil || *got.Summary != "talked about work stress" {
		t.Fatalf("GetSession after summary: got=%v err=%v", got, err)
	}
	if got.Progress["goalProgress"] != "started sleep routine" {
		t.Fatalf("GetSession progress: got=%v", got.Progress)
	}

	msgs, err := s.Messages().ListRange(ctx, userID, day, day.AddDate(0, 0, 7))
	if err != nil || len(msgs) != 2 {
		t.Fatalf("ListMessages: n=%d err=%v", len(msgs), err)
	}
	if msgs[0].Emotion == nil || *msgs[0].Emotion != "stressed" || len(msgs[0].Topics) != 2 {
		t.Fatalf("ListMessages tags: emotion=%v topics=%v", msgs[0].Emotion, msgs[0].Topics)
	}

	// User memories
	mem, err := s.UserMemories().Create(ctx, &model.UserMemory{
		UserID: userID, Summary: "finished the first week of therapy homework",
		SourceType: "chat", SourceID: sess.SessionID, SourceDate: day.Add(11 * time.Hour),
	})
	if err != nil || mem.MemoryID == "" {
		t.Fatalf("CreateMemory: mem=%v err=%v", mem, err)
	}
	if lst, err := s.UserMemories().ListRange(ctx, userID, day, day.AddDate(0, 0, 7)); err != nil || len(lst) != 1 {
		t.Fatalf("ListMemoriesRange: n=%d err=%v", len(lst), err)
	}
	if err := s.UserMemories().Delete(ctx, otherID, mem.MemoryID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteMemory foreign: want ErrNotFound, got %v", err)
	}

	// Insights: insert, duplicate window conflict, list order, owner-scoped delete
	winStart := day
	winEnd := day.AddDate(0, 0, 7)
	narrative := "A steadier week overall."
	run, err := s.Insights().Insert(ctx, &model.InsightRun{
		UserID: userID, WindowStart: winStart, WindowEnd: winEnd,
		DominantEmotions: []string{"calm", "stressed"}, RecurringThemes: []string{"work"},
		MoodTrend: model.TrendImproving, ResilienceDelta: model.ResilienceUp,
		Narrative:  &narrative,
		SourceMeta: model.SourceMeta{Version: 1, MoodCount: 2, SessionCount: 1, MessageCount: 2},
	})
	if err != nil || run.InsightID == "" {
		t.Fatalf("InsertInsight: run=%v err=%v", run, err)
	}

	if _, err := s.Insights().Insert(ctx, &model.InsightRun{
		UserID: userID, WindowStart: winStart, WindowEnd: winEnd,
		MoodTrend: model.TrendStable, ResilienceDelta: model.ResilienceFlat,
		SourceMeta: model.SourceMeta{Version: 1},
	}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("InsertInsight duplicate window: want ErrConflict, got %v", err)
	}

	found, err := s.Insights().FindByWindow(ctx, userID, winStart, winEnd)
	if err != nil || found.InsightID != run.InsightID {
		t.Fatalf("FindByWindow: found=%v err=%v", found, err)
	}
	if found.Narrative == nil || *found.Narrative != narrative {
		t.Fatalf("FindByWindow narrative: %v", found.Narrative)
	}
	if len(found.KeyInsights) != 0 {
		t.Fatalf("FindByWindow: key insights should be empty, got %v", found.KeyInsights)
	}
	if found.SourceMeta.MoodCount != 2 {
		t.Fatalf("FindByWindow source meta: %+v", found.SourceMeta)
	}
	if _, err := s.Insights().FindByWindow(ctx, userID, winEnd, winEnd.AddDate(0, 0, 7)); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("FindByWindow next week: want ErrNotFound, got %v", err)
	}

	// A second window lists before the first (newest-first)
	if _, err := s.Insights().Insert(ctx, &model.InsightRun{
		UserID: userID, WindowStart: winEnd, WindowEnd: winEnd.AddDate(0, 0, 7),
		MoodTrend: model.TrendStable, ResilienceDelta: model.ResilienceFlat,
		KeyInsights: []model.KeyInsight{{Title: "Sleep improved", Description: "You mentioned sleeping better twice.", Category: "progress", Polarity: "positive"}},
		SourceMeta:  model.SourceMeta{Version: 1, MoodCount: 1},
	}); err != nil {
		t.Fatalf("InsertInsight week2: %v", err)
	}
	runs, err := s.Insights().List(ctx, userID, 10)
	if err != nil || len(runs) != 2 {
		t.Fatalf("ListInsights: n=%d err=%v", len(runs), err)
	}
	if !runs[0].WindowStart.Equal(winEnd) {
		t.Fatalf("ListInsights order: first=%v", runs[0].WindowStart)
	}
	if len(runs[0].KeyInsights) != 1 || runs[0].KeyInsights[0].Title != "Sleep improved" {
		t.Fatalf("ListInsights key insights: %v", runs[0].KeyInsights)
	}
	if runs, err := s.Insights().List(ctx, userID, 1); err != nil || len(runs) != 1 {
		t.Fatalf("ListInsights limit: n=%d err=%v", len(runs), err)
	}
	if runs, err := s.Insights().List(ctx, otherID, 10); err != nil || len(runs) != 0 {
		t.Fatalf("ListInsights other user: n=%d err=%v", len(runs), err)
	}

	// Delete is owner-scoped
	if err := s.Insights().Delete(ctx, otherID, run.InsightID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteInsight foreign: want ErrNotFound, got %v", err)
	}
	if err := s.Insights().Delete(ctx, userID, run.InsightID); err != nil {
		t.Fatalf("DeleteInsight: %v", err)
	}
	if _, err := s.Insights().FindByWindow(ctx, userID, winStart, winEnd); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("FindByWindow after delete: want ErrNotFound, got %v", err)
	}

	// Slot is free again after delete
	if _, err := s.Insights().Insert(ctx, &model.InsightRun{
		UserID: userID, WindowStart: winStart, WindowEnd: winEnd,
		MoodTrend: model.TrendStable, ResilienceDelta: model.ResilienceFlat,
		Narrative:  &narrative,
		SourceMeta: model.SourceMeta{Version: 1},
	}); err != nil {
		t.Fatalf("InsertInsight after delete: %v", err)
	}
}
