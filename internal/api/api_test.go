package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindloom/mindloom/server/internal/auth"
	"github.com/mindloom/mindloom/server/internal/events"
	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/store/sqlite"
)

const (
	freeKey    = "sk_test_free"
	premiumKey = "sk_test_premium"
)

type testEnv struct {
	server *httptest.Server
	bus    *events.Bus
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(filepath.Join(t.TempDir(), "api-test.db"))
	require.NoError(t, err)

	authorizer := auth.NewStaticAuthorizerWithActors(map[string]auth.ActorInfo{
		freeKey:    {UserID: "user-free", Tier: model.TierFree, KeyName: "test free"},
		premiumKey: {UserID: "user-premium", Tier: model.TierPremium, KeyName: "test premium"},
	})
	bus := events.NewBus(8)

	router := NewRouter(RouterConfig{
		Store:               st,
		Authorizer:          authorizer,
		Bus:                 bus,
		DefaultInsightLimit: 20,
		Log:                 zerolog.Nop(),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testEnv{server: server, bus: bus}
}

func (e *testEnv) do(t *testing.T, method, path, apiKey string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rd)
	require.NoError(t, err)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, raw
}

func (e *testEnv) logMood(t *testing.T, apiKey string, day time.Time, emotion string, intensity int) {
	t.Helper()
	resp, raw := e.do(t, "POST", "/api/moods", apiKey, map[string]interface{}{
		"day":       day.UTC().Format("2006-01-02"),
		"emotion":   emotion,
		"intensity": intensity,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
}

func errorMessage(t *testing.T, raw []byte) string {
	t.Helper()
	var er struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(raw, &er))
	return er.Message
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, "GET", "/api/insights", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = env.do(t, "GET", "/api/insights", "sk_bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Health does not need credentials.
	resp, _ = env.do(t, "GET", "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMoodValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []map[string]interface{}{
		{"day": "not-a-date", "emotion": "calm", "intensity": 5},
		{"day": "2026-08-26", "emotion": "", "intensity": 5},
		{"day": "2026-08-26", "emotion": "calm", "intensity": 0},
		{"day": "2026-08-26", "emotion": "calm", "intensity": 11},
		{"day": "2026-08-26", "emotion": "calm", "intensity": 5, "note": strings.Repeat("n", 1001)},
	}
	for _, body := range cases {
		resp, _ := env.do(t, "POST", "/api/moods", freeKey, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body: %v", body)
	}
}

func TestMoodUpsertAndList(t *testing.T) {
	env := newTestEnv(t)
	day := time.Now().UTC()

	env.logMood(t, freeKey, day, "anxious", 3)
	env.logMood(t, freeKey, day, "calm", 7) // same day, replaces

	resp, raw := env.do(t, "GET", "/api/moods?from="+day.Format("2006-01-02"), freeKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Moods []model.MoodEntry `json:"moods"`
		Count int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, "calm", out.Moods[0].Emotion)
	assert.Equal(t, 7, out.Moods[0].Intensity)

	resp, _ = env.do(t, "DELETE", "/api/moods/"+day.Format("2006-01-02"), freeKey, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, "DELETE", "/api/moods/"+day.Format("2006-01-02"), freeKey, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerateInsightEmptyWeek(t *testing.T) {
	env := newTestEnv(t)

	resp, raw := env.do(t, "POST", "/api/insights/generate", freeKey, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Not enough data this week to generate reflection", errorMessage(t, raw))
}

func TestGenerateInsightLifecycle(t *testing.T) {
	env := newTestEnv(t)
	today := time.Now().UTC()
	env.logMood(t, freeKey, today, "hopeful", 6)

	// First generation succeeds.
	resp, raw := env.do(t, "POST", "/api/insights/generate", freeKey, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var run model.InsightRun
	require.NoError(t, json.Unmarshal(raw, &run))
	assert.NotEmpty(t, run.InsightID)
	assert.Equal(t, "user-free", run.UserID)
	assert.Equal(t, time.Monday, run.WindowStart.UTC().Weekday())
	require.NotNil(t, run.Narrative)
	assert.Empty(t, run.KeyInsights)
	assert.Equal(t, 1, run.SourceMeta.MoodCount)
	assert.False(t, run.SourceMeta.HasMemoryContext)

	// Second generation in the same week is a duplicate.
	resp, raw = env.do(t, "POST", "/api/insights/generate", freeKey, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Insight already exists for this week", errorMessage(t, raw))

	// Current returns the stored run.
	resp, raw = env.do(t, "GET", "/api/insights/current", freeKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var current model.InsightRun
	require.NoError(t, json.Unmarshal(raw, &current))
	assert.Equal(t, run.InsightID, current.InsightID)

	// Listed for the owner, invisible to others.
	resp, raw = env.do(t, "GET", "/api/insights", freeKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Insights []model.InsightRun `json:"insights"`
		Count    int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Equal(t, 1, list.Count)

	resp, raw = env.do(t, "GET", "/api/insights", premiumKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Equal(t, 0, list.Count)

	// Foreign delete is a 404; owner delete frees the window slot.
	resp, _ = env.do(t, "DELETE", "/api/insights/"+run.InsightID, premiumKey, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, "DELETE", "/api/insights/"+run.InsightID, freeKey, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, "POST", "/api/insights/generate", freeKey, nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestMemoryPremiumGate(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]interface{}{
		"summary":    "felt proud after the talk",
		"sourceType": "chat",
		"sourceId":   "session-1",
	}

	resp, raw := env.do(t, "POST", "/api/memories", freeKey, body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Saving memories requires a premium subscription", errorMessage(t, raw))

	resp, raw = env.do(t, "POST", "/api/memories", premiumKey, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var mem model.UserMemory
	require.NoError(t, json.Unmarshal(raw, &mem))
	assert.NotEmpty(t, mem.MemoryID)

	resp, raw = env.do(t, "GET", "/api/memories", premiumKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Memories []model.UserMemory `json:"memories"`
		Count    int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Equal(t, 1, list.Count)

	resp, _ = env.do(t, "DELETE", "/api/memories/"+mem.MemoryID, premiumKey, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestPremiumInsightUsesMemoryContext(t *testing.T) {
	env := newTestEnv(t)
	today := time.Now().UTC()
	env.logMood(t, premiumKey, today, "grateful", 7)

	resp, raw := env.do(t, "POST", "/api/memories", premiumKey, map[string]interface{}{
		"summary":    "finally finished the marathon",
		"sourceType": "journal",
		"sourceId":   "entry-9",
		"sourceDate": today.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = env.do(t, "POST", "/api/insights/generate", premiumKey, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	var run model.InsightRun
	require.NoError(t, json.Unmarshal(raw, &run))
	assert.True(t, run.SourceMeta.HasMemoryContext)
	assert.Equal(t, 1, run.SourceMeta.MemoryCount)
}

func TestChatSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	resp, raw := env.do(t, "POST", "/api/chat/sessions", freeKey, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	var sess model.ChatSession
	require.NoError(t, json.Unmarshal(raw, &sess))

	resp, _ = env.do(t, "POST", "/api/chat/sessions/"+sess.SessionID+"/messages", freeKey, map[string]interface{}{
		"role":    "user",
		"content": "rough week at work",
		"emotion": "anxious",
		"topics":  []string{"work"},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Bad role is rejected before it reaches the store.
	resp, _ = env.do(t, "POST", "/api/chat/sessions/"+sess.SessionID+"/messages", freeKey, map[string]interface{}{
		"role":    "system",
		"content": "x",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Another user cannot append into this session.
	resp, _ = env.do(t, "POST", "/api/chat/sessions/"+sess.SessionID+"/messages", premiumKey, map[string]interface{}{
		"role":    "user",
		"content": "not mine",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, "PUT", "/api/chat/sessions/"+sess.SessionID+"/summary", freeKey, map[string]interface{}{
		"summary":  "worked through job stress",
		"progress": map[string]interface{}{"goal": "boundaries"},
	})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = env.do(t, "GET", "/api/chat/sessions", freeKey, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Sessions []model.ChatSession `json:"sessions"`
		Count    int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(raw, &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, 1, list.Sessions[0].MessageCount)
	require.NotNil(t, list.Sessions[0].Summary)
	assert.Equal(t, "worked through job stress", *list.Sessions[0].Summary)
}

func TestEventStreamDeliversOwnEventsOnly(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", env.server.URL+"/api/insights/events", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+freeKey)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := make(chan string, 16)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	// Give the subscription a moment to register, then publish for both
	// users; only the caller's event may come through.
	time.Sleep(100 * time.Millisecond)
	env.bus.Publish(events.Event{Kind: events.EventMoodLogged, UserID: "user-premium"})
	env.bus.Publish(events.Event{Kind: events.EventInsightCreated, UserID: "user-free"})

	deadline := time.After(3 * time.Second)
	for {
		select {
		case line, open := <-lines:
			if !open {
				t.Fatal("stream closed before event arrived")
			}
			if strings.HasPrefix(line, "data: ") {
				var evt events.Event
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &evt))
				assert.Equal(t, events.EventInsightCreated, evt.Kind)
				assert.Equal(t, "user-free", evt.UserID)
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for SSE event")
		}
	}
}

func TestListInsightsBadLimit(t *testing.T) {
	env := newTestEnv(t)
	for _, q := range []string{"?limit=0", "?limit=-3", "?limit=abc"} {
		resp, _ := env.do(t, "GET", "/api/insights"+q, freeKey, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, fmt.Sprintf("query %s", q))
	}
}

func TestStoreFailureReturnsOpaqueError(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "opaque-test.db"))
	require.NoError(t, err)
	st, err := sqlite.NewWithDB(db)
	require.NoError(t, err)

	authorizer := auth.NewStaticAuthorizerWithActors(map[string]auth.ActorInfo{
		freeKey: {UserID: "user-free", Tier: model.TierFree, KeyName: "test free"},
	})
	router := NewRouter(RouterConfig{
		Store:               st,
		Authorizer:          authorizer,
		Bus:                 events.NewBus(8),
		DefaultInsightLimit: 20,
		Log:                 zerolog.Nop(),
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	env := &testEnv{server: server}

	// Every query fails once the pool is closed.
	require.NoError(t, db.Close())

	for _, path := range []string{"/api/insights", "/api/moods", "/api/chat/sessions"} {
		resp, raw := env.do(t, "GET", path, freeKey, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
		assert.Equal(t, msgInternalError, errorMessage(t, raw), path)
		assert.NotContains(t, strings.ToLower(string(raw)), "sql", path)
	}
}
