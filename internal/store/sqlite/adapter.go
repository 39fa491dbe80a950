package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/store"
)

const dayFormat = "2006-01-02"

// SqliteStore implements store.Store on top of a SQLite database. It backs the
// local build target and the handler/service test suites.
type SqliteStore struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database file, applies the schema, and
// returns the store.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires the store over an existing connection and applies the schema.
func NewWithDB(db *sql.DB) (store.Store, error) {
	for _, stmt := range store.DefaultDDLStatements() {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &SqliteStore{db: db}, nil
}

// DB exposes the underlying *sql.DB connection (local-only use case).
func (s *SqliteStore) DB() *sql.DB { return s.db }

func (s *SqliteStore) Moods() store.Moods               { return &moods{db: s.db} }
func (s *SqliteStore) Sessions() store.Sessions         { return &sessions{db: s.db} }
func (s *SqliteStore) Messages() store.Messages         { return &messages{db: s.db} }
func (s *SqliteStore) UserMemories() store.UserMemories { return &userMemories{db: s.db} }
func (s *SqliteStore) Insights() store.Insights         { return &insights{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *SqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// isUniqueViolation reports whether err is a SQLite uniqueness error. The
// modernc driver does not export a typed error for this, so match the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

// --- Moods ---
type moods struct{ db *sql.DB }

func (m *moods) Upsert(ctx context.Context, e *model.MoodEntry) (*model.MoodEntry, error) {
	now := time.Now().UTC()
	day := e.Day.UTC().Format(dayFormat)
	if _, err := m.db.ExecContext(ctx, `
        INSERT INTO mood_entries (user_id, entry_day, emotion, intensity, note, creation_time)
        VALUES (?,?,?,?,?,?)
        ON CONFLICT (user_id, entry_day)
        DO UPDATE SET emotion=excluded.emotion, intensity=excluded.intensity,
                      note=excluded.note, last_update_time=excluded.creation_time
    `, e.UserID, day, e.Emotion, e.Intensity, e.Note, now); err != nil {
		return nil, err
	}

	out := *e
	row := m.db.QueryRowContext(ctx, `
        SELECT creation_time, last_update_time FROM mood_entries WHERE user_id=? AND entry_day=?
    `, e.UserID, day)
	if err := row.Scan(&out.CreationTime, &out.LastUpdateTime); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *moods) ListRange(ctx context.Context, userID string, from, to time.Time) ([]*model.MoodEntry, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT entry_day, emotion, intensity, note, creation_time, last_update_time
        FROM mood_entries
        WHERE user_id=? AND entry_day >= ? AND entry_day < ?
        ORDER BY entry_day ASC
    `, userID, from.UTC().Format(dayFormat), to.UTC().Format(dayFormat))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.MoodEntry
	for rows.Next() {
		var e model.MoodEntry
		e.UserID = userID
		var day string
		if err := rows.Scan(&day, &e.Emotion, &e.Intensity, &e.Note, &e.CreationTime, &e.LastUpdateTime); err != nil {
			return nil, err
		}
		d, err := time.ParseInLocation(dayFormat, day, time.UTC)
		if err != nil {
			return nil, err
		}
		e.Day = d
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (m *moods) Delete(ctx context.Context, userID string, day time.Time) error {
	res, err := m.db.ExecContext(ctx, `DELETE FROM mood_entries WHERE user_id=? AND entry_day=?`,
		userID, day.UTC().Format(dayFormat))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Sessions ---
type sessions struct{ db *sql.DB }

func (s *sessions) Create(ctx context.Context, cs *model.ChatSession) (*model.ChatSession, error) {
	id := cs.SessionID
	if id == "" {
		id = uuid.New().String()
	}
	started := cs.StartedAt
	if started.IsZero() {
		started = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx, `
        INSERT INTO chat_sessions (session_id, user_id, started_at, message_count)
        VALUES (?,?,?,0)
    `, id, cs.UserID, started); err != nil {
		return nil, err
	}
	return &model.ChatSession{SessionID: id, UserID: cs.UserID, StartedAt: started}, nil
}

func (s *sessions) Get(ctx context.Context, userID, sessionID string) (*model.ChatSession, error) {
	var out model.ChatSession
	out.UserID = userID
	out.SessionID = sessionID
	var progress sql.NullString
	row := s.db.QueryRowContext(ctx, `
        SELECT started_at, ended_at, message_count, summary, progress
        FROM chat_sessions WHERE user_id=? AND session_id=?
    `, userID, sessionID)
	if err := row.Scan(&out.StartedAt, &out.EndedAt, &out.MessageCount, &out.Summary, &progress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if progress.Valid {
		_ = json.Unmarshal([]byte(progress.String), &out.Progress)
	}
	return &out, nil
}

func (s *sessions) ListRange(ctx context.Context, userID string, from, to time.Time) ([]*model.ChatSession, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT session_id, started_at, ended_at, message_count, summary, progress
        FROM chat_sessions
        WHERE user_id=? AND started_at >= ? AND started_at < ?
        ORDER BY started_at ASC
    `, userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.ChatSession
	for rows.Next() {
		var cs model.ChatSession
		cs.UserID = userID
		var progress sql.NullString
		if err := rows.Scan(&cs.SessionID, &cs.StartedAt, &cs.EndedAt, &cs.MessageCount, &cs.Summary, &progress); err != nil {
			return nil, err
		}
		if progress.Valid {
			_ = json.Unmarshal([]byte(progress.String), &cs.Progress)
		}
		out = append(out, &cs)
	}
	return out, rows.Err()
}

func (s *sessions) SetSummary(ctx context.Context, userID, sessionID, summary string, progress map[string]interface{}) error {
	progJSON, _ := json.Marshal(progress)
	res, err := s.db.ExecContext(ctx, `
        UPDATE chat_sessions SET summary=?, progress=? WHERE user_id=? AND session_id=?
    `, summary, nullIfEmpty(progJSON), userID, sessionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Messages ---
type messages struct{ db *sql.DB }

func (m *messages) Append(ctx context.Context, cm *model.ChatMessage) (*model.ChatMessage, error) {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM chat_sessions WHERE user_id=? AND session_id=?`,
		cm.UserID, cm.SessionID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	topicsJSON, _ := json.Marshal(cm.Topics)
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO chat_messages (message_id, session_id, user_id, role, content, emotion, intensity, topics, creation_time)
        VALUES (?,?,?,?,?,?,?,?,?)
    `, id, cm.SessionID, cm.UserID, cm.Role, cm.Content, cm.Emotion, cm.Intensity, nullIfEmpty(topicsJSON), now); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `
        UPDATE chat_sessions SET message_count=message_count+1, ended_at=?
        WHERE user_id=? AND session_id=?
    `, now, cm.UserID, cm.SessionID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	out := *cm
	out.MessageID = id
	out.CreationTime = now
	return &out, nil
}

func (m *messages) ListRange(ctx context.Context, userID string, from, to time.Time) ([]*model.ChatMessage, error) {
	rows, err := m.db.QueryContext(ctx, `
        SELECT message_id, session_id, role, content, emotion, intensity, topics, creation_time
        FROM chat_messages
        WHERE user_id=? AND creation_time >= ? AND creation_time < ?
        ORDER BY creation_time ASC
    `, userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.ChatMessage
	for rows.Next() {
		var cm model.ChatMessage
		cm.UserID = userID
		var topics sql.NullString
		if err := rows.Scan(&cm.MessageID, &cm.SessionID, &cm.Role, &cm.Content, &cm.Emotion, &cm.Intensity, &topics, &cm.CreationTime); err != nil {
			return nil, err
		}
		if topics.Valid {
			_ = json.Unmarshal([]byte(topics.String), &cm.Topics)
		}
		out = append(out, &cm)
	}
	return out, rows.Err()
}

// --- User memories ---
type userMemories struct{ db *sql.DB }

func (u *userMemories) Create(ctx context.Context, um *model.UserMemory) (*model.UserMemory, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	if _, err := u.db.ExecContext(ctx, `
        INSERT INTO user_memories (memory_id, user_id, summary, source_type, source_id, source_date, creation_time)
        VALUES (?,?,?,?,?,?,?)
    `, id, um.UserID, um.Summary, um.SourceType, um.SourceID, um.SourceDate.UTC(), now); err != nil {
		return nil, err
	}
	out := *um
	out.MemoryID = id
	out.CreationTime = now
	return &out, nil
}

func (u *userMemories) List(ctx context.Context, userID string) ([]*model.UserMemory, error) {
	return u.list(ctx, userID, `
        SELECT memory_id, summary, source_type, source_id, source_date, creation_time
        FROM user_memories WHERE user_id=? ORDER BY source_date DESC
    `, userID)
}

func (u *userMemories) ListRange(ctx context.Context, userID string, from, to time.Time) ([]*model.UserMemory, error) {
	return u.list(ctx, userID, `
        SELECT memory_id, summary, source_type, source_id, source_date, creation_time
        FROM user_memories
        WHERE user_id=? AND source_date >= ? AND source_date < ?
        ORDER BY source_date ASC
    `, userID, from.UTC(), to.UTC())
}

func (u *userMemories) list(ctx context.Context, userID, query string, args ...interface{}) ([]*model.UserMemory, error) {
	rows, err := u.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.UserMemory
	for rows.Next() {
		var um model.UserMemory
		um.UserID = userID
		if err := rows.Scan(&um.MemoryID, &um.Summary, &um.SourceType, &um.SourceID, &um.SourceDate, &um.CreationTime); err != nil {
			return nil, err
		}
		out = append(out, &um)
	}
	return out, rows.Err()
}

func (u *userMemories) Delete(ctx context.Context, userID, memoryID string) error {
	res, err := u.db.ExecContext(ctx, `DELETE FROM user_memories WHERE user_id=? AND memory_id=?`, userID, memoryID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Insights ---
type insights struct{ db *sql.DB }

func (i *insights) Insert(ctx context.Context, r *model.InsightRun) (*model.InsightRun, error) {
	id := r.InsightID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	emotionsJSON, _ := json.Marshal(r.DominantEmotions)
	themesJSON, _ := json.Marshal(r.RecurringThemes)
	insightsJSON, _ := json.Marshal(r.KeyInsights)
	metaJSON, err := json.Marshal(r.SourceMeta)
	if err != nil {
		return nil, err
	}

	_, err = i.db.ExecContext(ctx, `
        INSERT INTO insight_runs (insight_id, user_id, window_start, window_end,
            dominant_emotions, recurring_themes, mood_trend, resilience_delta,
            narrative, key_insights, source_meta, creation_time)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
    `, id, r.UserID, r.WindowStart.UTC(), r.WindowEnd.UTC(),
		nullIfEmpty(emotionsJSON), nullIfEmpty(themesJSON), r.MoodTrend, r.ResilienceDelta,
		r.Narrative, nullIfEmpty(insightsJSON), metaJSON, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insight run for window already exists: %w", model.ErrConflict)
		}
		return nil, err
	}
	out := *r
	out.InsightID = id
	out.CreationTime = now
	return &out, nil
}

func (i *insights) FindByWindow(ctx context.Context, userID string, start, end time.Time) (*model.InsightRun, error) {
	row := i.db.QueryRowContext(ctx, `
        SELECT insight_id, window_start, window_end, dominant_emotions, recurring_themes,
               mood_trend, resilience_delta, narrative, key_insights, source_meta, creation_time
        FROM insight_runs WHERE user_id=? AND window_start=? AND window_end=?
    `, userID, start.UTC(), end.UTC())
	return scanInsight(row, userID)
}

func (i *insights) List(ctx context.Context, userID string, limit int) ([]*model.InsightRun, error) {
	query := `
        SELECT insight_id, window_start, window_end, dominant_emotions, recurring_themes,
               mood_trend, resilience_delta, narrative, key_insights, source_meta, creation_time
        FROM insight_runs WHERE user_id=? ORDER BY window_start DESC, creation_time DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := i.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.InsightRun
	for rows.Next() {
		r, err := scanInsight(rows, userID)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (i *insights) Delete(ctx context.Context, userID, insightID string) error {
	res, err := i.db.ExecContext(ctx, `DELETE FROM insight_runs WHERE user_id=? AND insight_id=?`, userID, insightID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInsight(row rowScanner, userID string) (*model.InsightRun, error) {
	var r model.InsightRun
	r.UserID = userID
	var emotions, themes, keyInsights sql.NullString
	var meta string
	if err := row.Scan(&r.InsightID, &r.WindowStart, &r.WindowEnd, &emotions, &themes,
		&r.MoodTrend, &r.ResilienceDelta, &r.Narrative, &keyInsights, &meta, &r.CreationTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if emotions.Valid {
		_ = json.Unmarshal([]byte(emotions.String), &r.DominantEmotions)
	}
	if themes.Valid {
		_ = json.Unmarshal([]byte(themes.String), &r.RecurringThemes)
	}
	if keyInsights.Valid {
		_ = json.Unmarshal([]byte(keyInsights.String), &r.KeyInsights)
	}
	if err := json.Unmarshal([]byte(meta), &r.SourceMeta); err != nil {
		return nil, err
	}
	r.WindowStart = r.WindowStart.UTC()
	r.WindowEnd = r.WindowEnd.UTC()
	return &r, nil
}

func nullIfEmpty(b []byte) interface{} {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return b
}
