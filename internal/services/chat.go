package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/store"
)

// ChatService manages companion sessions and their messages.
type ChatService struct {
	store store.Store
}

func NewChatService(s store.Store) *ChatService {
	return &ChatService{store: s}
}

func (s *ChatService) StartSession(ctx context.Context, userID string) (*model.ChatSession, error) {
	return s.store.Sessions().Create(ctx, &model.ChatSession{
		SessionID: uuid.New().String(),
		UserID:    userID,
	})
}

func (s *ChatService) GetSession(ctx context.Context, userID, sessionID string) (*model.ChatSession, error) {
	return s.store.Sessions().Get(ctx, userID, sessionID)
}

func (s *ChatService) ListSessions(ctx context.Context, userID string, from, to time.Time) ([]*model.ChatSession, error) {
	return s.store.Sessions().ListRange(ctx, userID, from, to)
}

// CloseSession attaches the summary and progress indicators the companion
// produced for a finished conversation.
func (s *ChatService) CloseSession(ctx context.Context, userID, sessionID, summary string, progress map[string]interface{}) error {
	return s.store.Sessions().SetSummary(ctx, userID, sessionID, summary, progress)
}

// AppendMessage adds one turn to a session the user owns.
func (s *ChatService) AppendMessage(ctx context.Context, m *model.ChatMessage) (*model.ChatMessage, error) {
	m.MessageID = uuid.New().String()
	return s.store.Messages().Append(ctx, m)
}

func (s *ChatService) ListMessages(ctx context.Context, userID string, from, to time.Time) ([]*model.ChatMessage, error) {
	return s.store.Messages().ListRange(ctx, userID, from, to)
}
