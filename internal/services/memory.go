package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/store"
)

// maxMemorySummaryLen caps stored memory summaries.
const maxMemorySummaryLen = 500

// MemoryService manages explicitly saved recollections. Every operation is
// premium-gated; free-tier callers get ErrPremiumRequired.
type MemoryService struct {
	store store.Store
}

func NewMemoryService(s store.Store) *MemoryService {
	return &MemoryService{store: s}
}

func (s *MemoryService) Save(ctx context.Context, tier string, m *model.UserMemory) (*model.UserMemory, error) {
	if tier != model.TierPremium {
		return nil, model.ErrPremiumRequired
	}
	if m.Summary == "" {
		return nil, fmt.Errorf("summary is required: %w", model.ErrValidation)
	}
	if len(m.Summary) > maxMemorySummaryLen {
		return nil, fmt.Errorf("summary exceeds %d characters: %w", maxMemorySummaryLen, model.ErrValidation)
	}
	m.MemoryID = uuid.New().String()
	return s.store.UserMemories().Create(ctx, m)
}

func (s *MemoryService) List(ctx context.Context, tier, userID string) ([]*model.UserMemory, error) {
	if tier != model.TierPremium {
		return nil, model.ErrPremiumRequired
	}
	return s.store.UserMemories().List(ctx, userID)
}

func (s *MemoryService) Delete(ctx context.Context, tier, userID, memoryID string) error {
	if tier != model.TierPremium {
		return model.ErrPremiumRequired
	}
	return s.store.UserMemories().Delete(ctx, userID, memoryID)
}
