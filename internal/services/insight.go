// Package services orchestrates use cases over the store, the insight
// pipeline, and the event bus. Handlers stay thin; policy lives here.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mindloom/mindloom/server/internal/events"
	"github.com/mindloom/mindloom/server/internal/insight"
	"github.com/mindloom/mindloom/server/internal/model"
	"github.com/mindloom/mindloom/server/internal/store"
)

// InsightService runs the weekly reflection pipeline and serves stored runs.
type InsightService struct {
	store        store.Store
	aggregator   *insight.Aggregator
	generator    *insight.Generator
	bus          *events.Bus
	defaultLimit int
	now          func() time.Time
	log          zerolog.Logger
}

func NewInsightService(s store.Store, agg *insight.Aggregator, gen *insight.Generator, bus *events.Bus, defaultLimit int, log zerolog.Logger) *InsightService {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &InsightService{
		store:        s,
		aggregator:   agg,
		generator:    gen,
		bus:          bus,
		defaultLimit: defaultLimit,
		now:          time.Now,
		log:          log.With().Str("component", "insight_service").Logger(),
	}
}

// Generate produces the insight run for the current week. The FindByWindow
// pre-check gives a fast answer in the common case; the store's uniqueness
// constraint remains the authoritative guard against concurrent generation.
func (s *InsightService) Generate(ctx context.Context, userID, tier string) (*model.InsightRun, error) {
	win := insight.CurrentWindow(s.now())

	existing, err := s.store.Insights().FindByWindow(ctx, userID, win.Start, win.End)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, model.ErrConflict
	}

	agg, err := s.aggregator.Aggregate(ctx, userID, tier, win)
	if err != nil {
		return nil, err
	}
	run, err := s.generator.Generate(ctx, agg)
	if err != nil {
		return nil, err
	}
	run.InsightID = uuid.New().String()

	stored, err := s.store.Insights().Insert(ctx, run)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("userId", userID).Str("insightId", stored.InsightID).
		Time("windowStart", win.Start).Bool("generative", len(stored.KeyInsights) > 0).
		Msg("insight run created")
	s.publish(events.EventInsightCreated, userID, win)
	return stored, nil
}

// Current returns this week's run if it exists.
func (s *InsightService) Current(ctx context.Context, userID string) (*model.InsightRun, error) {
	win := insight.CurrentWindow(s.now())
	return s.store.Insights().FindByWindow(ctx, userID, win.Start, win.End)
}

// List returns the user's runs newest first. limit <= 0 applies the default.
func (s *InsightService) List(ctx context.Context, userID string, limit int) ([]*model.InsightRun, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	return s.store.Insights().List(ctx, userID, limit)
}

// Delete removes one of the user's runs and frees its window slot.
func (s *InsightService) Delete(ctx context.Context, userID, insightID string) error {
	if err := s.store.Insights().Delete(ctx, userID, insightID); err != nil {
		return err
	}
	s.publish(events.EventInsightDeleted, userID, model.Window{})
	return nil
}

func (s *InsightService) publish(kind events.EventKind, userID string, win model.Window) {
	if s.bus == nil {
		return
	}
	evt := events.Event{Kind: kind, UserID: userID}
	if !win.Start.IsZero() {
		evt.WindowStart = win.Start.Format(time.RFC3339)
		evt.WindowEnd = win.End.Format(time.RFC3339)
	}
	s.bus.Publish(evt)
}

// WithClock overrides the service clock. Tests only.
func (s *InsightService) WithClock(now func() time.Time) *InsightService {
	s.now = now
	return s
}
