// Package factory constructs the service's pluggable dependencies from
// configuration: the store, the authorizer, and the narrative client.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindloom/mindloom/server/internal/auth"
	"github.com/mindloom/mindloom/server/internal/config"
	"github.com/mindloom/mindloom/server/internal/narrative"
	storepkg "github.com/mindloom/mindloom/server/internal/store"
	storepg "github.com/mindloom/mindloom/server/internal/store/postgres"
	storesqlite "github.com/mindloom/mindloom/server/internal/store/sqlite"
)

// NewStore returns the store for the configured driver. The sqlite path
// applies the schema itself; postgres relies on the deploy pipeline's
// migrations and only verifies connectivity here.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		st, err := storesqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
		return st, nil

	case "postgres":
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			return nil, fmt.Errorf("postgres unreachable: %w", err)
		}
		log.Info().Msg("postgres store ready")
		return storepg.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}

// NewAuthorizer returns the configured authorizer. Static mode only ever
// resolves the local development keys.
func NewAuthorizer(cfg *config.Config, log zerolog.Logger) (auth.Authorizer, error) {
	switch cfg.AuthMode {
	case "static":
		log.Warn().Msg("static authorizer active; local development keys only")
		return auth.NewStaticAuthorizer(), nil
	case "remote":
		return auth.NewRemoteAuthorizer(cfg.AuthURL), nil
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE: %s", cfg.AuthMode)
	}
}

// NewNarrativeClient returns the Gemini client, or nil when no API key is
// configured; a nil client pins the pipeline to the deterministic narrative.
func NewNarrativeClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (narrative.Client, error) {
	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("no Gemini API key configured; insight runs will use deterministic narratives")
		return nil, nil
	}
	client, err := narrative.NewGeminiClient(ctx, narrative.GeminiConfig{
		APIKey:      cfg.GeminiAPIKey,
		ModelName:   cfg.GeminiModel,
		Temperature: cfg.GeminiTemperature,
		MaxRetries:  cfg.GeminiMaxRetries,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("create narrative client: %w", err)
	}
	log.Info().Str("model", cfg.GeminiModel).Msg("narrative client ready")
	return client, nil
}
