package api

import (
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/mindloom/mindloom/server/internal/api/recovery"
	"github.com/mindloom/mindloom/server/internal/auth"
	"github.com/mindloom/mindloom/server/internal/events"
	"github.com/mindloom/mindloom/server/internal/insight"
	"github.com/mindloom/mindloom/server/internal/narrative"
	"github.com/mindloom/mindloom/server/internal/services"
	"github.com/mindloom/mindloom/server/internal/store"
)

// RouterConfig carries everything the router needs to wire handlers.
type RouterConfig struct {
	Store      store.Store
	Authorizer auth.Authorizer
	Bus        *events.Bus

	// NarrativeClient may be nil; generation then uses the deterministic
	// narrative only.
	NarrativeClient     narrative.Client
	GenerationTimeout   time.Duration
	DefaultInsightLimit int

	Log zerolog.Logger
}

// NewRouter wires all API routes. /api/health is open; every other route
// requires a Bearer API key.
func NewRouter(cfg RouterConfig) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	// Health stays outside auth so probes work without credentials.
	root.HandleFunc("/api/health", NewHealthHandler().CheckHealth).Methods("GET")

	authed := root.PathPrefix("/api").Subrouter()
	authed.Use(WithAuth(cfg.Authorizer))

	// Insights
	aggregator := insight.NewAggregator(cfg.Store)
	generator := insight.NewGenerator(cfg.NarrativeClient, cfg.GenerationTimeout, cfg.Log)
	insightSvc := services.NewInsightService(cfg.Store, aggregator, generator, cfg.Bus, cfg.DefaultInsightLimit, cfg.Log)
	ins := NewInsightHandler(insightSvc)
	authed.HandleFunc("/insights/generate", ins.GenerateInsight).Methods("POST")
	authed.HandleFunc("/insights/current", ins.GetCurrentInsight).Methods("GET")
	authed.HandleFunc("/insights", ins.ListInsights).Methods("GET")
	authed.HandleFunc("/insights/events", NewEventsHandler(cfg.Bus).StreamEvents).Methods("GET")
	authed.HandleFunc("/insights/{insightId}", ins.DeleteInsight).Methods("DELETE")

	// Moods
	mood := NewMoodHandler(services.NewMoodService(cfg.Store, cfg.Bus))
	authed.HandleFunc("/moods", mood.LogMood).Methods("POST")
	authed.HandleFunc("/moods", mood.ListMoods).Methods("GET")
	authed.HandleFunc("/moods/{day}", mood.DeleteMood).Methods("DELETE")

	// Chat
	chat := NewChatHandler(services.NewChatService(cfg.Store))
	authed.HandleFunc("/chat/sessions", chat.StartSession).Methods("POST")
	authed.HandleFunc("/chat/sessions", chat.ListSessions).Methods("GET")
	authed.HandleFunc("/chat/sessions/{sessionId}/messages", chat.AppendMessage).Methods("POST")
	authed.HandleFunc("/chat/sessions/{sessionId}/summary", chat.CloseSession).Methods("PUT")

	// Memories
	memory := NewMemoryHandler(services.NewMemoryService(cfg.Store))
	authed.HandleFunc("/memories", memory.SaveMemory).Methods("POST")
	authed.HandleFunc("/memories", memory.ListMemories).Methods("GET")
	authed.HandleFunc("/memories/{memoryId}", memory.DeleteMemory).Methods("DELETE")

	return root
}
