package server

import (
	"context"
	"log"
	"net/http"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/strefethen/sonos-relay-go/internal/api"
	"github.com/strefethen/sonos-relay-go/internal/audit"
	"github.com/strefethen/sonos-relay-go/internal/auth"
	"github.com/strefethen/sonos-relay-go/internal/config"
	"github.com/strefethen/sonos-relay-go/internal/control"
	"github.com/strefethen/sonos-relay-go/internal/db"
	"github.com/strefethen/sonos-relay-go/internal/events"
	"github.com/strefethen/sonos-relay-go/internal/hub"
	"github.com/strefethen/sonos-relay-go/internal/openapi"
	"github.com/strefethen/sonos-relay-go/internal/session"
	"github.com/strefethen/sonos-relay-go/internal/state"
)

// requestLoggerMiddleware logs all incoming HTTP requests. The chi wrapper
// keeps the underlying writer's Hijacker/Flusher surface intact, which the
// websocket upgrade on /ws/events depends on.
func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(wrapped, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, wrapped.Status(), time.Since(start).Round(time.Millisecond))
	})
}

// NewHandler builds the HTTP handler and returns a shutdown function.
func NewHandler(cfg config.Config) (http.Handler, func(context.Context) error, error) {
	log.Printf("Using database: %s", cfg.SQLiteDBPath)
	dbPair, err := db.Init(cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, err
	}

	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(requestLoggerMiddleware)
	router.Use(api.RequestIDMiddleware)
	router.Use(api.RecovererMiddleware)
	router.Use(auth.Middleware(cfg))

	// The single authoritative playback snapshot. Everything below shares
	// this one instance.
	playbackState := state.NewStore()

	eventHub := hub.New(cfg.HubSendBuffer)
	hub.RegisterRoutes(router, eventHub)

	auditService := audit.NewService(dbPair, cfg.AuditRetentionDays, cfg.AuditPruneSchedule, nil)
	audit.RegisterRoutes(router, auditService)
	if err := auditService.StartPruneJob(); err != nil {
		dbPair.Close()
		return nil, nil, err
	}

	ingestor := events.NewIngestor(playbackState, eventHub, auditService)
	events.RegisterRoutes(router, ingestor)

	controlClient := control.NewClient(cfg.SonosAPIBase, time.Duration(cfg.SonosTimeoutMs)*time.Millisecond, playbackState, auditService)
	control.RegisterRoutes(router, controlClient, playbackState)

	session.RegisterRoutes(router, playbackState, auditService)

	registerHealthRoutes(router, playbackState, eventHub)
	openapi.RegisterRoutes(router)

	pairingStore := auth.NewPairingStore(5 * time.Minute)
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	pairingStore.StartCleanup(shutdownCtx, time.Minute)
	auth.RegisterRoutes(router, pairingStore, cfg)

	auditService.Record("SYSTEM_STARTUP", "Relay started", nil)

	shutdown := func(ctx context.Context) error {
		shutdownCancel()
		eventHub.Close()
		auditService.StopPruneJob()
		if ctx == nil {
			ctx = context.Background()
		}
		return dbPair.Close()
	}

	return router, shutdown, nil
}

func registerHealthRoutes(router chi.Router, playbackState *state.Store, eventHub *hub.Hub) {
	router.Method(http.MethodGet, "/v1/health", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		_, _, sessionConfigured := playbackState.Session()
		response := map[string]any{
			"status":             "healthy",
			"service":            "sonos-relay",
			"subscribers":        eventHub.SubscriberCount(),
			"session_configured": sessionConfigured,
			"timestamp":          time.Now().UTC().Format(time.RFC3339),
		}
		return api.WriteJSON(w, http.StatusOK, response)
	}))
	router.Method(http.MethodGet, "/v1/health/live", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}))
	router.Method(http.MethodGet, "/v1/health/ready", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	}))
}
