// Package server wires configuration, the shell, the domain store and the
// replication layer into one HTTP process.
package server

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/skyharbor-io/opsdeck/internal/api/http"
	"github.com/skyharbor-io/opsdeck/internal/api/middleware"
	"github.com/skyharbor-io/opsdeck/internal/api/ws"
	"github.com/skyharbor-io/opsdeck/internal/domain/auth"
	"github.com/skyharbor-io/opsdeck/internal/domain/registry"
	"github.com/skyharbor-io/opsdeck/internal/domain/session"
	"github.com/skyharbor-io/opsdeck/internal/domain/shell"
	"github.com/skyharbor-io/opsdeck/internal/domain/state"
	"github.com/skyharbor-io/opsdeck/internal/infrastructure/config"
	"github.com/skyharbor-io/opsdeck/internal/infrastructure/logging"
	"github.com/skyharbor-io/opsdeck/internal/infrastructure/monitoring"
	"github.com/skyharbor-io/opsdeck/internal/replication"
	"github.com/skyharbor-io/opsdeck/internal/shared/types"
	"github.com/skyharbor-io/opsdeck/internal/storage"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	router     *gin.Engine
	shell      *shell.Manager
	store      *state.Store
	replicator *replication.Replicator
	feed       *replication.Feed
	poller     *replication.Poller
	hub        *ws.Hub
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.New(cfg.Logging.Level, false)
	}

	logger.Info("Initializing opsdeck",
		zap.String("port", cfg.Server.Port),
		zap.String("remote", cfg.Remote.BaseURL),
	)

	metrics := monitoring.New()

	kv, err := storage.NewKV(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}

	shellManager := shell.NewManager()
	seeder := registry.NewSeeder(shellManager, cfg.Registry.ManifestPath)
	if err := seeder.Seed(); err != nil {
		logger.Warn("Failed to seed app catalogue", zap.Error(err))
	}

	hub := ws.NewHub(logger)
	store := state.NewStore(logger).WithNotifier(hub)

	// Reload the last mirrored snapshot so an offline restart keeps its
	// state. The remote store overwrites it once replication comes up.
	var cached types.Snapshot
	if ok, err := kv.Get(state.SnapshotKey, &cached); err != nil {
		logger.Warn("Failed to load cached snapshot", zap.Error(err))
	} else if ok {
		store.Restore(cached)
		logger.Info("Restored cached snapshot",
			zap.Int("flights", len(cached.Flights)),
			zap.Int("passengers", len(cached.Passengers)),
		)
	}
	store.WithMirror(kv)

	client := replication.NewRESTClient(cfg.Remote.BaseURL, cfg.Remote.APIKey, cfg.Remote.RequestTimeout)
	pollClient := replication.NewRESTClient(cfg.Remote.BaseURL, cfg.Remote.APIKey, cfg.Remote.RequestTimeout,
		replication.WithRetries(3))

	replicator := replication.NewReplicator(store, client, logger, replication.Options{
		BatchSize:    cfg.Remote.BatchSize,
		FlagClearLag: cfg.Remote.FlagClearLag,
	}).
		WithObserver(replicationObserver{metrics}).
		WithPollClient(pollClient)
	store.WithPusher(replicator)

	sessions := session.NewManager(shellManager, kv)

	authService := auth.NewService()
	for agent, pin := range cfg.Auth.Agents {
		if err := authService.Register(agent, pin); err != nil {
			logger.Warn("Failed to register agent", zap.String("agent", agent), zap.Error(err))
		}
	}
	if len(cfg.Auth.Agents) == 0 {
		logger.Warn("No agents configured; session save and restore will reject every token")
	}

	handlers := apihttp.NewHandlers(shellManager, store, sessions, authService, replicator)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(cfg.RateLimit))

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	// Shell
	router.POST("/shell/launch", handlers.Launch)
	router.GET("/shell/windows", handlers.ListWindows)
	router.POST("/shell/windows/:id/focus", handlers.FocusWindow)
	router.POST("/shell/windows/:id/minimize", handlers.MinimizeWindow)
	router.POST("/shell/windows/:id/maximize", handlers.MaximizeWindow)
	router.POST("/shell/windows/:id/bounds", handlers.SetBounds)
	router.DELETE("/shell/windows/:id", handlers.CloseWindow)
	router.GET("/registry/apps", handlers.ListApps)

	// Domain reads
	router.GET("/flights", handlers.ListFlights)
	router.GET("/passengers", handlers.ListPassengers)
	router.GET("/logs", handlers.ListLogs)
	router.GET("/vouchers", handlers.ListVouchers)
	router.GET("/complaints", handlers.ListComplaints)
	router.GET("/emails", handlers.ListEmails)

	// Operations
	ops := router.Group("/ops")
	ops.POST("/flight", handlers.ScheduleFlight)
	ops.POST("/booking", handlers.CreateBooking)
	ops.POST("/checkin", handlers.CheckIn)
	ops.POST("/seat", handlers.AssignSeat)
	ops.POST("/board", handlers.Board)
	ops.POST("/flight-status", handlers.UpdateFlightStatus)
	ops.POST("/gate", handlers.SetGate)
	ops.POST("/security", handlers.SetSecurity)
	ops.POST("/voucher", handlers.IssueVoucher)
	ops.POST("/complaint", handlers.FileComplaint)
	ops.POST("/complaint/:id/resolve", handlers.ResolveComplaint)
	ops.POST("/email", handlers.QueueEmail)
	ops.POST("/email/:id/sent", handlers.MarkEmailSent)

	// Sessions; mutations need an authenticated agent
	router.GET("/sessions", handlers.ListSessions)
	router.GET("/sessions/:id", handlers.GetSession)
	secured := router.Group("/sessions", middleware.RequireToken(authService))
	secured.POST("/save", handlers.SaveSession)
	secured.POST("/:id/restore", handlers.RestoreSession)
	secured.DELETE("/:id", handlers.DeleteSession)

	// Auth
	router.POST("/auth/login", handlers.Login)
	router.POST("/auth/logout", handlers.Logout)

	// Event stream
	router.GET("/stream", hub.HandleConnection)

	srv := &Server{
		router:     router,
		shell:      shellManager,
		store:      store,
		replicator: replicator,
		hub:        hub,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
	}

	if cfg.Remote.FeedEnabled && cfg.Remote.FeedURL != "" {
		srv.feed = replication.NewFeed(cfg.Remote.FeedURL, replicator, logger)
	}
	if cfg.Remote.PollEnabled && cfg.Remote.BaseURL != "" {
		srv.poller = replication.NewPoller(replicator, cfg.Remote.PollInterval, logger)
	}

	logger.Info("Server initialized")
	return srv, nil
}

// Start connects the replication layer and launches its background loops.
func (s *Server) Start(ctx context.Context) {
	s.replicator.Start(ctx)
	if s.replicator.Ready() {
		s.metrics.RemoteReachable.Set(1)
	}
	if s.feed != nil {
		s.feed.Start(ctx)
	}
	if s.poller != nil && s.replicator.Ready() {
		s.poller.Start(ctx)
	}
}

// Run starts the HTTP server and blocks.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close shuts the background loops down.
func (s *Server) Close() error {
	s.logger.Info("Shutting down")

	if s.poller != nil {
		s.poller.Stop()
	}
	if s.feed != nil {
		s.feed.Stop()
	}
	s.replicator.Stop()
	s.hub.Close()

	s.logger.Sync()
	return nil
}

// replicationObserver feeds replication lifecycle signals into Prometheus.
type replicationObserver struct {
	metrics *monitoring.Metrics
}

func (o replicationObserver) PushCompleted(failed int) {
	o.metrics.RecordPush(failed)
}

func (o replicationObserver) SyncFlagChanged(up bool) {
	if up {
		o.metrics.SyncFlag.Set(1)
	} else {
		o.metrics.SyncFlag.Set(0)
	}
}

func (o replicationObserver) InboundChange(applied bool) {
	outcome := "applied"
	if !applied {
		outcome = "discarded"
	}
	o.metrics.InboundChanges.WithLabelValues(outcome).Inc()
}

func (o replicationObserver) ReconcileRun(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	o.metrics.ReconcileRuns.WithLabelValues(status).Inc()
}
