// Package api wires the HTTP surface: the edge gatekeeper, the session
// endpoints and the directory CRUD behind role gates.
package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"falcon-hq/config"
	"falcon-hq/core/auth"
	"falcon-hq/core/mail"
	"falcon-hq/core/netguard"
	"falcon-hq/core/ratelimit"
	"falcon-hq/core/rbac"
	"falcon-hq/core/store"
	"falcon-hq/core/utils"
)

type Server struct {
	cfg        *config.AppConfig
	db         *sql.DB
	router     chi.Router
	httpServer *http.Server
	logger     *utils.Logger

	users      store.UsersStore
	activity   store.LoginActivityStore
	bans       store.BansStore
	agents     store.AgentsStore
	operations store.OperationsStore
	intel      store.IntelStore
	news       store.NewsStore
	albums     store.AlbumsStore

	policy   *rbac.Policy
	sessions *auth.SessionManager
	guard    *ratelimit.Guard
	tracker  *netguard.Tracker
	banCache *netguard.BanCache
	metrics  *metrics
	sweeps   *sweeper
}

func NewServer(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) *Server {
	users := store.NewUsersStore(db)
	activity := store.NewLoginActivityStore(db)
	bans := store.NewBansStore(db)
	agents := store.NewAgentsStore(db)

	guard := ratelimit.NewGuard(ratelimit.NewLimiter(cfg, logger))
	banCache := netguard.NewBanCache(bans, logger)
	tracker := netguard.NewTracker(bans, banCache, logger)
	tokens := auth.NewTokenCodec(cfg.JWTSecret, cfg.SessionTTL)
	sender := mail.NewSender(cfg.SMTP, logger)

	s := &Server{
		cfg:        cfg,
		db:         db,
		router:     chi.NewRouter(),
		logger:     logger,
		users:      users,
		activity:   activity,
		bans:       bans,
		agents:     agents,
		operations: store.NewOperationsStore(db),
		intel:      store.NewIntelStore(db),
		news:       store.NewNewsStore(db),
		albums:     store.NewAlbumsStore(db),
		policy:     rbac.NewPolicy(),
		sessions:   auth.NewSessionManager(users, activity, agents, guard, tracker, tokens, sender, cfg.Pepper, logger),
		guard:      guard,
		tracker:    tracker,
		banCache:   banCache,
		metrics:    newMetrics(),
	}
	s.sweeps = newSweeper(tracker, logger)
	s.registerRoutes()
	s.registerObservabilityRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.sweeps.Start()
	s.httpServer = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.sweeps.Stop()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
