package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pettopia/pettopia-server/cmd/config"
	"github.com/pettopia/pettopia-server/cmd/utils"
	"github.com/pettopia/pettopia-server/db"
	"github.com/pettopia/pettopia-server/service/community"
	"github.com/pettopia/pettopia-server/service/pets"
	"github.com/pettopia/pettopia-server/service/ws"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type APIServer struct {
	cfg    config.Config
	db     *gorm.DB
	cache  community.SnapshotCache
	logger *logrus.Logger
}

// NewApiServer wires the server. cache may be nil.
func NewApiServer(cfg config.Config, db *gorm.DB, cache community.SnapshotCache, logger *logrus.Logger) *APIServer {
	return &APIServer{
		cfg:    cfg,
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// Handler builds the full middleware chain and routes. The websocket hub
// lives until ctx is cancelled.
func (s *APIServer) Handler(ctx context.Context) http.Handler {
	router := mux.NewRouter()
	subrouter := router.PathPrefix("/api/v1").Subrouter()

	hub := ws.NewHub(s.logger)
	go hub.Run(ctx)

	client := community.NewClient(s.cfg.CommunityAPIURL, &http.Client{Timeout: s.cfg.HTTPTimeout})
	feed := community.NewFeed(client, s.cache, community.FeedOptions{
		TrendingWindowDays: s.cfg.TrendingWindowDays,
		TrendingLimit:      s.cfg.TrendingLimit,
		PageSize:           s.cfg.PageSize,
		CacheTTL:           s.cfg.FeedCacheTTL,
	}, s.logger)
	likes := community.NewLikes(client, hub, feed.Invalidate, s.logger)

	communityHandler := community.NewCommunityHandler(client, feed, likes, db.NewHistoryStore(s.db), s.logger)
	communityHandler.RegisterRoutes(subrouter)

	petHandler := pets.NewPetHandler(db.NewPetStore(s.db), s.logger)
	petHandler.RegisterRoutes(subrouter)

	wsHandler := ws.NewHandler(hub, s.cfg.CorsAllowedOrigins)
	wsHandler.RegisterRoutes(subrouter)

	subrouter.HandleFunc("/health", s.health).Methods("GET")

	limiter := utils.NewRateLimiter(rate.Limit(s.cfg.RateLimitRPS), s.cfg.RateLimitBurst, s.cfg.TrustedProxies)
	go limiter.Sweep(ctx, time.Minute)
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.cfg.CorsAllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", utils.RequestIDHeader}),
		handlers.ExposedHeaders([]string{utils.RequestIDHeader}),
	)

	var h http.Handler = utils.IdentityMiddleware(router)
	h = limiter.Limit(h)
	h = cors(h)
	h = utils.LoggingMiddleware(s.logger)(h)
	h = utils.RequestIDMiddleware(h)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(s.logger))(h)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *APIServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("address", server.Addr).Info("server running")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func (s *APIServer) health(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			s.logger.WithError(err).Warn("database ping failed")
			utils.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
