package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Ashenafi-pixel/canister-games-gateway/config"
	"github.com/Ashenafi-pixel/canister-games-gateway/play"
)

type Server struct {
	cfg *config.Config
	svc *play.Service
	log *zap.Logger
}

func New(cfg *config.Config, svc *play.Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{cfg: cfg, svc: svc, log: log}
}

// Router builds the HTTP routes of the gateway.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	r.Get("/health", s.health)
	r.Get("/games", s.listGames)
	r.Get("/fallbacks", s.listFallbacks)
	r.Get("/results", s.listResults)
	r.Get("/results/{roundID}", s.getResult)
	r.Route("/wheel", func(rr chi.Router) {
		rr.Get("/segments", s.wheelSegments)
		rr.Post("/spin", s.wheelSpin)
	})
	r.Route("/mines", func(rr chi.Router) {
		rr.Post("/start", s.minesStart)
		rr.Get("/{gameID}", s.minesGame)
		rr.Post("/{gameID}/reveal", s.minesReveal)
		rr.Post("/{gameID}/cashout", s.minesCashOut)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Port
	if port <= 0 {
		port = 8081
	}
	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("gateway listening", zap.String("addr", srv.Addr), zap.String("canister", s.cfg.CanisterURL))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs method, path and status for each request (no body or secrets).
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "canister-games-gateway"})
}
