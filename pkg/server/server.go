package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/dayahead/pkg/log"
	"github.com/raterudder/dayahead/pkg/pricing"
	"github.com/raterudder/dayahead/pkg/storage"
	"github.com/raterudder/dayahead/pkg/types"
)

// PriceService resolves price series for the API handlers.
type PriceService interface {
	Prices(ctx context.Context, params types.QueryParameters) (pricing.Result, error)
	Summary(ctx context.Context, params types.QueryParameters) (pricing.Result, types.PricingSummary, error)
}

// Server serves the pricing API.
type Server struct {
	prices PriceService
	cache  storage.Cache

	listenAddr     string
	httpServer     *http.Server
	serverName     string
	allowedOrigins []string
	sweepInterval  time.Duration
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(prices PriceService, cache storage.Cache) *Server {
	srv := &Server{
		prices:     prices,
		cache:      cache,
		serverName: "dayahead",
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	allowedOrigins := lflag.String("cors-allowed-origins", "", "comma-delimited list of origins allowed to call the API from a browser")
	sweepInterval := lflag.Duration("cache-sweep-interval", 10*time.Minute, "How often stale cache entries are removed (0 disables sweeping)")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		if *allowedOrigins != "" {
			for _, origin := range strings.Split(*allowedOrigins, ",") {
				if origin = strings.TrimSpace(origin); origin != "" {
					srv.allowedOrigins = append(srv.allowedOrigins, origin)
				}
			}
		}
		srv.sweepInterval = *sweepInterval
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/pricing", s.handlePricing)
	mux.HandleFunc("GET /api/pricing/summary", s.handleSummary)
	mux.HandleFunc("GET /api/pricing/cheapest", s.handleCheapest)
	mux.HandleFunc("/healthz", s.handleHealthz)

	var h http.Handler = s.requestIDMiddleware(mux)
	h = s.securityHeadersMiddleware(h)
	h = s.corsMiddleware(h)
	return s.revisionMiddleware(gziphandler.GzipHandler(h))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	if s.sweepInterval > 0 && s.cache != nil {
		go s.sweepLoop(ctx, s.sweepInterval)
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// sweepLoop removes stale cache entries every interval until ctx is done.
func (s *Server) sweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.cache.Sweep(ctx)
			if err != nil {
				log.Ctx(ctx).WarnContext(ctx, "failed to sweep price cache", slog.Any("error", err))
				continue
			}
			if removed > 0 {
				log.Ctx(ctx).DebugContext(ctx, "swept price cache", slog.Int("removed", removed))
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Message string `json:"message"`
	}{Message: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
