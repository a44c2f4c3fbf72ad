package server

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/raterudder/dayahead/pkg/log"
	"github.com/rs/cors"
)

const (
	requestIDHeader   = "X-Request-ID"
	priceSourceHeader = "X-Price-Source"
	cacheHeader       = "X-Cache"
)

// maxRequestIDLen bounds caller supplied request IDs.
const maxRequestIDLen = 128

// requestIDMiddleware tags the request's logger with a request ID, reusing the
// caller's X-Request-ID when it sends a reasonable one.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := log.WithAttrs(r.Context(), slog.String("requestID", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsMiddleware lets the separately hosted UI call the API. Without any
// configured origins no CORS headers are sent.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	if len(s.allowedOrigins) == 0 {
		return next
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet},
		ExposedHeaders: []string{priceSourceHeader, cacheHeader, requestIDHeader},
		MaxAge:         3600,
	}).Handler(next)
}
