package api

import (
	"net/http"
	"time"

	"skillmatch/services/matching/internal/pipeline"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// WithRequestLogging tags each request with an ID, taken from the
// X-Request-ID header when present, and logs its outcome.
func WithRequestLogging(next http.Handler, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(pipeline.WithRequestID(r.Context(), reqID)))

		logger.Info("handled request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

// NewServer wires the routes behind the request middleware.
func NewServer(addr string, readTimeout, writeTimeout time.Duration, handler *Handler, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	RegisterRoutes(mux, handler)

	return &http.Server{
		Addr:         addr,
		Handler:      WithRequestLogging(mux, logger),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
}
