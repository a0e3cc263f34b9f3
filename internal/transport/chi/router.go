package chi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/edsanalytics/internal/logger"
	"github.com/kailas-cloud/edsanalytics/internal/metrics"
)

// NewRouter mounts the store API, /health and /metrics behind the standard middleware chain.
func NewRouter(s *Server, logger *zap.Logger) http.Handler {
	compressor := chiMiddleware.NewCompressor(gzip.DefaultCompression, "application/json")
	compressor.SetEncoder("gzip", func(w io.Writer, level int) io.Writer {
		gz, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil
		}
		return gz
	})

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	r.Use(compressor.Handler)

	r.Get("/health", s.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/{version}/Tenants/{tenant}/Namespaces/{namespace}", func(r chi.Router) {
		r.Route("/Types/{typeID}", func(r chi.Router) {
			r.Post("/", s.CreateType)
			r.Get("/", s.GetType)
			r.Delete("/", s.DeleteType)
		})
		r.Route("/Streams/{streamID}", func(r chi.Router) {
			r.Post("/", s.CreateStream)
			r.Get("/", s.GetStream)
			r.Delete("/", s.DeleteStream)
			r.Post("/Data", s.WriteData)
			r.Get("/Data", s.ReadData)
			r.Get("/Data/Summaries", s.ReadSummaries)
		})
	})
	return r
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(errorResponse{
						Code:    codeInternal,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("accept_encoding", r.Header.Get("Accept-Encoding")),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
