package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"ets/internal/platform/logging"
	"ets/internal/platform/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logger attaches a request scoped zerolog logger, writes one access log
// line per request and feeds the metrics collector when one is given.
func Logger(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := log.With().Str("request_id", GetRequestID(r.Context())).Logger()
			ctx := logging.WithTrace(reqLogger.WithContext(r.Context()))
			r = r.WithContext(ctx)

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			duration := time.Since(start)
			if collector != nil {
				collector.Record(recorder.status, duration)
			}

			event := logging.From(ctx).Info()
			if recorder.status >= http.StatusInternalServerError {
				event = logging.From(ctx).Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", recorder.status).
				Int64("duration_ms", duration.Milliseconds()).
				Msg("http request")
		})
	}
}
