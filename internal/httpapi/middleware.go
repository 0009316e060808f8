package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"

	"surfsup-server/internal/observability"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// instrument logs every request and feeds the request metrics. The route
// label is the mux pattern that matched, so path parameters do not explode
// label cardinality.
func instrument(next http.Handler, clock clockwork.Clock, metrics *observability.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := clock.Now()

		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)

		elapsed := clock.Since(start)
		metrics.ObserveRequest(r.Pattern, r.Method, sr.status, elapsed)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", r.Pattern,
			"status", sr.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}
