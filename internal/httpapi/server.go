package httpapi

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"surfsup-server/internal/config"
	"surfsup-server/internal/observability"
)

func NewServer(cfg config.Config, mux *http.ServeMux, metrics *observability.Metrics) *http.Server {
	return newServer(cfg, mux, metrics, clockwork.NewRealClock())
}

func newServer(cfg config.Config, mux *http.ServeMux, metrics *observability.Metrics, clock clockwork.Clock) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           instrument(mux, clock, metrics),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
