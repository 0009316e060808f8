package httpapi

import (
	"database/sql"
	"net/http"

	"surfsup-server/internal/observability"
)

// NewMux returns a mux with the operational routes registered. Feature
// modules add their own routes to it.
func NewMux(db *sql.DB, metrics *observability.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}
