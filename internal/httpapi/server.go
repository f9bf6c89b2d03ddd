package httpapi

import (
	"net/http"
	"time"

	"windsaloft-server/internal/config"
)

// NewServer wraps mux in the access log. WriteTimeout leaves room for two
// upstream fetches bounded by the upstream timeout. observer may be nil.
func NewServer(cfg config.Config, mux *http.ServeMux, observer RequestObserver) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(mux, observer),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
