package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"airweather-map/internal/config"
)

func NewServer(cfg config.Config, mux *http.ServeMux, logger *slog.Logger) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(logger, withCORS(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
