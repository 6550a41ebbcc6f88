package httpapi

import (
	"database/sql"
	"log/slog"
	"net/http"

	"airweather-map/internal/appstate"
	"airweather-map/internal/mapview"
	"airweather-map/internal/notify"
	"airweather-map/internal/points"
)

// LookupStatus is the part of the lookup controller the status endpoint reads.
type LookupStatus interface {
	Pending() (mapview.Selection, bool)
}

type Deps struct {
	DB        *sql.DB
	Points    points.PointsRepository
	Surface   *mapview.Surface
	State     *appstate.State
	Toasts    *notify.Center
	Lookups   LookupStatus
	Metrics   http.Handler
	StaticDir string
	Logger    *slog.Logger
}

func NewMux(deps Deps) *http.ServeMux {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	mux := http.NewServeMux()
	registerHealthcheck(mux, deps.DB)
	newHandlers(deps).registerRoutes(mux)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}
	if deps.StaticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(deps.StaticDir))))
	}
	return mux
}
