package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/paulmach/orb"

	"airweather-map/internal/appstate"
	"airweather-map/internal/mapview"
	"airweather-map/internal/notify"
	"airweather-map/internal/points"
	"airweather-map/internal/utils"
	"airweather-map/internal/views"
)

type handlers struct {
	logger    *slog.Logger
	points    points.PointsRepository
	surface   *mapview.Surface
	state     *appstate.State
	toasts    *notify.Center
	lookups   LookupStatus
	validator *requestValidator
}

func newHandlers(deps Deps) *handlers {
	return &handlers{
		logger:    deps.Logger,
		points:    deps.Points,
		surface:   deps.Surface,
		state:     deps.State,
		toasts:    deps.Toasts,
		lookups:   deps.Lookups,
		validator: newRequestValidator(),
	}
}

func (h *handlers) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", h.handlePage)
	mux.HandleFunc("GET /partials/panel", h.handlePanelPartial)
	mux.HandleFunc("GET /partials/status", h.handleStatusPartial)

	mux.HandleFunc("GET /api/v1/points", h.handlePoints)
	mux.HandleFunc("GET /api/v1/points/{name}", h.handlePoint)
	mux.HandleFunc("GET /api/v1/regions", h.handleRegions)
	mux.HandleFunc("GET /api/v1/viewport", h.handleViewport)
	mux.HandleFunc("POST /api/v1/viewport", h.handleViewportUpdate)
	mux.HandleFunc("POST /api/v1/selections", h.handleSelection)
	mux.HandleFunc("GET /api/v1/panel", h.handlePanel)
	mux.HandleFunc("GET /api/v1/status", h.handleStatus)
}

func (h *handlers) pageData() *views.PageData {
	snap := h.state.Snapshot()
	data := &views.PageData{
		Status: views.StatusView{Label: snap.Label, Class: snap.Class},
		Panel:  snap.Panel,
	}
	if h.toasts != nil {
		if t, ok := h.toasts.Current(); ok {
			data.Toast = &views.ToastView{Type: string(t.Type), Icon: t.Icon, Message: t.Message}
		}
	}
	if h.surface != nil {
		for _, m := range h.surface.Markers() {
			data.Markers = append(data.Markers, views.MarkerView{Name: m.Name, Country: m.Country, Lat: m.Lat, Lon: m.Lon})
		}
	}
	return data
}

func (h *handlers) render(w http.ResponseWriter, name string, fn func(io.Writer, *views.PageData) error) {
	var buf bytes.Buffer
	if err := fn(&buf, h.pageData()); err != nil {
		h.logger.Error("template render failed", "template", name, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, http.StatusOK, buf.Bytes())
}

func (h *handlers) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	h.render(w, "index", views.RenderPage)
}

func (h *handlers) handlePanelPartial(w http.ResponseWriter, r *http.Request) {
	h.render(w, "panel", views.RenderPanelPartial)
}

func (h *handlers) handleStatusPartial(w http.ResponseWriter, r *http.Request) {
	h.render(w, "status", views.RenderStatusPartial)
}

func (h *handlers) handlePoints(w http.ResponseWriter, r *http.Request) {
	region := strings.TrimSpace(r.URL.Query().Get("region"))

	var (
		pois []points.PointOfInterest
		err  error
	)
	if region == "" {
		pois, err = h.points.ListPoints(r.Context())
	} else {
		pois, err = h.points.ListPointsByRegion(r.Context(), region)
	}
	if err != nil {
		h.logger.Error("list points failed", "region", region, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load points")
		return
	}
	if pois == nil {
		pois = []points.PointOfInterest{}
	}
	utils.WriteJSON(w, http.StatusOK, pois)
}

func (h *handlers) handlePoint(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	p, err := h.points.GetPointByName(r.Context(), name)
	if errors.Is(err, points.ErrNotFound) {
		utils.WriteError(w, http.StatusNotFound, fmt.Sprintf("point %q not found", name))
		return
	}
	if err != nil {
		h.logger.Error("get point failed", "name", name, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load point")
		return
	}
	utils.WriteJSON(w, http.StatusOK, p)
}

func (h *handlers) handleRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.points.ListRegions(r.Context())
	if err != nil {
		h.logger.Error("list regions failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load regions")
		return
	}
	utils.WriteJSON(w, http.StatusOK, regions)
}

func (h *handlers) handleViewport(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.surface.Viewport())
}

type viewportRequest struct {
	Lat  *float64 `json:"lat"`
	Lon  *float64 `json:"lon"`
	Zoom *float64 `json:"zoom" validate:"omitempty,min=0,max=24"`
}

// handleViewportUpdate applies a pan end (lat+lon), a zoom end (zoom), or both. The result is clamped.
func (h *handlers) handleViewportUpdate(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if (req.Lat == nil) != (req.Lon == nil) {
		utils.WriteError(w, http.StatusBadRequest, "lat and lon must be set together")
		return
	}
	if req.Lat == nil && req.Zoom == nil {
		utils.WriteError(w, http.StatusBadRequest, "nothing to update: set lat and lon, zoom, or both")
		return
	}

	var vp mapview.Viewport
	if req.Lat != nil {
		vp = h.surface.PanEnd(orb.Point{*req.Lon, *req.Lat})
	}
	if req.Zoom != nil {
		vp = h.surface.ZoomEnd(*req.Zoom)
	}
	utils.WriteJSON(w, http.StatusOK, vp)
}

type selectionRequest struct {
	Lat    *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lon    *float64 `json:"lon" validate:"omitempty,min=-180,max=180"`
	Marker string   `json:"marker" validate:"omitempty,max=100"`
	Label  string   `json:"label" validate:"omitempty,max=200"`
	Source string   `json:"source" validate:"omitempty,oneof=map nearby"`
}

// handleSelection turns a marker, map or nearby-city activation into a Selection. The lookup itself
// runs asynchronously; poll /api/v1/status or /api/v1/panel for the outcome.
func (h *handlers) handleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var sel mapview.Selection
	switch {
	case req.Marker != "":
		var err error
		sel, err = h.surface.ActivateMarker(req.Marker)
		if errors.Is(err, mapview.ErrUnknownMarker) {
			utils.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			utils.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
	case req.Lat == nil || req.Lon == nil:
		utils.WriteError(w, http.StatusBadRequest, "lat and lon are required unless marker is set")
		return
	case req.Source == string(mapview.SourceNearby):
		sel = h.surface.ActivateNearby(*req.Lat, *req.Lon, req.Label)
	default:
		sel = h.surface.OnMapActivated(*req.Lat, *req.Lon)
	}

	utils.WriteJSON(w, http.StatusAccepted, map[string]any{"selection": sel})
}

func (h *handlers) handlePanel(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	if snap.Panel == nil {
		utils.WriteError(w, http.StatusNotFound, "no lookup has completed yet")
		return
	}
	utils.WriteJSON(w, http.StatusOK, snap.Panel)
}

type statusResponse struct {
	appstate.Snapshot
	Toast   *notify.Toast      `json:"toast,omitempty"`
	Pending *mapview.Selection `json:"pending,omitempty"`
	Pulses  []mapview.Pulse    `json:"pulses"`
}

func (h *handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Snapshot: h.state.Snapshot(), Pulses: h.surface.ActivePulses()}
	resp.Panel = nil
	if h.toasts != nil {
		if t, ok := h.toasts.Current(); ok {
			resp.Toast = &t
		}
	}
	if h.lookups != nil {
		if sel, ok := h.lookups.Pending(); ok {
			resp.Pending = &sel
		}
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}
