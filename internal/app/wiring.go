package app

import (
	"context"
	"log/slog"
	"time"

	"airweather-map/internal/appstate"
	"airweather-map/internal/clock"
	"airweather-map/internal/lookup"
	"airweather-map/internal/mqtt"
	"airweather-map/internal/notify"
	"airweather-map/internal/views"
)

// ServerUnreachableMessage is shown when the startup health probe fails.
const ServerUnreachableMessage = "Cannot connect to server. Make sure server is running."

// panelRenderer turns a finished lookup into the panel view model held by the app state.
type panelRenderer struct {
	state *appstate.State
	clock clock.Clock
}

func (r panelRenderer) Render(out lookup.Outcome) {
	r.state.SetPanel(views.Render(out.Result, views.Input{
		Lat:        out.Selection.Lat,
		Lon:        out.Selection.Lon,
		DistanceKM: out.DistanceKM,
		Now:        r.clock.Now(),
	}))
}

type healthChecker interface {
	Health(ctx context.Context) error
}

type connectionStatus interface {
	SetConnected()
	SetDisconnected(msg string)
}

// probeAPI checks the backend once. A failure leaves a persistent error state and an error toast.
func probeAPI(ctx context.Context, api healthChecker, status connectionStatus, toasts *notify.Center, logger *slog.Logger) {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := api.Health(probeCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("api health probe failed", "error", err)
		status.SetDisconnected(ServerUnreachableMessage)
		toasts.Error(ServerUnreachableMessage)
		return
	}
	status.SetConnected()
	logger.Info("api health probe ok")
}

type publishRecorder interface {
	Published(topic string, err error)
}

type lookupPublisher interface {
	Topic(name string) string
	PublishLookup(out lookup.Outcome) error
	PublishToast(t notify.Toast) error
}

// fanOut forwards finished lookups and toasts to the broker and counts each attempt.
type fanOut struct {
	publisher lookupPublisher
	metrics   publishRecorder
	logger    *slog.Logger
}

func (f fanOut) lookup(out lookup.Outcome) {
	err := f.publisher.PublishLookup(out)
	f.metrics.Published(f.publisher.Topic(mqtt.LookupsTopic), err)
	if err != nil {
		f.logger.Debug("lookup not published", "correlation_id", out.CorrelationID, "error", err)
	}
}

func (f fanOut) toast(t notify.Toast) {
	err := f.publisher.PublishToast(t)
	f.metrics.Published(f.publisher.Topic(mqtt.ToastsTopic), err)
	if err != nil {
		f.logger.Debug("toast not published", "toast_id", t.ID, "error", err)
	}
}
