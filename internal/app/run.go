package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"airweather-map/internal/apiclient"
	"airweather-map/internal/appstate"
	"airweather-map/internal/clock"
	"airweather-map/internal/config"
	"airweather-map/internal/db"
	"airweather-map/internal/httpapi"
	"airweather-map/internal/lookup"
	"airweather-map/internal/mapview"
	"airweather-map/internal/metrics"
	"airweather-map/internal/migrate"
	"airweather-map/internal/mqtt"
	"airweather-map/internal/notify"
	"airweather-map/internal/points"
	"airweather-map/internal/views"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"staticDir", cfg.StaticDir,
		"apiBase", cfg.APIBase,
		"apiTimeout", cfg.APITimeout,
		"debounceWindow", cfg.DebounceWindow,
		"staleGuard", cfg.StaleGuard,
		"userLocation", cfg.UserLocation != nil,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopicPrefix", cfg.MQTTTopicPrefix,
	)

	dbConn, err := db.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			logger.Error("db close", "error", closeErr)
		}
	}()

	if err := migrate.Run(ctx, dbConn); err != nil {
		return err
	}

	repo := points.NewRepository(dbConn)
	pois, err := repo.ListPoints(ctx)
	if err != nil {
		return err
	}
	logger.Info("points loaded", "count", len(pois))

	if err := views.LoadTemplates(); err != nil {
		return err
	}

	clk := clock.Real()
	m := metrics.New()
	state := appstate.New(clk)
	toasts := notify.NewCenter(clk, cfg.ToastDuration, logger)
	toasts.OnShow(func(t notify.Toast) { m.ToastShown(string(t.Type)) })

	var publisher *mqtt.Publisher
	var onComplete func(lookup.Outcome)
	if cfg.MQTTEnabled() {
		publisher, err = mqtt.NewPublisher(cfg, logger)
		if err != nil {
			return err
		}
		// Short timeout so a missing broker does not block startup.
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err = publisher.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
		fan := fanOut{publisher: publisher, metrics: m, logger: logger}
		toasts.OnShow(fan.toast)
		onComplete = fan.lookup
	}

	api := apiclient.New(cfg.APIBase, cfg.APITimeout, logger)

	locator := lookup.NoLocation()
	if cfg.UserLocation != nil {
		locator = lookup.NewStaticLocator(cfg.UserLocation.Lat, cfg.UserLocation.Lon)
	}

	ctrl := lookup.New(lookup.Options{
		Fetcher:        api,
		Renderer:       panelRenderer{state: state, clock: clk},
		Notifier:       toasts,
		Status:         state,
		Locator:        locator,
		Observer:       m,
		Clock:          clk,
		Logger:         logger,
		DebounceWindow: cfg.DebounceWindow,
		StaleGuard:     cfg.StaleGuard,
		OnComplete:     onComplete,
	})

	viewport := mapview.DefaultViewport()
	viewport.PulseDuration = cfg.PulseDuration
	surface := mapview.New(viewport, clk, ctrl.Accept)
	surface.LoadPoints(pois)

	mux := httpapi.NewMux(httpapi.Deps{
		DB:        dbConn,
		Points:    repo,
		Surface:   surface,
		State:     state,
		Toasts:    toasts,
		Lookups:   ctrl,
		Metrics:   m.Handler(),
		StaticDir: cfg.StaticDir,
		Logger:    logger,
	})
	srv := httpapi.NewServer(cfg, mux, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		probeAPI(gctx, api, state, toasts, logger)
		return nil
	})

	g.Go(func() error {
		return ctrl.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logger.Info("http shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()

	if publisher != nil {
		logger.Info("mqtt disconnecting")
		publisher.Disconnect()
	}

	if err != nil {
		return err
	}
	return ctx.Err()
}
