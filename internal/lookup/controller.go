// Package lookup turns map Selections into city-data lookups: it debounces them, fetches the
// weather/AQI payload and hands the outcome to a renderer or a notifier.
package lookup

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"airweather-map/internal/apiclient"
	"airweather-map/internal/citydata"
	"airweather-map/internal/clock"
	"airweather-map/internal/geo"
	"airweather-map/internal/mapview"
)

const (
	DefaultDebounceWindow = 300 * time.Millisecond
	SuccessMessage        = "Data updated successfully"
)

type Fetcher interface {
	FetchCityData(ctx context.Context, lat, lon float64) (citydata.Result, error)
}

// Renderer receives every successful lookup that is allowed to become current.
type Renderer interface {
	Render(Outcome)
}

type Notifier interface {
	Success(message string)
	Error(message string)
}

// Status tracks the loading and error indicators.
type Status interface {
	BeginLoading(session uint64)
	FinishLoading(session uint64, err error)
}

// Observer is told about selections and lookups, for metrics.
type Observer interface {
	SelectionReceived(source mapview.Source)
	LookupStarted()
	LookupFinished(kind string, d time.Duration)
	StaleResultDropped()
}

type Options struct {
	Fetcher  Fetcher
	Renderer Renderer
	Notifier Notifier
	Status   Status
	Locator  Locator
	Observer Observer
	Clock    clock.Clock
	Logger   *slog.Logger

	DebounceWindow time.Duration
	// StaleGuard drops a result whose session is older than the newest one already rendered.
	StaleGuard bool
	// OnComplete is called once per finished session, success or failure.
	OnComplete func(Outcome)
}

// Outcome is the result of one lookup session.
type Outcome struct {
	Session       uint64            `json:"session"`
	CorrelationID string            `json:"correlation_id"`
	Selection     mapview.Selection `json:"selection"`
	Result        citydata.Result   `json:"-"`
	// DistanceKM is the distance from the user's location; nil when it is unknown.
	DistanceKM  *float64  `json:"distance_km,omitempty"`
	Err         error     `json:"-"`
	Stale       bool      `json:"stale,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

func (o Outcome) Succeeded() bool { return o.Err == nil }

type Controller struct {
	fetcher    Fetcher
	renderer   Renderer
	notifier   Notifier
	status     Status
	locator    Locator
	observer   Observer
	clock      clock.Clock
	logger     *slog.Logger
	staleGuard bool
	onComplete func(Outcome)
	debouncer  *Debouncer

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	// startMu orders wg.Add against Close.
	startMu sync.Mutex
	closed  bool
	wg      sync.WaitGroup
	seq     atomic.Uint64

	// renderMu serialises the stale check with Render so the newest applied session wins.
	renderMu    sync.Mutex
	lastApplied uint64
	last        *Outcome
}

func New(opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = DefaultDebounceWindow
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		fetcher:    opts.Fetcher,
		renderer:   opts.Renderer,
		notifier:   opts.Notifier,
		status:     opts.Status,
		locator:    opts.Locator,
		observer:   opts.Observer,
		clock:      opts.Clock,
		logger:     opts.Logger,
		staleGuard: opts.StaleGuard,
		onComplete: opts.OnComplete,
		ctx:        ctx,
		cancel:     cancel,
	}
	c.debouncer = NewDebouncer(opts.Clock, opts.DebounceWindow, func(sel mapview.Selection) { c.start(sel) })
	return c
}

// Accept routes a Selection: nearby-city activations fetch at once, everything else is debounced.
func (c *Controller) Accept(sel mapview.Selection) {
	if sel.Source == mapview.SourceNearby {
		c.FetchNow(sel)
		return
	}
	c.Select(sel)
}

// Select debounces sel. Only the last Selection of a burst is fetched.
func (c *Controller) Select(sel mapview.Selection) {
	c.observer.SelectionReceived(sel.Source)
	c.debouncer.Submit(sel)
}

// FetchNow starts a lookup session for sel without waiting for the debounce window.
// It returns the session number, or 0 once the controller is closed.
func (c *Controller) FetchNow(sel mapview.Selection) uint64 {
	c.observer.SelectionReceived(sel.Source)
	return c.start(sel)
}

// Pending returns the Selection waiting in the debounce window.
func (c *Controller) Pending() (mapview.Selection, bool) {
	return c.debouncer.Pending()
}

// LastOutcome returns the most recently finished session.
func (c *Controller) LastOutcome() (Outcome, bool) {
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	if c.last == nil {
		return Outcome{}, false
	}
	return *c.last, true
}

// Run blocks until ctx is done and then closes the controller.
func (c *Controller) Run(ctx context.Context) error {
	<-ctx.Done()
	c.Close()
	return nil
}

// Close drops any pending Selection, cancels in-flight requests and waits for them to finish.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.startMu.Lock()
		c.closed = true
		c.startMu.Unlock()
		c.debouncer.Stop()
		c.cancel()
	})
	c.wg.Wait()
}

// Wait blocks until every started session has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) start(sel mapview.Selection) uint64 {
	c.startMu.Lock()
	if c.closed {
		c.startMu.Unlock()
		return 0
	}
	c.wg.Add(1)
	c.startMu.Unlock()

	session := c.seq.Add(1)
	id := uuid.NewString()
	if c.status != nil {
		c.status.BeginLoading(session)
	}
	go c.run(session, id, sel)
	return session
}

func (c *Controller) run(session uint64, id string, sel mapview.Selection) {
	defer c.wg.Done()

	log := c.logger.With("session", session, "correlation_id", id)
	out := Outcome{Session: session, CorrelationID: id, Selection: sel, StartedAt: c.clock.Now()}
	c.observer.LookupStarted()
	log.Info("lookup started", "lat", sel.Lat, "lon", sel.Lon, "label", sel.LabelOr(""), "source", sel.Source)

	var err error
	if !geo.ValidCoordinates(sel.Lat, sel.Lon) {
		err = apiclient.ErrInvalidCoordinates
	} else {
		out.Result, err = c.fetcher.FetchCityData(c.ctx, sel.Lat, sel.Lon)
	}
	out.CompletedAt = c.clock.Now()
	elapsed := out.CompletedAt.Sub(out.StartedAt)

	if err != nil {
		out.Err = err
		c.fail(log, out, elapsed)
		return
	}

	out.DistanceKM = c.distance(log, sel)

	// A stale success is only reported through OnComplete.
	c.renderMu.Lock()
	if c.staleGuard && session < c.lastApplied {
		out.Stale = true
	} else {
		if session > c.lastApplied {
			c.lastApplied = session
		}
		if c.renderer != nil {
			c.renderer.Render(out)
		}
		c.last = &out
	}
	newest := c.lastApplied
	c.renderMu.Unlock()

	c.observer.LookupFinished("success", elapsed)

	if out.Stale {
		c.observer.StaleResultDropped()
		log.Info("stale lookup result dropped", "newest_applied", newest)
	} else {
		if c.status != nil {
			c.status.FinishLoading(session, nil)
		}
		if c.notifier != nil {
			c.notifier.Success(SuccessMessage)
		}
		log.Info("lookup succeeded", "city", out.Result.City, "duration_ms", elapsed.Milliseconds())
	}
	c.complete(out)
}

func (c *Controller) fail(log *slog.Logger, out Outcome, elapsed time.Duration) {
	err := out.Err
	if c.status != nil {
		c.status.FinishLoading(out.Session, err)
	}

	c.renderMu.Lock()
	if !c.staleGuard || out.Session >= c.lastApplied {
		c.last = &out
	}
	if out.Session > c.lastApplied {
		c.lastApplied = out.Session
	}
	c.renderMu.Unlock()

	if errors.Is(err, context.Canceled) && c.ctx.Err() != nil {
		log.Debug("lookup cancelled by shutdown")
		c.observer.LookupFinished("cancelled", elapsed)
		return
	}

	kind := apiclient.KindOf(err)
	kindName := "unknown"
	if kind != 0 {
		kindName = kind.String()
	}
	c.observer.LookupFinished(kindName, elapsed)
	log.Warn("lookup failed", "kind", kindName, "error", err, "duration_ms", elapsed.Milliseconds())

	if c.notifier != nil {
		c.notifier.Error(apiclient.UserMessage(err))
	}
	c.complete(out)
}

func (c *Controller) distance(log *slog.Logger, sel mapview.Selection) *float64 {
	if c.locator == nil {
		return nil
	}
	lat, lon, err := c.locator.Locate(c.ctx)
	if err != nil {
		log.Debug("user location unavailable", "error", err)
		return nil
	}
	d := geo.Haversine(lat, lon, sel.Lat, sel.Lon)
	return &d
}

func (c *Controller) complete(out Outcome) {
	if c.onComplete != nil {
		c.onComplete(out)
	}
}

type nopObserver struct{}

func (nopObserver) SelectionReceived(mapview.Source)     {}
func (nopObserver) LookupStarted()                       {}
func (nopObserver) LookupFinished(string, time.Duration) {}
func (nopObserver) StaleResultDropped()                  {}
