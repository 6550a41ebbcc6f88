package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airweather-map/internal/appstate"
	"airweather-map/internal/citydata"
	"airweather-map/internal/clock"
	"airweather-map/internal/lookup"
	"airweather-map/internal/mapview"
	"airweather-map/internal/notify"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPanelRenderer_SetsPanel(t *testing.T) {
	clk := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	state := appstate.New(clk)

	res, err := citydata.Decode([]byte(`{"city":"Tokyo","country":"Japan","aqi":{"value":42}}`))
	require.NoError(t, err)

	dist := 12.34
	panelRenderer{state: state, clock: clk}.Render(lookup.Outcome{
		Session:    1,
		Selection:  mapview.Selection{Lat: 35.6762, Lon: 139.6503, Source: mapview.SourceMarker},
		Result:     res,
		DistanceKM: &dist,
	})

	snap := state.Snapshot()
	require.NotNil(t, snap.Panel)
	assert.Equal(t, "Tokyo", snap.Panel.City)
	assert.Equal(t, "Japan", snap.Panel.Country)
	assert.Equal(t, "35.6762°, 139.6503°", snap.Panel.Coordinates)
	assert.Equal(t, "12.3 km", snap.Panel.Distance)
	assert.Equal(t, "42", snap.Panel.AQI.Value)
}

type stubHealth struct {
	err error
}

func (s stubHealth) Health(ctx context.Context) error { return s.err }

func TestProbeAPI(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLabel string
		wantToast bool
	}{
		{name: "healthy", err: nil, wantLabel: appstate.LabelConnected},
		{name: "unreachable", err: errors.New("dial tcp: connection refused"), wantLabel: appstate.LabelError, wantToast: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk := clock.NewFake(time.Unix(0, 0))
			state := appstate.New(clk)
			toasts := notify.NewCenter(clk, 3*time.Second, discardLogger())

			probeAPI(context.Background(), stubHealth{err: tt.err}, state, toasts, discardLogger())

			snap := state.Snapshot()
			assert.Equal(t, tt.wantLabel, snap.Label)

			toast, ok := toasts.Current()
			assert.Equal(t, tt.wantToast, ok)
			if tt.wantToast {
				assert.Equal(t, notify.TypeError, toast.Type)
				assert.Equal(t, ServerUnreachableMessage, toast.Message)
				assert.Equal(t, ServerUnreachableMessage, snap.Error)
			}
		})
	}
}

func TestProbeAPI_CancelledIsQuiet(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	state := appstate.New(clk)
	toasts := notify.NewCenter(clk, 3*time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	probeAPI(ctx, stubHealth{err: context.Canceled}, state, toasts, discardLogger())

	assert.Equal(t, appstate.LabelConnecting, state.Snapshot().Label)
	_, ok := toasts.Current()
	assert.False(t, ok)
}

type fakePublisher struct {
	err     error
	lookups []lookup.Outcome
	toasts  []notify.Toast
}

func (f *fakePublisher) Topic(name string) string { return "airweather/" + name }

func (f *fakePublisher) PublishLookup(out lookup.Outcome) error {
	f.lookups = append(f.lookups, out)
	return f.err
}

func (f *fakePublisher) PublishToast(t notify.Toast) error {
	f.toasts = append(f.toasts, t)
	return f.err
}

type publishCall struct {
	topic string
	ok    bool
}

type fakeRecorder struct {
	calls []publishCall
}

func (r *fakeRecorder) Published(topic string, err error) {
	r.calls = append(r.calls, publishCall{topic: topic, ok: err == nil})
}

func TestFanOut(t *testing.T) {
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	fan := fanOut{publisher: pub, metrics: rec, logger: discardLogger()}

	fan.lookup(lookup.Outcome{Session: 7, CorrelationID: "abc"})
	fan.toast(notify.Toast{ID: "t1", Type: notify.TypeSuccess, Message: lookup.SuccessMessage})

	pub.err = errors.New("mqtt client not connected")
	fan.toast(notify.Toast{ID: "t2", Type: notify.TypeError, Message: "x"})

	require.Len(t, pub.lookups, 1)
	assert.Equal(t, uint64(7), pub.lookups[0].Session)
	require.Len(t, pub.toasts, 2)
	assert.Equal(t, []publishCall{
		{topic: "airweather/lookups", ok: true},
		{topic: "airweather/toasts", ok: true},
		{topic: "airweather/toasts", ok: false},
	}, rec.calls)
}
