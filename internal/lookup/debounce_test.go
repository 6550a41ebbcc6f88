package lookup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airweather-map/internal/clock"
	"airweather-map/internal/mapview"
)

func TestDebouncer_LastSelectionWins(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	var fired []mapview.Selection
	var firedAt []time.Duration
	d := NewDebouncer(clk, 300*time.Millisecond, func(sel mapview.Selection) {
		fired = append(fired, sel)
		firedAt = append(firedAt, clk.Now().Sub(time.Unix(0, 0)))
	})

	d.Submit(mapview.Selection{Lat: 1, Lon: 1})
	clk.Advance(100 * time.Millisecond)
	d.Submit(mapview.Selection{Lat: 2, Lon: 2})

	pending, ok := d.Pending()
	require.True(t, ok)
	assert.Equal(t, 2.0, pending.Lat)

	clk.Advance(299 * time.Millisecond)
	assert.Empty(t, fired)

	clk.Advance(time.Millisecond)
	require.Len(t, fired, 1)
	assert.Equal(t, 2.0, fired[0].Lat)
	assert.Equal(t, 400*time.Millisecond, firedAt[0])

	_, ok = d.Pending()
	assert.False(t, ok)
}

func TestDebouncer_SeparateBurstsFireSeparately(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	count := 0
	d := NewDebouncer(clk, 300*time.Millisecond, func(mapview.Selection) { count++ })

	d.Submit(mapview.Selection{Lat: 1})
	clk.Advance(time.Second)
	d.Submit(mapview.Selection{Lat: 2})
	clk.Advance(time.Second)

	assert.Equal(t, 2, count)
}

func TestDebouncer_Restart(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	count := 0
	d := NewDebouncer(clk, 300*time.Millisecond, func(mapview.Selection) { count++ })

	d.Restart() // nothing pending: no timer
	assert.Zero(t, clk.Pending())

	d.Submit(mapview.Selection{Lat: 1})
	clk.Advance(200 * time.Millisecond)
	d.Restart()
	clk.Advance(200 * time.Millisecond)
	assert.Zero(t, count)
	clk.Advance(100 * time.Millisecond)
	assert.Equal(t, 1, count)
}

func TestDebouncer_Stop(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	count := 0
	d := NewDebouncer(clk, 300*time.Millisecond, func(mapview.Selection) { count++ })

	d.Submit(mapview.Selection{Lat: 1})
	d.Stop()
	d.Submit(mapview.Selection{Lat: 2})
	clk.Advance(time.Second)

	assert.Zero(t, count)
	_, ok := d.Pending()
	assert.False(t, ok)
}
