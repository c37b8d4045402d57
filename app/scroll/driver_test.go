package scroll

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wasteviz/wasteviz/app/config"
)

func sections() []config.SectionDefn {
	return []config.SectionDefn{
		{Label: "day", Start: 0, Span: 0.25, Particles: config.ParticleParams{IntervalMs: 800, Scale: 1, Color: "#ffffff"}},
		{Label: "month", Start: 0.25, Span: 0.25, Particles: config.ParticleParams{IntervalMs: 400, Scale: 3, Color: "#000000", Preserve: true}},
		// overlaps month on purpose; month is listed first and wins
		{Label: "year", Start: 0.4, Span: 0.3, Particles: config.ParticleParams{IntervalMs: 200, Scale: 5, Color: "#ff0000"}},
		{Label: "country", Start: 0.8, Span: 0.2, Particles: config.ParticleParams{IntervalMs: 100, Scale: 9, Color: "#0000ff"}},
	}
}

func TestLocate(t *testing.T) {
	d := NewDriver(sections())
	testCases := []struct {
		progress float64
		label    string
		local    float64
	}{
		{-1, "day", 0},
		{0, "day", 0},
		{0.125, "day", 0.5},
		{0.25, "month", 0},
		{0.45, "month", 0.8},
		{0.6, "year", 2.0 / 3},
		{0.75, "", 0},
		{0.9, "country", 0.5},
		{1, "country", 1},
		{3, "country", 1},
	}
	for _, tc := range testCases {
		pos := d.Locate(tc.progress)
		assert.Equal(t, tc.label, pos.Label, "progress %v", tc.progress)
		assert.InDelta(t, tc.local, pos.Local, 1e-9, "progress %v", tc.progress)
	}
	assert.Equal(t, Inactive, d.Locate(0.75))
}

func TestLocateBridgesRoundingGaps(t *testing.T) {
	span := 1.0 / 7
	state := config.SectionDefn{Label: "state", Start: 5 * span, Span: span}
	country := config.SectionDefn{Label: "country", Start: 6 * span, Span: span}
	d := NewDriver([]config.SectionDefn{state, country})

	end := state.Start + state.Span
	require.Less(t, end, country.Start)
	assert.NotEqual(t, Inactive, d.Locate(end))
	assert.Equal(t, "country", d.Locate(country.Start).Label)

	defaults := NewDriver(config.DefaultSections())
	for _, s := range config.DefaultSections() {
		assert.NotEqual(t, Inactive, defaults.Locate(s.Start+s.Span), "end of %s", s.Label)
	}
}

func TestUpdateReportsTransitionsOnce(t *testing.T) {
	d := NewDriver(sections())
	var transitions []string
	for _, p := range []float64{0, 0.01, 0.1, 0.2, 0.26, 0.3, 0.3, 0.49, 0.5, 0.75, 0.76, 0.85} {
		if pos, changed := d.Update(p); changed {
			transitions = append(transitions, pos.Label)
		}
	}
	assert.Equal(t, []string{"day", "month", "year", "", "country"}, transitions)
	assert.Equal(t, "country", d.Last().Label)
}

func TestParamsAt(t *testing.T) {
	d := NewDriver(sections())

	p, ok := d.ParamsAt(d.Locate(0.125))
	require.True(t, ok)
	assert.Equal(t, 600, p.IntervalMs)
	assert.InDelta(t, 2.0, p.Scale, 1e-9)
	assert.False(t, p.Preserve)

	last, ok := d.ParamsAt(d.Locate(1))
	require.True(t, ok)
	assert.Equal(t, sections()[3].Particles, last)

	_, ok = d.ParamsAt(Inactive)
	assert.False(t, ok)
}

func TestInterpolateEndpoints(t *testing.T) {
	a := config.ParticleParams{IntervalMs: 100, Scale: 1, Color: "#ff0000", Preserve: true}
	b := config.ParticleParams{IntervalMs: 300, Scale: 2, Color: "#0000ff"}
	assert.Equal(t, a, Interpolate(a, b, 0))
	end := Interpolate(a, b, 1)
	assert.Equal(t, 300, end.IntervalMs)
	assert.Equal(t, "#0000ff", end.Color)
	assert.True(t, end.Preserve)
}

func TestProgressOf(t *testing.T) {
	assert.Equal(t, 0.5, ProgressOf(500, 1000))
	assert.Equal(t, 1.0, ProgressOf(1500, 1000))
	assert.Equal(t, 0.0, ProgressOf(-5, 1000))
	assert.Equal(t, 0.0, ProgressOf(5, 0))
}

func TestCoalescer(t *testing.T) {
	var got []float64
	c := NewCoalescer(func(v float64) { got = append(got, v) })

	assert.False(t, c.Flush())
	for _, v := range []float64{0.1, 0.2, 0.3} {
		c.Submit(v)
	}
	assert.True(t, c.Flush())
	assert.False(t, c.Flush())
	c.Submit(0.4)
	assert.True(t, c.Flush())
	assert.Equal(t, []float64{0.3, 0.4}, got)
}

func TestCoalescerRun(t *testing.T) {
	var mu sync.Mutex
	var got []float64
	c := NewCoalescer(func(v float64) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, v)
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, time.Millisecond)

	c.Submit(0.7)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == 0.7
	}, time.Second, time.Millisecond)
}
