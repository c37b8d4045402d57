package view

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/wasteviz/wasteviz/app/config"
	"github.com/wasteviz/wasteviz/app/scroll"
)

// Portion of a section used to fade its box in and out.
const fadeFraction = 0.2

// Vertical distance, in pixels, a fully faded box is pushed down.
const boxTravel = 40.0

// Tween counts from From to To over Duration, starting at Start.
type Tween struct {
	From, To float64
	Start    time.Time
	Duration time.Duration
}

func (tw Tween) ValueAt(now time.Time) float64 {
	if tw.Duration <= 0 {
		return tw.To
	}
	t := float64(now.Sub(tw.Start)) / float64(tw.Duration)
	t = math.Max(0, math.Min(1, t))
	return tw.From + (tw.To-tw.From)*t
}

func (tw Tween) Done(now time.Time) bool {
	return !now.Before(tw.Start.Add(tw.Duration))
}

type IllustrationSurface struct {
	Label       string  `json:"label"`
	Opacity     float64 `json:"opacity"`
	OffsetY     float64 `json:"offset_y"`
	CounterText string  `json:"counter_text,omitempty"`
	Counting    bool    `json:"counting"`
}

// IllustrationBinder places the illustration box of the active section and
// runs its count-up.
type IllustrationBinder struct {
	now func() time.Time

	mu      sync.Mutex
	label   string
	opacity float64
	offset  float64
	counter *config.CounterDefn
	tween   Tween
}

func NewIllustrationBinder(now func() time.Time) *IllustrationBinder {
	if now == nil {
		now = time.Now
	}
	return &IllustrationBinder{now: now}
}

func (b *IllustrationBinder) ShowPeriod(pos scroll.Position, section *config.SectionDefn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.label = pos.Label
	b.counter = nil
	if section != nil && section.Counter != nil {
		b.counter = section.Counter
		b.tween = Tween{
			To:       section.Counter.To,
			Start:    b.now(),
			Duration: time.Duration(section.Counter.DurationMs) * time.Millisecond,
		}
	}
	b.place(pos)
}

// Track moves the box with the reader's progress inside the section.
func (b *IllustrationBinder) Track(pos scroll.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if pos.Label != b.label {
		return
	}
	b.place(pos)
}

func (b *IllustrationBinder) place(pos scroll.Position) {
	if pos.Index < 0 {
		b.opacity, b.offset = 0, boxTravel
		return
	}
	b.opacity = math.Max(0, math.Min(1, math.Min(pos.Local/fadeFraction, (1-pos.Local)/fadeFraction)))
	b.offset = (1 - b.opacity) * boxTravel
}

func (b *IllustrationBinder) Snapshot() IllustrationSurface {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := IllustrationSurface{Label: b.label, Opacity: b.opacity, OffsetY: b.offset}
	if b.counter != nil {
		now := b.now()
		v := math.Round(b.tween.ValueAt(now))
		s.CounterText = fmt.Sprintf("%s%s%s", b.counter.Prefix, humanize.Comma(int64(v)), b.counter.Suffix)
		s.Counting = !b.tween.Done(now)
	}
	return s
}
