package view

import (
	"sync"
	"time"

	"github.com/wasteviz/wasteviz/app/scale"
)

type Bar struct {
	Label     string  `json:"label"`
	Total     float64 `json:"total"`
	Length    float64 `json:"length"`
	Highlight bool    `json:"highlight,omitempty"`
}

type BarSurface struct {
	Name     string  `json:"name"`
	Title    string  `json:"title"`
	Rendered bool    `json:"rendered"`
	Revision uint64  `json:"revision"`
	Year     int     `json:"year"`
	Scope    string  `json:"scope"`
	Bars     []Bar   `json:"bars"`
	Width    float64 `json:"width"`
	// Every redraw grows the bars from AnimateFrom to their length over Duration.
	AnimateFrom float64       `json:"animate_from"`
	Duration    time.Duration `json:"duration"`
}

// BarBinder draws one ranked list of Result.Ranked as horizontal bars.
type BarBinder struct {
	name     string
	title    string
	scoped   bool
	width    float64
	duration time.Duration

	mu      sync.RWMutex
	surface BarSurface
}

// NewBarBinder returns a binder for the list named name. A scoped binder
// labels its chart with the focused state.
func NewBarBinder(name, title string, scoped bool, width float64, duration time.Duration) *BarBinder {
	return &BarBinder{name: name, title: title, scoped: scoped, width: width, duration: duration}
}

func (b *BarBinder) Name() string {
	return b.name
}

func (b *BarBinder) Render(res Result, sel Selection) {
	ranked, ok := res.Ranked[b.name]
	if !ok {
		return
	}
	totals := make([]float64, len(ranked))
	for i, c := range ranked {
		totals[i] = c.Total
	}
	_, hi, _ := scale.Extent(totals)
	length := scale.NewLinear(0, hi, 0, b.width)
	length.Clamp = true

	focus := sel.Focus()
	bars := make([]Bar, len(ranked))
	for i, c := range ranked {
		bars[i] = Bar{
			Label:     c.Label,
			Total:     c.Total,
			Length:    length.Map(c.Total),
			Highlight: focus != "" && c.Label == focus,
		}
	}

	scope := "United States"
	if focus != "" && b.scoped {
		scope = focus
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.surface = BarSurface{
		Name:        b.name,
		Title:       b.title,
		Rendered:    true,
		Revision:    b.surface.Revision + 1,
		Year:        res.Year,
		Scope:       scope,
		Bars:        bars,
		Width:       b.width,
		AnimateFrom: 0,
		Duration:    b.duration,
	}
}

func (b *BarBinder) Snapshot() BarSurface {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := b.surface
	s.Bars = append([]Bar(nil), b.surface.Bars...)
	if s.Name == "" {
		s.Name, s.Title, s.Width = b.name, b.title, b.width
	}
	return s
}
