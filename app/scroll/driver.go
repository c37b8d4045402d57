// Package scroll turns a scroll offset into the active narrative section and
// the progress within it.
package scroll

import (
	"math"
	"sync"

	"github.com/wasteviz/wasteviz/app/config"
	"github.com/wasteviz/wasteviz/app/scale"
)

// Position is where the reader is: the active section and the fraction of it
// scrolled through. Index is -1 between sections.
type Position struct {
	Label string  `json:"label"`
	Index int     `json:"index"`
	Local float64 `json:"local"`
}

var Inactive = Position{Index: -1}

const endEpsilon = 1e-9

// ProgressOf converts a scroll offset within a scrollable height to [0, 1].
func ProgressOf(offset, height float64) float64 {
	if height <= 0 {
		return 0
	}
	return math.Max(0, math.Min(1, offset/height))
}

// Driver locates progress values in an ordered list of sections. When ranges
// overlap the earliest listed section wins, so at most one is active.
type Driver struct {
	sections []config.SectionDefn

	mu   sync.Mutex
	last Position
	init bool
}

func NewDriver(sections []config.SectionDefn) *Driver {
	return &Driver{sections: sections, last: Inactive}
}

func (d *Driver) Sections() []config.SectionDefn {
	return d.sections
}

// Locate finds the section containing progress. Ranges are half open, except
// that progress 1 belongs to the last section ending at 1.
func (d *Driver) Locate(progress float64) Position {
	p := math.Max(0, math.Min(1, progress))
	for i, s := range d.sections {
		if p >= s.Start && p < s.Start+s.Span {
			return Position{Label: s.Label, Index: i, Local: (p - s.Start) / s.Span}
		}
	}
	if p >= 1-endEpsilon {
		for i := len(d.sections) - 1; i >= 0; i-- {
			s := d.sections[i]
			if s.Start+s.Span >= 1-endEpsilon {
				return Position{Label: s.Label, Index: i, Local: 1}
			}
		}
	}
	// Rounding can leave sub-epsilon gaps between adjacent sections.
	for i, s := range d.sections {
		if p >= s.Start-endEpsilon && p < s.Start+s.Span+endEpsilon {
			local := math.Max(0, math.Min(1, (p-s.Start)/s.Span))
			return Position{Label: s.Label, Index: i, Local: local}
		}
	}
	return Inactive
}

// Update locates progress and reports whether the active section differs
// from the one seen by the previous Update.
func (d *Driver) Update(progress float64) (Position, bool) {
	pos := d.Locate(progress)
	d.mu.Lock()
	defer d.mu.Unlock()
	changed := !d.init || pos.Label != d.last.Label
	d.init = true
	d.last = pos
	return pos, changed
}

func (d *Driver) Last() Position {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Section returns the definition behind pos, or nil when inactive.
func (d *Driver) Section(pos Position) *config.SectionDefn {
	if pos.Index < 0 || pos.Index >= len(d.sections) {
		return nil
	}
	return &d.sections[pos.Index]
}

// ParamsAt blends the particle parameters of the active section toward those
// of the following section as the reader scrolls through it.
func (d *Driver) ParamsAt(pos Position) (config.ParticleParams, bool) {
	s := d.Section(pos)
	if s == nil {
		return config.ParticleParams{}, false
	}
	if pos.Index+1 >= len(d.sections) {
		return s.Particles, true
	}
	return Interpolate(s.Particles, d.sections[pos.Index+1].Particles, pos.Local), true
}

// Interpolate blends interval, scale and color of two parameter sets. The
// preserve flag is taken from the first one.
func Interpolate(from, to config.ParticleParams, t float64) config.ParticleParams {
	t = math.Max(0, math.Min(1, t))
	lerp := func(a, b float64) float64 { return a + (b-a)*t }
	return config.ParticleParams{
		IntervalMs: int(math.Round(lerp(float64(from.IntervalMs), float64(to.IntervalMs)))),
		Scale:      lerp(from.Scale, to.Scale),
		Color:      scale.BlendHex(from.Color, to.Color, t),
		Preserve:   from.Preserve,
	}
}
