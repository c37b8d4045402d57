// Package scale maps data values onto visual positions and colors. Domains
// come from the result being drawn and are rebuilt for every request.
package scale

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
)

// Extent returns the smallest and largest of values, ignoring NaNs.
func Extent(values []float64) (lo, hi float64, ok bool) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return 0, 0, false
	}
	return floats.Min(clean), floats.Max(clean), true
}

// Linear is an affine map from [D0, D1] onto [R0, R1].
type Linear struct {
	D0, D1 float64
	R0, R1 float64
	Clamp  bool
}

func NewLinear(domainMin, domainMax, rangeMin, rangeMax float64) Linear {
	return Linear{D0: domainMin, D1: domainMax, R0: rangeMin, R1: rangeMax}
}

// Map returns the position of v. A degenerate domain maps everything to R0.
func (l Linear) Map(v float64) float64 {
	if l.D1 == l.D0 {
		return l.R0
	}
	t := (v - l.D0) / (l.D1 - l.D0)
	if l.Clamp {
		t = clamp01(t)
	}
	return l.R0 + t*(l.R1-l.R0)
}

func (l Linear) Invert(pos float64) float64 {
	if l.R1 == l.R0 {
		return l.D0
	}
	return l.D0 + (pos-l.R0)/(l.R1-l.R0)*(l.D1-l.D0)
}

// Sequential interpolates a color ramp over [Min, Max] in Lab space.
type Sequential struct {
	Min, Max float64
	ramp     []colorful.Color
}

// NewSequential builds a scale over stops, given as hex colors. At least two
// stops are needed.
func NewSequential(domainMin, domainMax float64, stops ...string) (*Sequential, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("a color ramp needs at least 2 stops, got %d", len(stops))
	}
	ramp := make([]colorful.Color, len(stops))
	for i, s := range stops {
		c, err := colorful.Hex(s)
		if err != nil {
			return nil, fmt.Errorf("color stop %d: %w", i, err)
		}
		ramp[i] = c
	}
	return &Sequential{Min: domainMin, Max: domainMax, ramp: ramp}, nil
}

// Color returns the hex color of v. Values outside the domain are clamped, a
// degenerate domain yields the middle of the ramp.
func (s *Sequential) Color(v float64) string {
	t := 0.5
	if s.Max != s.Min {
		t = clamp01((v - s.Min) / (s.Max - s.Min))
	}
	return s.At(t)
}

// At returns the ramp color at t in [0, 1].
func (s *Sequential) At(t float64) string {
	pos := clamp01(t) * float64(len(s.ramp)-1)
	i := int(math.Floor(pos))
	if i >= len(s.ramp)-1 {
		return s.ramp[len(s.ramp)-1].Hex()
	}
	frac := pos - float64(i)
	if frac == 0 {
		return s.ramp[i].Hex()
	}
	return s.ramp[i].BlendLab(s.ramp[i+1], frac).Clamped().Hex()
}

// BlendHex mixes two hex colors, t=0 giving a and t=1 giving b. Invalid
// colors fall back to the other one.
func BlendHex(a, b string, t float64) string {
	ca, errA := colorful.Hex(a)
	cb, errB := colorful.Hex(b)
	switch {
	case errA != nil && errB != nil:
		return a
	case errA != nil:
		return b
	case errB != nil:
		return a
	}
	t = clamp01(t)
	if t == 0 {
		return ca.Hex()
	}
	if t == 1 {
		return cb.Hex()
	}
	return ca.BlendLab(cb, t).Clamped().Hex()
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}
