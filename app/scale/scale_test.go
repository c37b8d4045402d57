package scale

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtent(t *testing.T) {
	lo, hi, ok := Extent([]float64{3, math.NaN(), -1, 7})
	assert.True(t, ok)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)

	_, _, ok = Extent(nil)
	assert.False(t, ok)
	_, _, ok = Extent([]float64{math.NaN()})
	assert.False(t, ok)
}

func TestLinear(t *testing.T) {
	l := NewLinear(0, 200, 0, 400)
	assert.Equal(t, 0.0, l.Map(0))
	assert.Equal(t, 300.0, l.Map(150))
	assert.Equal(t, 150.0, l.Invert(300))
	assert.Equal(t, 500.0, l.Map(250))

	l.Clamp = true
	assert.Equal(t, 400.0, l.Map(250))

	flat := NewLinear(5, 5, 10, 90)
	assert.Equal(t, 10.0, flat.Map(5))
	assert.Equal(t, 10.0, flat.Map(1000))
}

func TestSequential(t *testing.T) {
	s, err := NewSequential(0, 10, "#ffffff", "#000000")
	require.NoError(t, err)
	assert.Equal(t, "#ffffff", s.Color(0))
	assert.Equal(t, "#000000", s.Color(10))
	assert.Equal(t, "#000000", s.Color(50))
	assert.Equal(t, "#ffffff", s.Color(-3))

	mid := s.Color(5)
	assert.NotEqual(t, "#ffffff", mid)
	assert.NotEqual(t, "#000000", mid)

	flat, err := NewSequential(4, 4, "#ffffff", "#000000")
	require.NoError(t, err)
	assert.Equal(t, flat.At(0.5), flat.Color(4))
	assert.Equal(t, flat.At(0.5), flat.Color(99))

	_, err = NewSequential(0, 1, "#ffffff")
	assert.Error(t, err)
	_, err = NewSequential(0, 1, "#ffffff", "nope")
	assert.Error(t, err)
}

func TestBlendHex(t *testing.T) {
	assert.Equal(t, "#ff0000", BlendHex("#ff0000", "#0000ff", 0))
	assert.Equal(t, "#0000ff", BlendHex("#ff0000", "#0000ff", 1))
	assert.Equal(t, "#0000ff", BlendHex("bad", "#0000ff", 0.3))
}
