package config

import (
	"fmt"
	"time"
)

// ParticleParams controls the falling-particle illustration of a section.
type ParticleParams struct {
	// Milliseconds between two spawned particles
	IntervalMs int     `json:"interval_ms"`
	Scale      float64 `json:"scale"`
	Color      string  `json:"color"`
	// Preserve keeps the particles of the previous section on screen.
	Preserve bool `json:"preserve"`
}

func (p ParticleParams) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}

// CounterDefn is a count-up shown in the illustration box, eg: "80 million tons".
type CounterDefn struct {
	To         float64 `json:"to"`
	Prefix     string  `json:"prefix"`
	Suffix     string  `json:"suffix"`
	DurationMs int     `json:"duration_ms"`
}

type SectionDefn struct {
	// A short label, eg: day, month, household
	Label string `json:"label"`
	// Start and Span describe the [Start, Start+Span) scroll progress range
	Start float64 `json:"start"`
	Span  float64 `json:"span"`
	// Markdown shown in the narrative panel
	Body      string         `json:"body"`
	Counter   *CounterDefn   `json:"counter"`
	Particles ParticleParams `json:"particles"`
}

type WasteVizConfig struct {
	InstanceName string `json:"instance_name"`
	DataDir      string `json:"-"`

	// One of "csv", "http", "sqlite"
	RecordSource string `json:"record_source"`
	// CSV path (relative to data dir), CSV URL or SQLite file depending on RecordSource
	RecordLocation string `json:"record_location"`
	// GeoJSON topology, either a URL or a path relative to data dir
	TopologyLocation string `json:"topology_location"`

	DefaultYear int      `json:"default_year"`
	TopK        int      `json:"top_k"`
	ColorRamp   []string `json:"color_ramp"`
	BarWidth    float64  `json:"bar_width"`
	BarDuration int      `json:"bar_duration_ms"`

	Sections []SectionDefn `json:"sections"`

	ResultCacheMinutes  int      `json:"result_cache_minutes"`
	FetchTimeoutSeconds int      `json:"fetch_timeout_seconds"`
	Hostnames           []string `json:"hostnames"`
	TimeoutSeconds      int      `json:"timeout_seconds"`
	LogLatency          bool     `json:"log_latency"`
	FrameIntervalMs     int      `json:"frame_interval_ms"`
	MaxParticles        int      `json:"max_particles"`
}

type ServerRuntimeConfig struct {
	Addr               string
	Port               int
	CertDir            string
	AcmeEnabled        bool
	BehindLoadBalancer bool
	RateLimit          int
	GzipLevel          int
}

func (c *WasteVizConfig) FrameInterval() time.Duration {
	return time.Duration(c.FrameIntervalMs) * time.Millisecond
}

var DefaultColorRamp = []string{"#fff5f0", "#fcbba1", "#fb6a4a", "#cb181d", "#67000d"}

// Copy and count-ups of the default story, keyed by section label.
var defaultStory = map[string]struct {
	body    string
	counter *CounterDefn
}{
	"day":       {body: "Every **day**, the average American throws away about a pound of food."},
	"month":     {body: "Over a **month**, that adds up to a full grocery cart."},
	"year":      {body: "In a **year**, the country wastes more food than any other."},
	"household": {body: "Most surplus food is wasted at home.", counter: &CounterDefn{To: 80, Suffix: " million tons", DurationMs: 2000}},
	"city":      {body: "That food could feed entire cities.", counter: &CounterDefn{To: 150, Suffix: " million people", DurationMs: 2000}},
	"state":     {body: "Some states waste far more per resident than others.", counter: &CounterDefn{To: 1500, Prefix: "$", DurationMs: 2000}},
	"country":   {body: "Explore the map below to see where the waste happens."},
}

func DefaultSections() []SectionDefn {
	labels := []string{"day", "month", "year", "household", "city", "state", "country"}
	span := 1.0 / float64(len(labels))
	sections := make([]SectionDefn, len(labels))
	start := 0.0
	for i, l := range labels {
		story := defaultStory[l]
		sections[i] = SectionDefn{
			Label:   l,
			Start:   start,
			Span:    span,
			Body:    story.body,
			Counter: story.counter,
			Particles: ParticleParams{
				IntervalMs: 800 - 100*i,
				Scale:      1 + 0.5*float64(i),
				Color:      DefaultColorRamp[min(i, len(DefaultColorRamp)-1)],
				Preserve:   i > 0,
			},
		}
		start += span
	}
	return sections
}

// ApplyDefaults fills zero values with usable defaults.
func (c *WasteVizConfig) ApplyDefaults() {
	if c.InstanceName == "" {
		c.InstanceName = "US Food Waste"
	}
	if c.RecordSource == "" {
		c.RecordSource = "csv"
	}
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if len(c.ColorRamp) < 2 {
		c.ColorRamp = DefaultColorRamp
	}
	if c.BarWidth <= 0 {
		c.BarWidth = 480
	}
	if c.BarDuration <= 0 {
		c.BarDuration = 750
	}
	if len(c.Sections) == 0 {
		c.Sections = DefaultSections()
	}
	if c.ResultCacheMinutes <= 0 {
		c.ResultCacheMinutes = 30
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = 30
	}
	if c.FrameIntervalMs <= 0 {
		c.FrameIntervalMs = 16
	}
	if c.MaxParticles <= 0 {
		c.MaxParticles = 400
	}
}

func (c *WasteVizConfig) Validate() error {
	switch c.RecordSource {
	case "csv", "http", "sqlite":
	default:
		return fmt.Errorf("unknown record_source %q", c.RecordSource)
	}
	if c.RecordLocation == "" {
		return fmt.Errorf("record_location is required")
	}
	if c.TopologyLocation == "" {
		return fmt.Errorf("topology_location is required")
	}
	for i, s := range c.Sections {
		if s.Label == "" {
			return fmt.Errorf("section %d has no label", i)
		}
		if s.Span <= 0 || s.Start < 0 || s.Start+s.Span > 1+1e-9 {
			return fmt.Errorf("section %q has range [%g, %g) outside [0, 1]", s.Label, s.Start, s.Start+s.Span)
		}
		if s.Particles.IntervalMs <= 0 {
			return fmt.Errorf("section %q needs a positive particles.interval_ms", s.Label)
		}
	}
	return nil
}

func (c *WasteVizConfig) GetSectionByLabel(label string) *SectionDefn {
	for i := range c.Sections {
		if c.Sections[i].Label == label {
			return &c.Sections[i]
		}
	}
	return nil
}
