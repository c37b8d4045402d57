package view

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/wasteviz/wasteviz/app/config"
	"github.com/wasteviz/wasteviz/app/scroll"
)

// Time a particle takes to fall through the illustration.
const ParticleLifetime = 4 * time.Second

type Particle struct {
	ID     uint64    `json:"id"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Radius float64   `json:"radius"`
	Color  string    `json:"color"`
	Born   time.Time `json:"-"`
}

type ParticleSurface struct {
	Label     string                `json:"label"`
	Running   bool                  `json:"running"`
	Params    config.ParticleParams `json:"params"`
	Particles []Particle            `json:"particles"`
}

// ParticleBinder drives the falling-particle illustration. While a section
// is active a ticker spawns one particle every Params.Interval.
type ParticleBinder struct {
	max int
	now func() time.Time
	rng *rand.Rand

	mu        sync.Mutex
	label     string
	params    config.ParticleParams
	particles []Particle
	nextID    uint64
	// gen identifies the running ticker; older tickers stop spawning.
	gen  uint64
	stop chan struct{}
}

func NewParticleBinder(maxParticles int, now func() time.Time) *ParticleBinder {
	if now == nil {
		now = time.Now
	}
	return &ParticleBinder{
		max: maxParticles,
		now: now,
		rng: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
}

// ShowPeriod restarts the ticker with the parameters of section. Existing
// particles are cleared unless the section preserves them.
func (p *ParticleBinder) ShowPeriod(pos scroll.Position, section *config.SectionDefn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.label = pos.Label
	if section == nil {
		p.params = config.ParticleParams{}
		p.particles = nil
		return
	}
	p.params = section.Particles
	if !p.params.Preserve {
		p.particles = nil
	}
	if p.params.IntervalMs > 0 {
		p.startLocked(p.params.Interval())
	}
}

// Tune changes how new particles look. The spawn interval stays until the
// next ShowPeriod.
func (p *ParticleBinder) Tune(params config.ParticleParams) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop == nil {
		return
	}
	p.params.Scale = params.Scale
	p.params.Color = params.Color
}

func (p *ParticleBinder) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *ParticleBinder) startLocked(interval time.Duration) {
	p.gen++
	gen, stop := p.gen, make(chan struct{})
	p.stop = stop
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				p.spawn(gen)
			}
		}
	}()
}

func (p *ParticleBinder) stopLocked() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
	p.gen++
}

func (p *ParticleBinder) spawn(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	p.spawnLocked()
}

// Spawn adds one particle with the current parameters.
func (p *ParticleBinder) Spawn() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spawnLocked()
}

func (p *ParticleBinder) spawnLocked() {
	now := p.now()
	p.expireLocked(now)
	p.nextID++
	p.particles = append(p.particles, Particle{
		ID:     p.nextID,
		X:      p.rng.Float64(),
		Radius: 2 * p.params.Scale * (0.75 + 0.5*p.rng.Float64()),
		Color:  p.params.Color,
		Born:   now,
	})
	if p.max > 0 && len(p.particles) > p.max {
		p.particles = append(p.particles[:0:0], p.particles[len(p.particles)-p.max:]...)
	}
}

func (p *ParticleBinder) expireLocked(now time.Time) {
	keep := p.particles[:0]
	for _, pt := range p.particles {
		if now.Sub(pt.Born) < ParticleLifetime {
			keep = append(keep, pt)
		}
	}
	p.particles = keep
}

func (p *ParticleBinder) Snapshot() ParticleSurface {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	p.expireLocked(now)
	out := make([]Particle, len(p.particles))
	for i, pt := range p.particles {
		pt.Y = float64(now.Sub(pt.Born)) / float64(ParticleLifetime)
		out[i] = pt
	}
	return ParticleSurface{
		Label:     p.label,
		Running:   p.stop != nil,
		Params:    p.params,
		Particles: out,
	}
}
