package scroll

import (
	"context"
	"sync"
	"time"
)

// Coalescer collapses bursts of scroll offsets into at most one evaluation
// per frame, always with the latest offset.
type Coalescer struct {
	apply func(float64)

	mu      sync.Mutex
	pending bool
	latest  float64
}

func NewCoalescer(apply func(float64)) *Coalescer {
	return &Coalescer{apply: apply}
}

func (c *Coalescer) Submit(v float64) {
	c.mu.Lock()
	c.latest, c.pending = v, true
	c.mu.Unlock()
}

// Flush runs one frame: it applies the latest offset if one arrived since the
// previous frame.
func (c *Coalescer) Flush() bool {
	c.mu.Lock()
	if !c.pending {
		c.mu.Unlock()
		return false
	}
	v := c.latest
	c.pending = false
	c.mu.Unlock()

	c.apply(v)
	return true
}

// Run flushes every interval until ctx is done.
func (c *Coalescer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Flush()
		}
	}
}
