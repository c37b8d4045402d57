package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wasteviz/wasteviz/app/common"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Cache loads the records and the topology at most once per process. The two
// halves are memoized independently so a topology failure does not take down
// the views that only need records.
//
// Failed loads are not memoized; the next call makes a new attempt.
type Cache struct {
	records  RecordSource
	topology TopologySource
	regions  RegionLookup

	group singleflight.Group

	mu         sync.RWMutex
	rows       []WasteRecord
	rowsLoaded bool
	topo       *Topology
	unresolved []string
}

func NewCache(records RecordSource, topology TopologySource, regions RegionLookup) *Cache {
	return &Cache{records: records, topology: topology, regions: regions}
}

// Load returns both halves of the dataset, fetching them concurrently on the
// first call.
func (c *Cache) Load(ctx context.Context) (*Dataset, error) {
	var ds Dataset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := c.LoadRecords(gctx)
		ds.Records = rows
		return err
	})
	g.Go(func() error {
		topo, err := c.LoadTopology(gctx)
		ds.Topology = topo
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (c *Cache) LoadRecords(ctx context.Context) ([]WasteRecord, error) {
	c.mu.RLock()
	if c.rowsLoaded {
		rows := c.rows
		c.mu.RUnlock()
		return rows, nil
	}
	c.mu.RUnlock()

	v, err := c.do(ctx, "records", func(ctx context.Context) (any, error) {
		c.mu.RLock()
		if c.rowsLoaded {
			defer c.mu.RUnlock()
			return c.rows, nil
		}
		c.mu.RUnlock()

		start := time.Now()
		rows, err := c.records.LoadRecords(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: loading records: %w", common.ErrDataUnavailable, err)
		}
		c.mu.Lock()
		c.rows, c.rowsLoaded = rows, true
		c.mu.Unlock()
		slog.Info("records loaded", "rows", len(rows), "duration", time.Since(start))
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]WasteRecord), nil
}

func (c *Cache) LoadTopology(ctx context.Context) (*Topology, error) {
	c.mu.RLock()
	if c.topo != nil {
		topo := c.topo
		c.mu.RUnlock()
		return topo, nil
	}
	c.mu.RUnlock()

	v, err := c.do(ctx, "topology", func(ctx context.Context) (any, error) {
		c.mu.RLock()
		if c.topo != nil {
			defer c.mu.RUnlock()
			return c.topo, nil
		}
		c.mu.RUnlock()

		topo, err := c.topology.LoadTopology(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: loading topology: %w", common.ErrDataUnavailable, err)
		}
		unresolved := topo.Unresolved(c.regions)
		if len(unresolved) > 0 {
			slog.Warn("topology regions without a state name will render as no data", "regions", unresolved)
		}
		c.mu.Lock()
		c.topo, c.unresolved = topo, unresolved
		c.mu.Unlock()
		slog.Info("topology loaded", "features", len(topo.Collection.Features))
		return topo, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Topology), nil
}

// Unresolved returns the topology region ids missing from the region lookup.
// It is empty until the topology is loaded.
func (c *Cache) Unresolved() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unresolved
}

func (c *Cache) Regions() RegionLookup {
	return c.regions
}

// do runs fn once for all concurrent callers of key. The shared fetch is
// detached from the cancellation of whichever caller started it, but each
// caller still stops waiting when its own context is done.
func (c *Cache) do(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
