package dataset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wasteviz/wasteviz/app/common"
)

type countingRecords struct {
	calls atomic.Int32
	err   error
	gate  chan struct{}
}

func (s *countingRecords) LoadRecords(ctx context.Context) ([]WasteRecord, error) {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	return []WasteRecord{{Year: 2023, State: "Texas", TonsWaste: 100}}, nil
}

type countingTopology struct {
	calls atomic.Int32
	err   error
}

func (s *countingTopology) LoadTopology(ctx context.Context) (*Topology, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return ParseTopology([]byte(testTopology))
}

func TestCacheLoadsOnce(t *testing.T) {
	recs, topo := &countingRecords{}, &countingTopology{}
	cache := NewCache(recs, topo, DefaultRegions)
	ctx := context.Background()

	first, err := cache.Load(ctx)
	require.NoError(t, err)
	second, err := cache.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), recs.calls.Load())
	assert.Equal(t, int32(1), topo.calls.Load())
	assert.Same(t, first.Topology, second.Topology)
	assert.Same(t, &first.Records[0], &second.Records[0])
	assert.Equal(t, []string{"72"}, cache.Unresolved())
}

func TestCacheConcurrentFirstLoad(t *testing.T) {
	recs := &countingRecords{gate: make(chan struct{})}
	cache := NewCache(recs, &countingTopology{}, DefaultRegions)

	var wg sync.WaitGroup
	results := make([][]WasteRecord, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rows, err := cache.LoadRecords(context.Background())
			assert.NoError(t, err)
			results[i] = rows
		}(i)
	}
	close(recs.gate)
	wg.Wait()

	assert.Equal(t, int32(1), recs.calls.Load())
	for _, rows := range results {
		assert.Same(t, &results[0][0], &rows[0])
	}
}

func TestCacheTopologyFailureIsIsolated(t *testing.T) {
	recs := &countingRecords{}
	topo := &countingTopology{err: errors.New("404")}
	cache := NewCache(recs, topo, DefaultRegions)
	ctx := context.Background()

	_, err := cache.Load(ctx)
	assert.ErrorIs(t, err, common.ErrDataUnavailable)

	rows, err := cache.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// failures are not memoized
	topo.err = nil
	_, err = cache.LoadTopology(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), topo.calls.Load())
}

func TestCacheCallerCancellation(t *testing.T) {
	recs := &countingRecords{gate: make(chan struct{})}
	cache := NewCache(recs, &countingTopology{}, DefaultRegions)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.LoadRecords(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	close(recs.gate)
	rows, err := cache.LoadRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int32(1), recs.calls.Load())
}
