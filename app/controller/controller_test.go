package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wasteviz/wasteviz/app/aggregate"
	"github.com/wasteviz/wasteviz/app/common"
	"github.com/wasteviz/wasteviz/app/config"
	"github.com/wasteviz/wasteviz/app/dataset"
	"github.com/wasteviz/wasteviz/app/view"
)

const testTopology = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "id": "48",
		 "geometry": {"type": "Polygon", "coordinates": [[[-106,26],[-94,26],[-94,36],[-106,36],[-106,26]]]}},
		{"type": "Feature", "id": "39",
		 "geometry": {"type": "Polygon", "coordinates": [[[-84,38],[-80,38],[-80,42],[-84,42],[-84,38]]]}}
	]
}`

var testRows = []dataset.WasteRecord{
	{Year: 2022, State: "Texas", Sector: "Residential", SubSector: dataset.NotApplicable, FoodType: "Produce", TonsWaste: 100},
	{Year: 2022, State: "Ohio", Sector: "Farm", SubSector: dataset.NotApplicable, FoodType: "Dairy & Eggs", TonsWaste: 40},
	{Year: 2023, State: "Texas", Sector: "Retail", SubSector: "Grocery", FoodType: "Produce", TonsWaste: 300},
	{Year: 2023, State: "Ohio", Sector: "Farm", SubSector: dataset.NotApplicable, FoodType: "Produce", TonsWaste: 60},
}

// fakeLoader blocks the call with the number in gateCall until gate is closed.
type fakeLoader struct {
	rows    []dataset.WasteRecord
	topo    *dataset.Topology
	topoErr error

	calls    atomic.Int32
	gateCall int32
	gate     chan struct{}
	entered  chan struct{}
}

func (f *fakeLoader) LoadRecords(ctx context.Context) ([]dataset.WasteRecord, error) {
	n := f.calls.Add(1)
	if f.gate != nil && n == f.gateCall {
		close(f.entered)
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.rows == nil {
		return nil, common.ErrDataUnavailable
	}
	return f.rows, nil
}

func (f *fakeLoader) LoadTopology(ctx context.Context) (*dataset.Topology, error) {
	if f.topoErr != nil {
		return nil, f.topoErr
	}
	return f.topo, nil
}

func newTestController(t *testing.T, loader *fakeLoader) *Controller {
	t.Helper()
	if loader.topo == nil && loader.topoErr == nil {
		topo, err := dataset.ParseTopology([]byte(testTopology))
		require.NoError(t, err)
		loader.topo = topo
	}
	conf := &config.WasteVizConfig{RecordLocation: "x.csv", TopologyLocation: "x.json"}
	conf.ApplyDefaults()
	c := NewController(conf, loader, dataset.DefaultRegions, aggregate.NewResultCache(time.Minute, dataset.DefaultPopulation))
	t.Cleanup(c.Close)
	return c
}

func TestRefreshRendersLatestYear(t *testing.T) {
	c := newTestController(t, &fakeLoader{rows: testRows})
	require.NoError(t, c.Refresh(t.Context()))

	vs := c.Snapshot()
	assert.Equal(t, 2023, vs.State.Selection.Year)
	assert.Equal(t, 2022, vs.State.MinYear)
	assert.Equal(t, 2023, vs.State.MaxYear)
	assert.True(t, vs.Map.Rendered)
	assert.Equal(t, 2023, vs.Map.Year)

	states := vs.Bars[StatesChart]
	require.Len(t, states.Bars, 2)
	assert.Equal(t, "Texas", states.Bars[0].Label)

	sub := vs.Bars[SubSectorChart]
	require.Len(t, sub.Bars, 2)
	assert.Equal(t, "Grocery", sub.Bars[0].Label)
	assert.Equal(t, "Farm", sub.Bars[1].Label)

	require.NotNil(t, vs.Summary.Summary)
	assert.Equal(t, 360.0, vs.Summary.Summary.TotalTons)
}

func TestDispatchKeepsViewsConsistent(t *testing.T) {
	c := newTestController(t, &fakeLoader{rows: testRows})
	ctx := t.Context()
	require.NoError(t, c.Dispatch(ctx, YearChanged{Year: 2022}))
	require.NoError(t, c.Dispatch(ctx, StateClicked{State: "Ohio"}))

	vs := c.Snapshot()
	assert.Equal(t, "Ohio", vs.State.Selection.SelectedState)
	assert.Equal(t, 2022, vs.Map.Year)
	assert.Equal(t, "Ohio", vs.Map.Focus)
	for _, b := range vs.Bars {
		assert.Equal(t, 2022, b.Year)
		assert.Equal(t, vs.Map.Revision, b.Revision)
	}
	assert.Equal(t, "Ohio", vs.Bars[FoodTypeChart].Scope)
	assert.Equal(t, []string{"Dairy & Eggs"}, labels(vs.Bars[FoodTypeChart].Bars))
	assert.Equal(t, "Ohio", vs.Summary.Summary.State)

	require.NoError(t, c.Dispatch(ctx, StateClicked{State: "Ohio"}))
	assert.Equal(t, "", c.Snapshot().Map.Focus)
}

func labels(bars []view.Bar) []string {
	out := make([]string, len(bars))
	for i, b := range bars {
		out[i] = b.Label
	}
	return out
}

func TestDispatchRejectsYearOutsideRange(t *testing.T) {
	c := newTestController(t, &fakeLoader{rows: testRows})
	err := c.Dispatch(t.Context(), YearChanged{Year: 1990})

	var uve *common.UserVisibleError
	require.ErrorAs(t, err, &uve)
	assert.Equal(t, 400, uve.HttpCode)
	assert.Equal(t, 0, c.Snapshot().State.Selection.Year)
}

func TestStaleRedrawIsDropped(t *testing.T) {
	loader := &fakeLoader{rows: testRows, gateCall: 1, gate: make(chan struct{}), entered: make(chan struct{})}
	c := newTestController(t, loader)
	ctx := t.Context()

	var wg sync.WaitGroup
	wg.Add(1)
	var errA error
	go func() {
		defer wg.Done()
		errA = c.Dispatch(ctx, ModeChanged{Mode: common.Total})
	}()
	<-loader.entered

	require.NoError(t, c.Dispatch(ctx, ModeChanged{Mode: common.PerCapita}))
	after := c.Snapshot()
	require.True(t, after.Map.Rendered)
	assert.Equal(t, common.PerCapita, after.Map.Mode)

	close(loader.gate)
	wg.Wait()
	require.NoError(t, errA)

	final := c.Snapshot()
	assert.Equal(t, common.PerCapita, final.Map.Mode)
	assert.Equal(t, after.Map.Revision, final.Map.Revision)
	assert.Equal(t, after.State.Applied, final.State.Applied)
}

func TestTopologyFailureLeavesMapUnrendered(t *testing.T) {
	c := newTestController(t, &fakeLoader{rows: testRows, topoErr: errors.New("boom")})
	require.NoError(t, c.Refresh(t.Context()))

	vs := c.Snapshot()
	assert.False(t, vs.Map.Rendered)
	assert.True(t, vs.Bars[StatesChart].Rendered)
	assert.True(t, vs.Summary.Rendered)
}

func TestRecordFailureIsReturned(t *testing.T) {
	c := newTestController(t, &fakeLoader{})
	err := c.Refresh(t.Context())
	assert.ErrorIs(t, err, common.ErrDataUnavailable)
	assert.False(t, c.Snapshot().Bars[StatesChart].Rendered)
}

func TestScrollNotifiesOncePerSection(t *testing.T) {
	c := newTestController(t, &fakeLoader{rows: testRows})
	ctx := t.Context()

	require.NoError(t, c.Dispatch(ctx, ScrollProgressed{Progress: 0.01}))
	require.NoError(t, c.Dispatch(ctx, ScrollProgressed{Progress: 0.02}))
	require.True(t, c.FlushScroll())
	assert.False(t, c.FlushScroll())

	vs := c.Snapshot()
	assert.Equal(t, 0.02, vs.State.Progress)
	assert.Equal(t, "day", vs.State.Position.Label)
	assert.Equal(t, "day", vs.Narrative.Label)
	assert.Equal(t, uint64(1), vs.Narrative.Revision)
	assert.True(t, vs.Particles.Running)

	c.Scroll(0.05)
	assert.Equal(t, uint64(1), c.Snapshot().Narrative.Revision)

	require.NoError(t, c.Dispatch(ctx, ScrollProgressed{Offset: 500, Height: 1000}))
	c.FlushScroll()
	vs = c.Snapshot()
	assert.Equal(t, 0.5, vs.State.Progress)
	assert.Equal(t, "household", vs.State.Position.Label)
	assert.Equal(t, uint64(2), vs.Narrative.Revision)
	assert.Equal(t, "household", vs.Illustration.Label)
}
