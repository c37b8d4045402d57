// Package controller owns the application state and keeps every view binder
// consistent with it. User actions are dispatched here; redraws that were
// overtaken by a newer action are dropped.
package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wasteviz/wasteviz/app/aggregate"
	"github.com/wasteviz/wasteviz/app/common"
	"github.com/wasteviz/wasteviz/app/config"
	"github.com/wasteviz/wasteviz/app/dataset"
	"github.com/wasteviz/wasteviz/app/scroll"
	"github.com/wasteviz/wasteviz/app/sequencer"
	"github.com/wasteviz/wasteviz/app/view"
)

// Loader is the part of dataset.Cache the controller depends on.
type Loader interface {
	LoadRecords(ctx context.Context) ([]dataset.WasteRecord, error)
	LoadTopology(ctx context.Context) (*dataset.Topology, error)
}

// Names of the ranked bar charts.
const (
	StatesChart    = "states"
	SubSectorChart = "subsector"
	FoodTypeChart  = "food_type"
)

type AppState struct {
	Selection view.Selection  `json:"selection"`
	Progress  float64         `json:"progress"`
	Position  scroll.Position `json:"position"`
	MinYear   int             `json:"min_year"`
	MaxYear   int             `json:"max_year"`
	// Token of the last redraw that reached the views
	Applied sequencer.Token `json:"applied"`
}

// ViewState is a consistent copy of the state and every surface.
type ViewState struct {
	State        AppState                   `json:"state"`
	Map          view.MapSurface            `json:"map"`
	Bars         map[string]view.BarSurface `json:"bars"`
	Summary      view.SummarySurface        `json:"summary"`
	Narrative    view.NarrativeSurface      `json:"narrative"`
	Illustration view.IllustrationSurface   `json:"illustration"`
	Particles    view.ParticleSurface       `json:"particles"`
}

type Controller struct {
	conf    *config.WasteVizConfig
	loader  Loader
	seq     sequencer.Sequencer
	results *aggregate.ResultCache
	driver  *scroll.Driver
	frames  *scroll.Coalescer

	mapView      *view.MapBinder
	bars         []*view.BarBinder
	summary      *view.SummaryBinder
	narrative    *view.NarrativeBinder
	illustration *view.IllustrationBinder
	particles    *view.ParticleBinder

	mu    sync.Mutex
	state AppState
}

func NewController(conf *config.WasteVizConfig, loader Loader, regions dataset.RegionLookup, results *aggregate.ResultCache) *Controller {
	barDuration := time.Duration(conf.BarDuration) * time.Millisecond
	c := &Controller{
		conf:    conf,
		loader:  loader,
		results: results,
		driver:  scroll.NewDriver(conf.Sections),
		mapView: view.NewMapBinder(regions, conf.ColorRamp),
		bars: []*view.BarBinder{
			view.NewBarBinder(StatesChart, "States wasting the most food", false, conf.BarWidth, barDuration),
			view.NewBarBinder(SubSectorChart, "Largest sources of waste", true, conf.BarWidth, barDuration),
			view.NewBarBinder(FoodTypeChart, "Most wasted food types", true, conf.BarWidth, barDuration),
		},
		summary:      view.NewSummaryBinder(),
		narrative:    view.NewNarrativeBinder(regions),
		illustration: view.NewIllustrationBinder(nil),
		particles:    view.NewParticleBinder(conf.MaxParticles, nil),
		state: AppState{
			Selection: view.Selection{Year: conf.DefaultYear, Mode: common.PerCapita},
			Position:  scroll.Inactive,
		},
	}
	c.frames = scroll.NewCoalescer(c.Scroll)
	return c
}

func (c *Controller) binders() []view.Binder {
	bs := []view.Binder{c.mapView, c.summary}
	for _, b := range c.bars {
		bs = append(bs, b)
	}
	return bs
}

func (c *Controller) periodBinders() []view.PeriodBinder {
	return []view.PeriodBinder{c.narrative, c.illustration, c.particles}
}

// Dispatch applies a user action to the state and redraws the views. Scroll
// actions are queued for the next frame, see Run.
func (c *Controller) Dispatch(ctx context.Context, action Action) error {
	if sp, ok := action.(ScrollProgressed); ok {
		p := sp.Progress
		if sp.Height > 0 {
			p = scroll.ProgressOf(sp.Offset, sp.Height)
		}
		c.frames.Submit(p)
		return nil
	}

	if yc, ok := action.(YearChanged); ok {
		if err := c.checkYear(ctx, yc.Year); err != nil {
			return err
		}
	}

	c.mu.Lock()
	tok := c.seq.Next()
	sel := c.state.Selection
	switch a := action.(type) {
	case YearChanged:
		sel.Year = a.Year
	case ModeChanged:
		sel.Mode = a.Mode
	case StateHovered:
		sel.HoveredState = a.State
	case StateClicked:
		sel.Toggle(a.State)
	}
	c.state.Selection = sel
	c.mu.Unlock()

	slog.Debug("dispatching action", "type", action.Type(), "token", tok)
	return c.redraw(ctx, tok, sel)
}

// Refresh redraws the views with the current selection.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	tok := c.seq.Next()
	sel := c.state.Selection
	c.mu.Unlock()
	return c.redraw(ctx, tok, sel)
}

func (c *Controller) checkYear(ctx context.Context, year int) error {
	rows, err := c.loader.LoadRecords(ctx)
	if err != nil {
		return err
	}
	lo, hi, ok := aggregate.YearRange(rows)
	if !ok || year < lo || year > hi {
		return common.BadRequest("year %d is outside the dataset range %d-%d", year, lo, hi)
	}
	return nil
}

func (c *Controller) isCurrent(tok sequencer.Token, stage string) bool {
	if c.seq.IsCurrent(tok) {
		return true
	}
	slog.Debug("dropping stale redraw", "token", tok, "current", c.seq.Current(), "stage", stage)
	return false
}

func (c *Controller) redraw(ctx context.Context, tok sequencer.Token, sel view.Selection) error {
	rows, err := c.loader.LoadRecords(ctx)
	if err != nil {
		slog.Error("failed to load records, views left unchanged", "err", err)
		return err
	}
	if !c.isCurrent(tok, "load") {
		return nil
	}

	lo, hi, _ := aggregate.YearRange(rows)
	if sel.Year == 0 {
		sel.Year = hi
	}
	res, err := c.aggregate(rows, sel)
	if err != nil {
		return err
	}
	if !c.isCurrent(tok, "aggregate") {
		return nil
	}

	topo, err := c.loader.LoadTopology(ctx)
	if err != nil {
		slog.Error("failed to load topology, map left unrendered", "err", err)
	} else {
		res.Topology = topo
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isCurrent(tok, "apply") {
		return nil
	}
	for _, b := range c.binders() {
		b.Render(res, sel)
	}
	c.state.Selection.Year = sel.Year
	c.state.MinYear, c.state.MaxYear = lo, hi
	c.state.Applied = tok
	return nil
}

func (c *Controller) aggregate(rows []dataset.WasteRecord, sel view.Selection) (view.Result, error) {
	k := c.conf.TopK
	focus := sel.Focus()
	states := c.results.StateTotals(rows, sel.Year)
	res := view.Result{
		Year:   sel.Year,
		States: states,
		Ranked: map[string][]aggregate.CategoryTotal{
			StatesChart: aggregate.TopKStates(states, sel.Mode, k),
		},
	}
	for _, by := range []string{SubSectorChart, FoodTypeChart} {
		top, err := c.results.TopCategories(rows, sel.Year, focus, by, k)
		if err != nil {
			return res, err
		}
		res.Ranked[by] = top
	}
	sum := c.results.Summary(rows, sel.Year, focus)
	res.Summary = &sum
	return res, nil
}

// Scroll evaluates one scroll progress. Period binders are notified once per
// section change; the illustration and particles follow every evaluation.
func (c *Controller) Scroll(progress float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos, changed := c.driver.Update(progress)
	c.state.Progress = progress
	c.state.Position = pos
	if changed {
		slog.Debug("entering section", "label", pos.Label, "index", pos.Index)
		section := c.driver.Section(pos)
		for _, pb := range c.periodBinders() {
			pb.ShowPeriod(pos, section)
		}
	}
	c.illustration.Track(pos)
	if params, ok := c.driver.ParamsAt(pos); ok {
		c.particles.Tune(params)
	}
}

// Run evaluates queued scroll progress once per frame until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	c.frames.Run(ctx, c.conf.FrameInterval())
}

// FlushScroll evaluates queued scroll progress now.
func (c *Controller) FlushScroll() bool {
	return c.frames.Flush()
}

func (c *Controller) Close() {
	c.particles.Stop()
}

func (c *Controller) Snapshot() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	vs := ViewState{
		State:        c.state,
		Map:          c.mapView.Snapshot(),
		Bars:         make(map[string]view.BarSurface, len(c.bars)),
		Summary:      c.summary.Snapshot(),
		Narrative:    c.narrative.Snapshot(),
		Illustration: c.illustration.Snapshot(),
		Particles:    c.particles.Snapshot(),
	}
	for _, b := range c.bars {
		vs.Bars[b.Name()] = b.Snapshot()
	}
	return vs
}

// MapTopology is the topology the map surface was last drawn with.
func (c *Controller) MapTopology() *dataset.Topology {
	return c.mapView.Topology()
}

func (c *Controller) ResolveRegion(id string) (string, bool) {
	return c.mapView.ResolveRegion(id)
}

func (c *Controller) Records(ctx context.Context) ([]dataset.WasteRecord, error) {
	return c.loader.LoadRecords(ctx)
}

func (c *Controller) Results() *aggregate.ResultCache {
	return c.results
}

func (c *Controller) Sections() []config.SectionDefn {
	return c.driver.Sections()
}
