package view

import (
	"log/slog"
	"sync"

	"github.com/wasteviz/wasteviz/app/common"
	"github.com/wasteviz/wasteviz/app/dataset"
	"github.com/wasteviz/wasteviz/app/scale"
)

const (
	NoDataFill    = "#d9d9d9"
	DimmedOpacity = 0.4
)

type RegionFill struct {
	ID      string  `json:"id"`
	State   string  `json:"state,omitempty"`
	Fill    string  `json:"fill"`
	Opacity float64 `json:"opacity"`
	Value   float64 `json:"value"`
	HasData bool    `json:"has_data"`
}

type MapSurface struct {
	Rendered bool            `json:"rendered"`
	Revision uint64          `json:"revision"`
	Year     int             `json:"year"`
	Mode     common.ViewMode `json:"mode"`
	Domain   [2]float64      `json:"domain"`
	Focus    string          `json:"focus,omitempty"`
	Regions  []RegionFill    `json:"regions"`
}

// MapBinder colors the regions of the topology by the state aggregates.
type MapBinder struct {
	regions dataset.RegionLookup
	ramp    []string

	mu      sync.RWMutex
	surface MapSurface
	topo    *dataset.Topology
}

func NewMapBinder(regions dataset.RegionLookup, ramp []string) *MapBinder {
	return &MapBinder{regions: regions, ramp: ramp}
}

func (m *MapBinder) Render(res Result, sel Selection) {
	if res.States == nil || res.Topology == nil {
		return
	}
	var colors *scale.Sequential
	lo, hi, ok := scale.Extent(res.States.Values(sel.Mode))
	if ok {
		var err error
		colors, err = scale.NewSequential(lo, hi, m.ramp...)
		if err != nil {
			slog.Error("invalid color ramp, map left unrendered", "err", err)
			return
		}
	}

	focus := sel.Focus()
	ids := res.Topology.RegionIDs()
	fills := make([]RegionFill, 0, len(ids))
	for _, id := range ids {
		rf := RegionFill{ID: id, Fill: NoDataFill, Opacity: 1}
		if state, found := m.regions.StateName(id); found {
			rf.State = state
			if st, has := res.States[state]; has && colors != nil {
				rf.Value = st.Value(sel.Mode)
				rf.Fill = colors.Color(rf.Value)
				rf.HasData = true
			}
		}
		if focus != "" && rf.State != focus {
			rf.Opacity = DimmedOpacity
		}
		fills = append(fills, rf)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.topo = res.Topology
	m.surface = MapSurface{
		Rendered: true,
		Revision: m.surface.Revision + 1,
		Year:     res.Year,
		Mode:     sel.Mode,
		Domain:   [2]float64{lo, hi},
		Focus:    focus,
		Regions:  fills,
	}
}

// ResolveRegion maps a topology region id to its state name.
func (m *MapBinder) ResolveRegion(id string) (string, bool) {
	return m.regions.StateName(id)
}

func (m *MapBinder) Snapshot() MapSurface {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.surface
	s.Regions = append([]RegionFill(nil), m.surface.Regions...)
	return s
}

func (m *MapBinder) Topology() *dataset.Topology {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.topo
}
