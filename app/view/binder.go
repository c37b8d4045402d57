// Package view holds the visual surfaces of the page. Each binder owns one
// surface and only ever writes to it; keeping several surfaces consistent is
// the job of the controller, which renders every binder from the same result.
package view

import (
	"github.com/wasteviz/wasteviz/app/aggregate"
	"github.com/wasteviz/wasteviz/app/common"
	"github.com/wasteviz/wasteviz/app/config"
	"github.com/wasteviz/wasteviz/app/dataset"
	"github.com/wasteviz/wasteviz/app/scroll"
)

// Selection is what the user currently looks at.
type Selection struct {
	Year          int             `json:"year"`
	Mode          common.ViewMode `json:"mode"`
	HoveredState  string          `json:"hovered_state,omitempty"`
	SelectedState string          `json:"selected_state,omitempty"`
}

// Focus is the state the views emphasise: the selected one, else the hovered one.
func (s Selection) Focus() string {
	if s.SelectedState != "" {
		return s.SelectedState
	}
	return s.HoveredState
}

// Toggle selects state, or clears the selection when state is already selected.
func (s *Selection) Toggle(state string) {
	if s.SelectedState == state {
		s.SelectedState = ""
		return
	}
	s.SelectedState = state
}

// Result carries one redraw's aggregations. Parts that could not be computed
// are nil and the binders depending on them keep their previous surface.
type Result struct {
	Year     int
	States   aggregate.StateTotals
	Ranked   map[string][]aggregate.CategoryTotal
	Summary  *aggregate.Summary
	Topology *dataset.Topology
}

type Binder interface {
	Render(res Result, sel Selection)
}

// PeriodBinder reacts to the reader entering a narrative section. section is
// nil when no section is active.
type PeriodBinder interface {
	ShowPeriod(pos scroll.Position, section *config.SectionDefn)
}
