package view

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/wasteviz/wasteviz/app/aggregate"
	"github.com/wasteviz/wasteviz/app/dataset"
)

type SummarySurface struct {
	Rendered bool               `json:"rendered"`
	Revision uint64             `json:"revision"`
	Headline string             `json:"headline"`
	Detail   string             `json:"detail"`
	Summary  *aggregate.Summary `json:"summary,omitempty"`
}

// SummaryBinder is the scalar panel next to the map.
type SummaryBinder struct {
	mu      sync.RWMutex
	surface SummarySurface
}

func NewSummaryBinder() *SummaryBinder {
	return &SummaryBinder{}
}

// FormatTons renders a tonnage for humans, eg: 1,234,568 tons.
func FormatTons(v float64) string {
	return humanize.CommafWithDigits(v, 0) + " tons"
}

func (s *SummaryBinder) Render(res Result, sel Selection) {
	if res.Summary == nil {
		return
	}
	sum := *res.Summary
	where := "the United States"
	if sum.State != "" {
		where = sum.State
	}

	var headline, detail string
	if sum.Records == 0 {
		headline = fmt.Sprintf("No data for %s in %d", where, sum.Year)
	} else {
		headline = fmt.Sprintf("%s of food wasted in %s in %d", FormatTons(sum.TotalTons), where, sum.Year)
		if sum.TopCategory != "" {
			detail = fmt.Sprintf("%s is the largest source.", sum.TopCategory)
		}
		if sum.PerCapita != nil {
			detail = strings.TrimSpace(fmt.Sprintf("%s %s tons per %s residents.", detail,
				humanize.CommafWithDigits(*sum.PerCapita, 2), humanize.Comma(dataset.PerCapitaUnit)))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface = SummarySurface{
		Rendered: true,
		Revision: s.surface.Revision + 1,
		Headline: headline,
		Detail:   detail,
		Summary:  &sum,
	}
}

func (s *SummaryBinder) Snapshot() SummarySurface {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.surface
}
