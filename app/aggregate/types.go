package aggregate

import "github.com/wasteviz/wasteviz/app/common"

// DefaultK is the length of ranked lists when the caller does not ask for one.
const DefaultK = 5

type StateTotal struct {
	PerCapita float64 `json:"per_capita"`
	Total     float64 `json:"total"`
}

// Value picks the number a view mode encodes.
func (s StateTotal) Value(mode common.ViewMode) float64 {
	if mode == common.PerCapita {
		return s.PerCapita
	}
	return s.Total
}

// StateTotals maps state names to their aggregate. States without data are
// absent, never zero.
type StateTotals map[string]StateTotal

func (st StateTotals) Values(mode common.ViewMode) []float64 {
	vals := make([]float64, 0, len(st))
	for _, s := range st {
		vals = append(vals, s.Value(mode))
	}
	return vals
}

type CategoryTotal struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

type YearTotal struct {
	Year  int     `json:"year"`
	Total float64 `json:"total"`
}

// Summary holds the scalar values of the summary panel.
type Summary struct {
	Year        int      `json:"year"`
	State       string   `json:"state,omitempty"`
	TotalTons   float64  `json:"total_tons"`
	PerCapita   *float64 `json:"per_capita,omitempty"`
	Records     int      `json:"records"`
	TopCategory string   `json:"top_category,omitempty"`
}
