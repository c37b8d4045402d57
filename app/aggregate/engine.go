package aggregate

import (
	"sort"

	"github.com/wasteviz/wasteviz/app/common"
	"github.com/wasteviz/wasteviz/app/dataset"
)

// CategoryFunc projects a record onto the label it is grouped by.
type CategoryFunc func(r *dataset.WasteRecord) string

// SubSectorOrSector groups by sub-sector, using the parent sector for rows
// without one.
func SubSectorOrSector(r *dataset.WasteRecord) string {
	if r.SubSector == dataset.NotApplicable || r.SubSector == "" {
		return r.Sector
	}
	return r.SubSector
}

func BySector(r *dataset.WasteRecord) string { return r.Sector }

func ByFoodType(r *dataset.WasteRecord) string { return r.FoodType }

// Categories names the projections the HTTP API and CLI accept.
var Categories = map[string]CategoryFunc{
	"subsector": SubSectorOrSector,
	"sector":    BySector,
	"food_type": ByFoodType,
}

// SumByState sums the year's tonnage per state. A state without a population
// entry is left out entirely, so the totals of the result add up to the tons
// of the year's rows whose state has a population.
func SumByState(rows []dataset.WasteRecord, year int, pop dataset.PopulationTable) StateTotals {
	sums := make(map[string]float64)
	for i := range rows {
		r := &rows[i]
		if r.Year != year {
			continue
		}
		sums[r.State] += r.TonsWaste
	}

	out := make(StateTotals, len(sums))
	for state, total := range sums {
		div, ok := pop.Divisor(state)
		if !ok {
			continue
		}
		out[state] = StateTotal{Total: total, PerCapita: total / div}
	}
	return out
}

// TopKByCategory returns the k largest categories of the year, optionally
// restricted to one state, in descending order. Equal totals keep the order
// in which their categories were first seen.
func TopKByCategory(rows []dataset.WasteRecord, year int, state string, categoryFn CategoryFunc, k int) []CategoryTotal {
	if k <= 0 {
		k = DefaultK
	}
	index := make(map[string]int)
	var groups []CategoryTotal
	for i := range rows {
		r := &rows[i]
		if r.Year != year || (state != "" && r.State != state) {
			continue
		}
		label := categoryFn(r)
		idx, ok := index[label]
		if !ok {
			idx = len(groups)
			index[label] = idx
			groups = append(groups, CategoryTotal{Label: label})
		}
		groups[idx].Total += r.TonsWaste
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Total > groups[j].Total })
	if len(groups) > k {
		groups = groups[:k]
	}
	return groups
}

// TopKStates ranks states by the value of mode. Ties are ordered by name.
func TopKStates(totals StateTotals, mode common.ViewMode, k int) []CategoryTotal {
	if k <= 0 {
		k = DefaultK
	}
	ranked := make([]CategoryTotal, 0, len(totals))
	for state, t := range totals {
		ranked = append(ranked, CategoryTotal{Label: state, Total: t.Value(mode)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Total != ranked[j].Total {
			return ranked[i].Total > ranked[j].Total
		}
		return ranked[i].Label < ranked[j].Label
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// TrendByYear rolls tonnage up per year, ascending. An empty state means all
// states.
func TrendByYear(rows []dataset.WasteRecord, state string) []YearTotal {
	sums := make(map[int]float64)
	for i := range rows {
		r := &rows[i]
		if state != "" && r.State != state {
			continue
		}
		sums[r.Year] += r.TonsWaste
	}
	out := make([]YearTotal, 0, len(sums))
	for y, t := range sums {
		out = append(out, YearTotal{Year: y, Total: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// YearRange returns the smallest and largest year in rows.
func YearRange(rows []dataset.WasteRecord) (minYear, maxYear int, ok bool) {
	for i := range rows {
		y := rows[i].Year
		if !ok {
			minYear, maxYear, ok = y, y, true
			continue
		}
		minYear = min(minYear, y)
		maxYear = max(maxYear, y)
	}
	return
}

// Summarize computes the summary panel for a year and an optional state.
func Summarize(rows []dataset.WasteRecord, year int, state string, pop dataset.PopulationTable) Summary {
	s := Summary{Year: year, State: state}
	for i := range rows {
		r := &rows[i]
		if r.Year != year || (state != "" && r.State != state) {
			continue
		}
		s.TotalTons += r.TonsWaste
		s.Records++
	}
	if top := TopKByCategory(rows, year, state, SubSectorOrSector, 1); len(top) > 0 {
		s.TopCategory = top[0].Label
	}
	if state != "" {
		if div, ok := pop.Divisor(state); ok && s.Records > 0 {
			pc := s.TotalTons / div
			s.PerCapita = &pc
		}
	}
	return s
}
