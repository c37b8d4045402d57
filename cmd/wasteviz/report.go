package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/wasteviz/wasteviz/app/aggregate"
	"github.com/wasteviz/wasteviz/app/common"
	"github.com/wasteviz/wasteviz/app/dataset"
)

type summaryParams struct {
	Year  int
	State string
	By    string
	Mode  common.ViewMode
	K     int
}

// newTable prints title as a heading line. go-pretty wraps table titles to
// the table width, which mangles them above narrow tables.
func newTable(w io.Writer, title string) table.Writer {
	fmt.Fprintln(w, title)
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
	return t
}

func printSummary(w io.Writer, rows []dataset.WasteRecord, p summaryParams) error {
	minYear, maxYear, ok := aggregate.YearRange(rows)
	if !ok {
		return fmt.Errorf("the dataset is empty")
	}
	if p.Year == 0 {
		p.Year = maxYear
	}
	if p.Year < minYear || p.Year > maxYear {
		return fmt.Errorf("year %d is outside the dataset range %d-%d", p.Year, minYear, maxYear)
	}
	fn, ok := aggregate.Categories[p.By]
	if !ok {
		return fmt.Errorf("unknown category %q", p.By)
	}
	pop := dataset.DefaultPopulation

	scope := p.State
	if scope == "" {
		scope = "United States"
	}
	sum := aggregate.Summarize(rows, p.Year, p.State, pop)
	t := newTable(w, fmt.Sprintf("%s, %d", scope, p.Year))
	t.AppendRow(table.Row{"Total", humanize.CommafWithDigits(sum.TotalTons, 0) + " tons"})
	if sum.PerCapita != nil {
		t.AppendRow(table.Row{"Per 10,000 residents", humanize.CommafWithDigits(*sum.PerCapita, 2) + " tons"})
	}
	t.AppendRow(table.Row{"Records", humanize.Comma(int64(sum.Records))})
	t.AppendRow(table.Row{"Largest source", sum.TopCategory})
	t.Render()

	ranked := newTable(w, fmt.Sprintf("Top %s", p.By))
	ranked.AppendHeader(table.Row{"#", p.By, "Tons"})
	for i, c := range aggregate.TopKByCategory(rows, p.Year, p.State, fn, p.K) {
		ranked.AppendRow(table.Row{i + 1, c.Label, humanize.CommafWithDigits(c.Total, 0)})
	}
	ranked.Render()

	if p.State != "" {
		return nil
	}
	states := newTable(w, fmt.Sprintf("Top states (%s)", p.Mode))
	states.AppendHeader(table.Row{"#", "State", string(p.Mode)})
	for i, c := range aggregate.TopKStates(aggregate.SumByState(rows, p.Year, pop), p.Mode, p.K) {
		states.AppendRow(table.Row{i + 1, c.Label, humanize.CommafWithDigits(c.Total, 2)})
	}
	states.Render()
	return nil
}

func printUnresolved(w io.Writer, features int, unresolved []string) {
	if len(unresolved) == 0 {
		fmt.Fprintf(w, "All %d regions resolve to a state name.\n", features)
		return
	}
	t := newTable(w, fmt.Sprintf("%d of %d regions render as no data", len(unresolved), features))
	t.AppendHeader(table.Row{"Region id"})
	for _, id := range unresolved {
		t.AppendRow(table.Row{id})
	}
	t.Render()
}
