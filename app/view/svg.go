package view

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/a-h/templ"
	"github.com/wasteviz/wasteviz/app/common"
	"github.com/wasteviz/wasteviz/app/dataset"
	"github.com/wasteviz/wasteviz/app/scale"
)

const (
	MapWidth   = 960.0
	MapHeight  = 600.0
	mapPadding = 10.0

	barHeight = 22.0
	barGap    = 6.0
	barLabelW = 180.0
)

// fitProjection maps lon/lat into the map viewport with an equirectangular
// projection that keeps the aspect ratio of the topology bounds.
type fitProjection struct {
	x, y   scale.Linear
	ok     bool
	offset [2]float64
}

func newFitProjection(topo *dataset.Topology, width, height float64) fitProjection {
	minX, minY, maxX, maxY := topo.Bounds()
	if math.IsInf(minX, 0) || maxX <= minX || maxY <= minY {
		return fitProjection{}
	}
	w, h := width-2*mapPadding, height-2*mapPadding
	k := math.Min(w/(maxX-minX), h/(maxY-minY))
	dx := (w - k*(maxX-minX)) / 2
	dy := (h - k*(maxY-minY)) / 2
	return fitProjection{
		x:      scale.NewLinear(minX, maxX, 0, k*(maxX-minX)),
		y:      scale.NewLinear(minY, maxY, k*(maxY-minY), 0),
		ok:     true,
		offset: [2]float64{mapPadding + dx, mapPadding + dy},
	}
}

func (p fitProjection) point(pt []float64) (float64, float64) {
	return p.x.Map(pt[0]) + p.offset[0], p.y.Map(pt[1]) + p.offset[1]
}

// path returns SVG path data. The output holds only commands and numbers and
// is written unescaped.
func (p fitProjection) path(rings [][][]float64) string {
	var sb strings.Builder
	for _, ring := range rings {
		n := 0
		for _, pt := range ring {
			if len(pt) < 2 {
				continue
			}
			x, y := p.point(pt)
			cmd := "L"
			if n == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&sb, "%s%.2f,%.2f", cmd, x, y)
			n++
		}
		if n > 0 {
			sb.WriteString("Z")
		}
	}
	return sb.String()
}

// MapSVG draws the choropleth for a map surface over its topology.
func MapSVG(surface MapSurface, topo *dataset.Topology) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var sb strings.Builder
		fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" class="map" viewBox="0 0 %.0f %.0f">`, MapWidth, MapHeight)
		if topo != nil && surface.Rendered {
			fills := make(map[string]RegionFill, len(surface.Regions))
			for _, rf := range surface.Regions {
				fills[rf.ID] = rf
			}
			proj := newFitProjection(topo, MapWidth, MapHeight)
			if proj.ok {
				for _, f := range topo.Collection.Features {
					id := dataset.RegionID(f)
					rf, ok := fills[id]
					if !ok {
						rf = RegionFill{ID: id, Fill: NoDataFill, Opacity: 1}
					}
					d := proj.path(dataset.Rings(f))
					if d == "" {
						continue
					}
					fmt.Fprintf(&sb, `<path class="region" data-id="%s" data-state="%s" d="%s" fill="%s" fill-opacity="%.2f" stroke="#ffffff" stroke-width="0.5">`,
						templ.EscapeString(rf.ID), templ.EscapeString(rf.State), d, templ.EscapeString(rf.Fill), rf.Opacity)
					fmt.Fprintf(&sb, `<title>%s</title></path>`, templ.EscapeString(regionTitle(rf, surface)))
				}
			}
		}
		sb.WriteString(`</svg>`)
		_, err := io.WriteString(w, sb.String())
		return err
	})
}

func regionTitle(rf RegionFill, surface MapSurface) string {
	name := rf.State
	if name == "" {
		name = "Region " + rf.ID
	}
	if !rf.HasData {
		return name + ": no data"
	}
	if surface.Mode == common.Total {
		return fmt.Sprintf("%s: %s", name, FormatTons(rf.Value))
	}
	return fmt.Sprintf("%s: %.2f tons per %d residents", name, rf.Value, dataset.PerCapitaUnit)
}

// BarsSVG draws a bar surface. Each bar animates its width from
// AnimateFrom on load.
func BarsSVG(surface BarSurface) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		height := float64(len(surface.Bars))*(barHeight+barGap) + barGap
		width := barLabelW + surface.Width + 120
		var sb strings.Builder
		fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" class="bars" data-name="%s" viewBox="0 0 %.0f %.0f">`,
			templ.EscapeString(surface.Name), width, height)
		fmt.Fprintf(&sb, `<title>%s</title>`, templ.EscapeString(fmt.Sprintf("%s, %s", surface.Title, surface.Scope)))
		dur := surface.Duration.Milliseconds()
		for i, b := range surface.Bars {
			y := barGap + float64(i)*(barHeight+barGap)
			fill := "#fc9272"
			if b.Highlight {
				fill = "#a50f15"
			}
			fmt.Fprintf(&sb, `<text x="%.0f" y="%.1f" text-anchor="end" dominant-baseline="middle">%s</text>`,
				barLabelW-8, y+barHeight/2, templ.EscapeString(b.Label))
			fmt.Fprintf(&sb, `<rect x="%.0f" y="%.1f" width="%.2f" height="%.0f" fill="%s">`, barLabelW, y, b.Length, barHeight, fill)
			if dur > 0 {
				fmt.Fprintf(&sb, `<animate attributeName="width" from="%.2f" to="%.2f" dur="%dms" fill="freeze"/>`,
					surface.AnimateFrom, b.Length, dur)
			}
			sb.WriteString(`</rect>`)
			fmt.Fprintf(&sb, `<text x="%.2f" y="%.1f" dominant-baseline="middle">%s</text>`,
				barLabelW+b.Length+6, y+barHeight/2, templ.EscapeString(FormatTons(b.Total)))
		}
		sb.WriteString(`</svg>`)
		_, err := io.WriteString(w, sb.String())
		return err
	})
}
