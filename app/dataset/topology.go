package dataset

import (
	"fmt"
	"math"
	"sort"

	geojson "github.com/paulmach/go.geojson"
)

// Topology is the boundary collection the map draws. It is read only after
// parsing.
type Topology struct {
	Collection *geojson.FeatureCollection
}

// Properties checked, in order, when a feature has no top level id.
var regionIDProperties = []string{"id", "STATE", "GEOID", "fips"}

func ParseTopology(data []byte) (*Topology, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing topology: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("topology has no features")
	}
	return &Topology{Collection: fc}, nil
}

// RegionID returns the normalized identifier of a feature.
func RegionID(f *geojson.Feature) string {
	if f.ID != nil {
		return NormalizeRegionID(f.ID)
	}
	for _, p := range regionIDProperties {
		if v, ok := f.Properties[p]; ok {
			return NormalizeRegionID(v)
		}
	}
	return ""
}

func (t *Topology) RegionIDs() []string {
	ids := make([]string, 0, len(t.Collection.Features))
	for _, f := range t.Collection.Features {
		ids = append(ids, RegionID(f))
	}
	return ids
}

// Unresolved lists the region ids, sorted, that the lookup cannot turn into a
// state name. Those regions render as "no data".
func (t *Topology) Unresolved(lookup RegionLookup) []string {
	var out []string
	for _, id := range t.RegionIDs() {
		if _, ok := lookup.StateName(id); !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Rings returns every polygon ring of a feature's geometry.
func Rings(f *geojson.Feature) [][][]float64 {
	g := f.Geometry
	if g == nil {
		return nil
	}
	switch {
	case g.IsPolygon():
		return g.Polygon
	case g.IsMultiPolygon():
		var rings [][][]float64
		for _, poly := range g.MultiPolygon {
			rings = append(rings, poly...)
		}
		return rings
	}
	return nil
}

// Bounds returns the lon/lat bounding box of all features.
func (t *Topology) Bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, f := range t.Collection.Features {
		for _, ring := range Rings(f) {
			for _, pt := range ring {
				if len(pt) < 2 {
					continue
				}
				minX, maxX = math.Min(minX, pt[0]), math.Max(maxX, pt[0])
				minY, maxY = math.Min(minY, pt[1]), math.Max(maxY, pt[1])
			}
		}
	}
	return
}
