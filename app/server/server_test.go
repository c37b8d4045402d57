package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wasteviz/wasteviz/app/aggregate"
	"github.com/wasteviz/wasteviz/app/config"
	"github.com/wasteviz/wasteviz/app/controller"
	"github.com/wasteviz/wasteviz/app/dataset"
	"github.com/wasteviz/wasteviz/app/search"
)

const testCSV = `year,state,sector,sub_sector,food_type,tons_waste
2022,Texas,Residential,Not Applicable,Produce,100
2023,Texas,Retail,Grocery,Produce,300
2023,Ohio,Farm,Not Applicable,Dairy & Eggs,60
`

const testTopology = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "id": "48",
		 "geometry": {"type": "Polygon", "coordinates": [[[-106,26],[-94,26],[-94,36],[-106,36],[-106,26]]]}},
		{"type": "Feature", "id": "39",
		 "geometry": {"type": "Polygon", "coordinates": [[[-84,38],[-80,38],[-80,42],[-84,42],[-84,38]]]}},
		{"type": "Feature", "id": "72",
		 "geometry": {"type": "Polygon", "coordinates": [[[-67,18],[-65,18],[-65,19],[-67,18]]]}}
	]
}`

func newTestServer(t *testing.T, topology string) *echo.Echo {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "waste.csv"), []byte(testCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "states.geojson"), []byte(topology), 0o644))

	conf := &config.WasteVizConfig{
		DataDir:          dir,
		RecordSource:     "csv",
		RecordLocation:   "waste.csv",
		TopologyLocation: "states.geojson",
	}
	conf.ApplyDefaults()
	require.NoError(t, conf.Validate())

	records, topo, err := dataset.SourcesFromConfig(conf)
	require.NoError(t, err)
	cache := dataset.NewCache(records, topo, dataset.DefaultRegions)
	rows, err := cache.LoadRecords(t.Context())
	require.NoError(t, err)
	labels, err := search.NewLabelIndex(rows)
	require.NoError(t, err)
	t.Cleanup(func() { labels.Close() })

	views := controller.NewController(conf, cache, dataset.DefaultRegions,
		aggregate.NewResultCache(time.Minute, dataset.DefaultPopulation))
	t.Cleanup(views.Close)
	_ = views.Refresh(t.Context())

	e, err := NewEcho(NewWasteVizController(conf, views, cache, labels), conf, config.ServerRuntimeConfig{})
	require.NoError(t, err)
	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestDataEndpoints(t *testing.T) {
	e := newTestServer(t, testTopology)

	rec := do(e, http.MethodGet, "/api/years", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{2022.0, 2023.0}, decode(t, rec)["years"])

	rec = do(e, http.MethodGet, "/api/states?year=2023&mode=total", "")
	require.Equal(t, http.StatusOK, rec.Code)
	values := decode(t, rec)["values"].(map[string]any)
	assert.Equal(t, 300.0, values["Texas"])
	assert.Equal(t, 60.0, values["Ohio"])

	rec = do(e, http.MethodGet, "/api/categories/top?year=2023&by=food_type", "")
	require.Equal(t, http.StatusOK, rec.Code)
	top := decode(t, rec)["top"].([]any)
	require.Len(t, top, 2)
	assert.Equal(t, "Produce", top[0].(map[string]any)["label"])

	rec = do(e, http.MethodGet, "/api/states/top?year=2023&mode=total&k=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["top"], 1)

	rec = do(e, http.MethodGet, "/api/trend?state=Texas", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["trend"], 2)

	rec = do(e, http.MethodGet, "/api/summary?state=Ohio", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sum := decode(t, rec)
	assert.Equal(t, 2023.0, sum["year"])
	assert.Equal(t, 60.0, sum["total_tons"])

	rec = do(e, http.MethodGet, "/api/search?q=dai", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["suggestions"], 1)

	rec = do(e, http.MethodGet, "/api/topology/unresolved", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"72"}, decode(t, rec)["unresolved"])
}

func TestBadRequests(t *testing.T) {
	e := newTestServer(t, testTopology)
	for _, target := range []string{
		"/api/states?year=1990",
		"/api/states?year=abc",
		"/api/states?mode=weekly",
		"/api/categories/top?by=color",
		"/api/states/top?k=0",
	} {
		rec := do(e, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, decode(t, rec)["error"], "Error 400", target)
	}

	rec := do(e, http.MethodPost, "/api/actions", `{"type":"year_changed","year":1800}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(e, http.MethodPost, "/api/actions", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestActionsAndSurfaces(t *testing.T) {
	e := newTestServer(t, testTopology)

	rec := do(e, http.MethodPost, "/api/actions", `{"type":"state_clicked","region":"48"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	vs := decode(t, rec)
	assert.Equal(t, "Texas", vs["map"].(map[string]any)["focus"])
	first := vs["state"].(map[string]any)["applied"].(float64)

	// Clients drop responses whose applied token is older than the one drawn.
	rec = do(e, http.MethodPost, "/api/actions", `{"type":"mode_changed","mode":"total"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Greater(t, decode(t, rec)["state"].(map[string]any)["applied"].(float64), first)
	rec = do(e, http.MethodGet, "/static/scrolly.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "view.state.applied < drawn")

	rec = do(e, http.MethodPost, "/api/actions", `{"type":"scroll_progressed","progress":0.1}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(e, http.MethodGet, "/map.svg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, 3, strings.Count(rec.Body.String(), "<path "))

	rec = do(e, http.MethodGet, "/bars/food_type.svg", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Produce")

	rec = do(e, http.MethodGet, "/bars/colors.svg", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBrokenTopologyKeepsBars(t *testing.T) {
	e := newTestServer(t, `{"type":"FeatureCollection","features":[]}`)

	rec := do(e, http.MethodGet, "/map.svg", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(e, http.MethodGet, "/bars/states.svg", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/topology/unresolved", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPages(t *testing.T) {
	e := newTestServer(t, testTopology)

	rec := do(e, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `min="2022"`)
	assert.Contains(t, body, `data-label="household"`)
	assert.Contains(t, body, "/static/app.css?hash=")

	rec = do(e, http.MethodGet, "/static/scrolly.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/no/such/page", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
}

func TestSearchRecoversAfterFailedLoad(t *testing.T) {
	dir := t.TempDir()
	conf := &config.WasteVizConfig{
		DataDir:          dir,
		RecordSource:     "csv",
		RecordLocation:   "waste.csv",
		TopologyLocation: "states.geojson",
	}
	conf.ApplyDefaults()
	records, topo, err := dataset.SourcesFromConfig(conf)
	require.NoError(t, err)
	cache := dataset.NewCache(records, topo, dataset.DefaultRegions)
	labels := search.NewLazyIndex(cache.LoadRecords)
	t.Cleanup(func() { labels.Close() })

	e, err := NewEcho(NewWasteVizController(conf, nil, cache, labels), conf, config.ServerRuntimeConfig{})
	require.NoError(t, err)

	rec := do(e, http.MethodGet, "/api/search?q=tex", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "waste.csv"), []byte(testCSV), 0o644))
	rec = do(e, http.MethodGet, "/api/search?q=tex", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["suggestions"], 1)
}
