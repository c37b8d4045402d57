package server

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/wasteviz/wasteviz/app/aggregate"
	"github.com/wasteviz/wasteviz/app/common"
	"github.com/wasteviz/wasteviz/app/config"
	"github.com/wasteviz/wasteviz/app/controller"
	"github.com/wasteviz/wasteviz/app/dataset"
	"github.com/wasteviz/wasteviz/app/search"
	"github.com/wasteviz/wasteviz/app/view"
)

// Upper bound of request bodies for POST /api/actions.
const maxActionBytes = 4 << 10

// WasteVizController holds the HTTP handlers.
type WasteVizController struct {
	conf   *config.WasteVizConfig
	views  *controller.Controller
	cache  *dataset.Cache
	labels Suggester
}

type Suggester interface {
	Suggest(ctx context.Context, partial string, limit int) ([]search.Suggestion, error)
}

// NewWasteVizController wires the handlers. labels may be nil, in which case
// search answers 503.
func NewWasteVizController(conf *config.WasteVizConfig, views *controller.Controller, cache *dataset.Cache, labels Suggester) *WasteVizController {
	return &WasteVizController{conf: conf, views: views, cache: cache, labels: labels}
}

type sectionData struct {
	Label string
	Start float64
	Span  float64
}

func (h *WasteVizController) GetHome(c echo.Context) error {
	rows, err := h.views.Records(c.Request().Context())
	if err != nil {
		return common.WrapErrorForResponse(err, "Cannot show the page")
	}
	minYear, maxYear, _ := aggregate.YearRange(rows)
	sections := make([]sectionData, 0, len(h.conf.Sections))
	for _, s := range h.conf.Sections {
		sections = append(sections, sectionData{Label: s.Label, Start: s.Start, Span: s.Span})
	}
	return c.Render(http.StatusOK, "index", map[string]any{
		"MinYear":  minYear,
		"MaxYear":  maxYear,
		"Sections": sections,
		"View":     h.views.Snapshot(),
	})
}

// yearParam reads the year query parameter, defaulting to the latest year of
// the dataset.
func yearParam(c echo.Context, rows []dataset.WasteRecord) (int, error) {
	minYear, maxYear, ok := aggregate.YearRange(rows)
	if !ok {
		return 0, common.NewUserVisibleError(http.StatusServiceUnavailable, "dataset is empty")
	}
	s := c.QueryParam("year")
	if s == "" {
		return maxYear, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, common.BadRequest("invalid year %q", s)
	}
	if year < minYear || year > maxYear {
		return 0, common.BadRequest("year %d is outside the dataset range %d-%d", year, minYear, maxYear)
	}
	return year, nil
}

func kParam(c echo.Context) (int, error) {
	s := c.QueryParam("k")
	if s == "" {
		return aggregate.DefaultK, nil
	}
	k, err := strconv.Atoi(s)
	if err != nil || k <= 0 || k > 100 {
		return 0, common.BadRequest("k must be an integer between 1 and 100")
	}
	return k, nil
}

func modeParam(c echo.Context) (common.ViewMode, error) {
	mode, err := common.ParseViewMode(c.QueryParam("mode"))
	if err != nil {
		return "", common.BadRequest("%v", err)
	}
	return mode, nil
}

func (h *WasteVizController) records(c echo.Context, what string) ([]dataset.WasteRecord, error) {
	rows, err := h.views.Records(c.Request().Context())
	if err != nil {
		return nil, common.WrapErrorForResponse(err, what)
	}
	return rows, nil
}

func (h *WasteVizController) GetYears(c echo.Context) error {
	rows, err := h.records(c, "Cannot list years")
	if err != nil {
		return err
	}
	trend := h.views.Results().Trend(rows, "")
	years := make([]int, len(trend))
	for i, yt := range trend {
		years[i] = yt.Year
	}
	minYear, maxYear, _ := aggregate.YearRange(rows)
	return c.JSON(http.StatusOK, map[string]any{"min": minYear, "max": maxYear, "years": years})
}

func (h *WasteVizController) GetStates(c echo.Context) error {
	rows, err := h.records(c, "Cannot aggregate states")
	if err != nil {
		return err
	}
	year, err := yearParam(c, rows)
	if err != nil {
		return err
	}
	mode, err := modeParam(c)
	if err != nil {
		return err
	}
	totals := h.views.Results().StateTotals(rows, year)
	values := make(map[string]float64, len(totals))
	for state, st := range totals {
		values[state] = st.Value(mode)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"year":   year,
		"mode":   mode,
		"states": totals,
		"values": values,
	})
}

func (h *WasteVizController) GetTopStates(c echo.Context) error {
	rows, err := h.records(c, "Cannot rank states")
	if err != nil {
		return err
	}
	year, err := yearParam(c, rows)
	if err != nil {
		return err
	}
	mode, err := modeParam(c)
	if err != nil {
		return err
	}
	k, err := kParam(c)
	if err != nil {
		return err
	}
	top := aggregate.TopKStates(h.views.Results().StateTotals(rows, year), mode, k)
	return c.JSON(http.StatusOK, map[string]any{"year": year, "mode": mode, "top": top})
}

func (h *WasteVizController) GetTopCategories(c echo.Context) error {
	rows, err := h.records(c, "Cannot rank categories")
	if err != nil {
		return err
	}
	year, err := yearParam(c, rows)
	if err != nil {
		return err
	}
	k, err := kParam(c)
	if err != nil {
		return err
	}
	by := c.QueryParam("by")
	if by == "" {
		by = controller.SubSectorChart
	}
	state := c.QueryParam("state")
	top, err := h.views.Results().TopCategories(rows, year, state, by, k)
	if err != nil {
		return common.BadRequest("%v", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"year": year, "state": state, "by": by, "top": top})
}

func (h *WasteVizController) GetTrend(c echo.Context) error {
	rows, err := h.records(c, "Cannot compute trend")
	if err != nil {
		return err
	}
	state := c.QueryParam("state")
	return c.JSON(http.StatusOK, map[string]any{"state": state, "trend": h.views.Results().Trend(rows, state)})
}

func (h *WasteVizController) GetSummary(c echo.Context) error {
	rows, err := h.records(c, "Cannot summarize")
	if err != nil {
		return err
	}
	year, err := yearParam(c, rows)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.views.Results().Summary(rows, year, c.QueryParam("state")))
}

func (h *WasteVizController) Search(c echo.Context) error {
	if h.labels == nil {
		return common.NewUserVisibleError(http.StatusServiceUnavailable, "search is not available")
	}
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		var err error
		if limit, err = strconv.Atoi(s); err != nil {
			return common.BadRequest("invalid limit %q", s)
		}
	}
	suggestions, err := h.labels.Suggest(c.Request().Context(), c.QueryParam("q"), limit)
	if err != nil {
		return common.WrapErrorForResponse(err, "Search is not available")
	}
	return c.JSON(http.StatusOK, map[string]any{"suggestions": suggestions})
}

func (h *WasteVizController) GetUnresolved(c echo.Context) error {
	if _, err := h.cache.LoadTopology(c.Request().Context()); err != nil {
		return common.WrapErrorForResponse(err, "Cannot validate topology")
	}
	unresolved := h.cache.Unresolved()
	if unresolved == nil {
		unresolved = []string{}
	}
	return c.JSON(http.StatusOK, map[string]any{"unresolved": unresolved})
}

func (h *WasteVizController) GetView(c echo.Context) error {
	return c.JSON(http.StatusOK, h.views.Snapshot())
}

func (h *WasteVizController) PostAction(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxActionBytes))
	if err != nil {
		return common.BadRequest("cannot read action: %v", err)
	}
	action, err := controller.DecodeAction(body, h.views.ResolveRegion)
	if err != nil {
		return err
	}
	if err := h.views.Dispatch(c.Request().Context(), action); err != nil {
		return common.WrapErrorForResponse(err, "Cannot apply "+action.Type())
	}
	if _, ok := action.(controller.ScrollProgressed); ok {
		return c.NoContent(http.StatusAccepted)
	}
	return c.JSON(http.StatusOK, h.views.Snapshot())
}

func (h *WasteVizController) GetMapSVG(c echo.Context) error {
	vs := h.views.Snapshot()
	topo := h.views.MapTopology()
	if !vs.Map.Rendered || topo == nil {
		return common.NewUserVisibleError(http.StatusServiceUnavailable, "the map is not rendered yet")
	}
	c.Response().Header().Set(echo.HeaderContentType, "image/svg+xml")
	c.Response().WriteHeader(http.StatusOK)
	return view.MapSVG(vs.Map, topo).Render(c.Request().Context(), c.Response())
}

func (h *WasteVizController) GetBarsSVG(c echo.Context) error {
	name := strings.TrimSuffix(c.Param("file"), ".svg")
	bars, ok := h.views.Snapshot().Bars[name]
	if !ok {
		return common.NewUserVisibleError(http.StatusNotFound, "no such chart "+name)
	}
	if !bars.Rendered {
		return common.NewUserVisibleError(http.StatusServiceUnavailable, "the chart is not rendered yet")
	}
	c.Response().Header().Set(echo.HeaderContentType, "image/svg+xml")
	c.Response().WriteHeader(http.StatusOK)
	return view.BarsSVG(bars).Render(c.Request().Context(), c.Response())
}
