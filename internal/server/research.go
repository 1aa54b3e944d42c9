package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agcreativegroup/News-Research-Tool/internal/research"
	"github.com/agcreativegroup/News-Research-Tool/models"
	"github.com/agcreativegroup/News-Research-Tool/news"
)

// ResearchHandler exposes the research pipeline over HTTP.
type ResearchHandler struct {
	Orch *research.Orchestrator
}

func (h *ResearchHandler) Register(g *echo.Group) {
	g.POST("/research", h.research)
	g.GET("/research/cached", h.cached)
	g.GET("/models", h.models)
	g.GET("/history", h.history)
	g.GET("/history/search", h.searchHistory)
	g.GET("/history/:id/export", h.export)
	g.GET("/runs/active", h.activeRuns)
	g.GET("/runs/:id", h.runStatus)
	g.GET("/stats", h.stats)
}

func (h *ResearchHandler) research(c echo.Context) error {
	var req ResearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	query, err := req.ToQuery()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.Orch.Run(c.Request().Context(), query)
	if err != nil {
		return pipelineHTTPError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// cached answers from the result cache only. A miss is 404, never a
// provider call.
func (h *ResearchHandler) cached(c echo.Context) error {
	query, err := queryFromParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.Orch.Cached(c.Request().Context(), query)
	if err != nil {
		return pipelineHTTPError(err)
	}
	if result == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no cached result for this query")
	}
	return c.JSON(http.StatusOK, result)
}

func (h *ResearchHandler) models(c echo.Context) error {
	catalog := h.Orch.Models()
	resp := ModelsResponse{Models: catalog}
	if len(catalog) > 0 {
		resp.Default = catalog[0]
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ResearchHandler) history(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Orch.History().List())
}

func (h *ResearchHandler) searchHistory(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("q"))
	if term == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	hits, err := h.Orch.History().Search(term, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, hits)
}

func (h *ResearchHandler) export(c echo.Context) error {
	runID := c.Param("id")
	result, ok := h.Orch.History().Result(runID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "run not in history")
	}
	switch c.QueryParam("format") {
	case "report":
		return c.Blob(http.StatusOK, "text/plain; charset=utf-8", []byte(research.BuildReport(result)))
	case "csv":
		out, err := research.BuildCSV(result)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="research-`+runID+`.csv"`)
		return c.Blob(http.StatusOK, "text/csv", []byte(out))
	case "", "json":
		raw, err := research.BuildJSON(result)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSONBlob(http.StatusOK, raw)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "format must be report, json or csv")
	}
}

func (h *ResearchHandler) activeRuns(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Orch.Runs())
}

func (h *ResearchHandler) runStatus(c echo.Context) error {
	status, ok := h.Orch.Status(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown run")
	}
	return c.JSON(http.StatusOK, status)
}

func (h *ResearchHandler) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Orch.Telemetry().Snapshot())
}

// queryFromParams builds a pipeline query from GET parameters, using
// the same field names the POST body uses.
func queryFromParams(c echo.Context) (models.Query, error) {
	req := ResearchRequest{
		Query:    c.QueryParam("query"),
		DateFrom: c.QueryParam("date_from"),
		DateTo:   c.QueryParam("date_to"),
		Sort:     c.QueryParam("sort"),
		Model:    c.QueryParam("model"),
	}
	if raw := strings.TrimSpace(c.QueryParam("max_articles")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return models.Query{}, fmt.Errorf("max_articles: %w", err)
		}
		req.MaxArticles = n
	}
	if raw := strings.TrimSpace(c.QueryParam("sources")); raw != "" {
		req.Sources = strings.Split(raw, ",")
	}
	return req.ToQuery()
}

// pipelineHTTPError maps pipeline failures onto HTTP statuses. Client
// mistakes are 4xx; upstream trouble surfaces as 502 so callers can
// tell it apart from bugs in this service.
func pipelineHTTPError(err error) error {
	perr, ok := research.AsPipelineError(err)
	if !ok {
		return err
	}
	switch perr.Kind {
	case research.KindInvalidQuery:
		return echo.NewHTTPError(http.StatusBadRequest, perr.Message)
	case string(news.KindRateLimited):
		return echo.NewHTTPError(http.StatusTooManyRequests, perr.Message)
	case string(news.KindAuth), string(news.KindNetwork), string(news.KindProvider):
		return echo.NewHTTPError(http.StatusBadGateway, perr.Message)
	case research.KindCache:
		return echo.NewHTTPError(http.StatusServiceUnavailable, perr.Message)
	}
	return err
}
