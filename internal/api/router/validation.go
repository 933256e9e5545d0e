package router

import (
	"net/http"

	"github.com/benefitsnav/maive/internal/apperr"
	"github.com/benefitsnav/maive/internal/catalog"
	"github.com/benefitsnav/maive/internal/domain"
	"github.com/benefitsnav/maive/internal/dto"
	"github.com/benefitsnav/maive/internal/orchestrator"
	"github.com/benefitsnav/maive/internal/storage"
	"github.com/benefitsnav/maive/internal/trend"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ValidationRouter exposes the run, catalog and trend endpoints.
type ValidationRouter struct {
	e      *echo.Echo
	orch   *orchestrator.Orchestrator
	cat    catalog.Catalog
	runs   storage.RunStore
	trends *trend.Aggregator
}

func NewValidationRouter(e *echo.Echo, orch *orchestrator.Orchestrator, cat catalog.Catalog, runs storage.RunStore, trends *trend.Aggregator) *ValidationRouter {
	return &ValidationRouter{
		e:      e,
		orch:   orch,
		cat:    cat,
		runs:   runs,
		trends: trends,
	}
}

func (r *ValidationRouter) Bind() {
	v1 := r.e.Group("/api/v1")
	v1.POST("/runs", r.startRunHandler)
	v1.GET("/runs/:id", r.getRunHandler)
	v1.POST("/runs/:id/cancel", r.cancelRunHandler)
	v1.GET("/test-cases", r.listTestCasesHandler)
	v1.GET("/trends", r.listTrendsHandler)
}

// startRunHandler starts a validation run.
// @Summary Start a validation run
// @Description Resolves the requested test cases and starts asynchronous execution. The returned run is still in progress; poll GET /runs/{id}.
// @Tags runs
// @Accept json
// @Produce json
// @Param request body dto.StartRunRequest true "Run request"
// @Success 202 {object} dto.TestRunResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/v1/runs [post]
func (r *ValidationRouter) startRunHandler(c echo.Context) error {
	var req dto.StartRunRequest
	if err := c.Bind(&req); err != nil {
		return apperr.NewValidationWrap("malformed request body", err)
	}

	run, err := r.orch.RunSuite(c.Request().Context(), orchestrator.SuiteRequest{
		Name:         req.Name,
		TestCaseIDs:  req.TestCaseIds,
		SystemType:   domain.SystemType(req.SystemType),
		Jurisdiction: req.Jurisdiction,
		Rubric:       req.Rubric(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, dto.FromRun(run, nil))
}

// getRunHandler fetches a run with its evaluations.
// @Summary Get a validation run
// @Description Returns the run, its per-case evaluations and, once terminal, the readiness band.
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} dto.TestRunResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/runs/{id} [get]
func (r *ValidationRouter) getRunHandler(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	run, err := r.runs.GetRun(ctx, id)
	if err != nil {
		return err
	}
	evals, err := r.runs.ListEvaluations(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.FromRun(run, evals))
}

// cancelRunHandler cancels an in-progress run.
// @Summary Cancel a validation run
// @Description Stops execution; unfinished cases are recorded as cancelled and the run finishes as failed.
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/runs/{id}/cancel [post]
func (r *ValidationRouter) cancelRunHandler(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	if err := r.orch.Cancel(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// listTestCasesHandler lists active test cases.
// @Summary List active test cases
// @Tags test-cases
// @Produce json
// @Param category query string false "Filter by category"
// @Param jurisdiction query string false "Filter by jurisdiction; unscoped cases are always included"
// @Success 200 {array} dto.TestCaseResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/test-cases [get]
func (r *ValidationRouter) listTestCasesHandler(c echo.Context) error {
	filter := catalog.Filter{Jurisdiction: c.QueryParam("jurisdiction")}

	if raw := c.QueryParam("category"); raw != "" {
		cat := domain.Category(raw)
		if !cat.Valid() {
			return apperr.NewValidation("unknown category " + raw)
		}
		filter.Category = &cat
	}

	cases, err := r.cat.ListActive(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.FromTestCases(cases))
}

// listTrendsHandler lists the accuracy trend series for a jurisdiction.
// @Summary List accuracy trends
// @Tags trends
// @Produce json
// @Param jurisdiction query string false "Jurisdiction; omit for the series of runs with no jurisdiction"
// @Success 200 {array} dto.TrendResponse
// @Router /api/v1/trends [get]
func (r *ValidationRouter) listTrendsHandler(c echo.Context) error {
	trends, err := r.trends.List(c.Request().Context(), c.QueryParam("jurisdiction"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.FromTrends(trends))
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.NewValidationWrap("invalid run id", err)
	}
	return id, nil
}
