package router_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benefitsnav/maive/internal/adapter"
	"github.com/benefitsnav/maive/internal/api/router"
	"github.com/benefitsnav/maive/internal/apperr"
	"github.com/benefitsnav/maive/internal/catalog"
	"github.com/benefitsnav/maive/internal/domain"
	"github.com/benefitsnav/maive/internal/dto"
	"github.com/benefitsnav/maive/internal/judge"
	"github.com/benefitsnav/maive/internal/orchestrator"
	"github.com/benefitsnav/maive/internal/storage/in_mem"
	"github.com/benefitsnav/maive/internal/trend"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoAdapter struct{}

func (echoAdapter) SystemType() domain.SystemType { return domain.SystemPolicyEngine }

func (echoAdapter) Invoke(ctx context.Context, tc domain.TestCase) (*adapter.Invocation, error) {
	return &adapter.Invocation{ActualOutput: tc.ExpectedBehavior, LatencyMs: 1}, nil
}

type apiHarness struct {
	e     *echo.Echo
	store *in_mem.InMemStore
	orch  *orchestrator.Orchestrator
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	store := in_mem.NewInMemStore()
	registry, err := adapter.NewRegistry(echoAdapter{})
	require.NoError(t, err)

	cat := catalog.New(store)
	agg := trend.NewAggregator(store, store)
	orch := orchestrator.New(cat, registry, judge.NewKeywordJudge(), store, agg, orchestrator.DefaultConfig())

	e := echo.New()
	e.HTTPErrorHandler = apperr.GlobalErrorHandler()
	router.NewValidationRouter(e, orch, cat, store, agg).Bind()

	return &apiHarness{e: e, store: store, orch: orch}
}

func (h *apiHarness) seedCase(t *testing.T, name, category, jurisdiction string, active bool) domain.TestCase {
	t.Helper()
	tc := domain.TestCase{
		ID:                uuid.New(),
		Name:              name,
		Category:          domain.Category(category),
		Scenario:          "scenario",
		ExpectedBehavior:  "household eligible; allotment 602",
		AccuracyThreshold: 0.9,
		Jurisdiction:      jurisdiction,
		IsActive:          active,
		Version:           1,
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, h.store.SaveTestCase(context.Background(), tc))
	return tc
}

func (h *apiHarness) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

func TestStartRun_AcceptedAndObservable(t *testing.T) {
	h := newAPIHarness(t)
	tc := h.seedCase(t, "calc", "benefit_calculation", "CA", true)

	body := `{"name":"nightly","systemType":"policy_engine","jurisdiction":"CA","testCaseIds":["` + tc.ID.String() + `"]}`
	rec := h.do(http.MethodPost, "/api/v1/runs", body)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var accepted dto.TestRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	assert.Equal(t, "running", accepted.Status)
	assert.Empty(t, accepted.Readiness, "readiness is withheld until the run is terminal")
	assert.Equal(t, 1, accepted.TotalTests)

	select {
	case <-h.orch.Await(accepted.ID):
	case <-time.After(5 * time.Second):
		t.Fatal("run did not complete")
	}

	rec = h.do(http.MethodGet, "/api/v1/runs/"+accepted.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var final dto.TestRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &final))
	assert.Equal(t, "passed", final.Status)
	assert.Equal(t, "production_ready", final.Readiness)
	require.Len(t, final.Evaluations, 1)
	assert.True(t, final.Evaluations[0].Passed)
	assert.InDelta(t, 1.0, final.OverallAccuracy, 1e-9)
}

func TestStartRun_ValidationFailures(t *testing.T) {
	h := newAPIHarness(t)
	active := h.seedCase(t, "calc", "benefit_calculation", "", true)
	inactive := h.seedCase(t, "old", "benefit_calculation", "", false)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{
			name:     "unknown system type",
			body:     `{"name":"r","systemType":"mainframe","testCaseIds":["` + active.ID.String() + `"]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing name",
			body:     `{"systemType":"policy_engine","testCaseIds":["` + active.ID.String() + `"]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "only inactive cases",
			body:     `{"name":"r","systemType":"policy_engine","testCaseIds":["` + inactive.ID.String() + `"]}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "malformed body",
			body:     `{"name":`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/api/v1/runs", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestGetRun_Errors(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(http.MethodGet, "/api/v1/runs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodGet, "/api/v1/runs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelRun_TerminalRunRejected(t *testing.T) {
	h := newAPIHarness(t)
	tc := h.seedCase(t, "calc", "benefit_calculation", "", true)

	body := `{"name":"r","systemType":"policy_engine","testCaseIds":["` + tc.ID.String() + `"]}`
	rec := h.do(http.MethodPost, "/api/v1/runs", body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var run dto.TestRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	<-h.orch.Await(run.ID)

	rec = h.do(http.MethodPost, "/api/v1/runs/"+run.ID.String()+"/cancel", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, "/api/v1/runs/"+uuid.NewString()+"/cancel", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTestCases_Filters(t *testing.T) {
	h := newAPIHarness(t)
	h.seedCase(t, "calc-ca", "benefit_calculation", "CA", true)
	h.seedCase(t, "policy-ny", "policy_interpretation", "NY", true)
	h.seedCase(t, "calc-retired", "benefit_calculation", "CA", false)

	rec := h.do(http.MethodGet, "/api/v1/test-cases", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []dto.TestCaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2, "inactive cases are never listed")

	rec = h.do(http.MethodGet, "/api/v1/test-cases?category=benefit_calculation", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var filtered []dto.TestCaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, "calc-ca", filtered[0].Name)

	rec = h.do(http.MethodGet, "/api/v1/test-cases?category=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTrends(t *testing.T) {
	h := newAPIHarness(t)
	tc := h.seedCase(t, "calc", "benefit_calculation", "CA", true)

	body := `{"name":"r","systemType":"policy_engine","jurisdiction":"CA","testCaseIds":["` + tc.ID.String() + `"]}`
	rec := h.do(http.MethodPost, "/api/v1/runs", body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var run dto.TestRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	<-h.orch.Await(run.ID)

	rec = h.do(http.MethodGet, "/api/v1/trends?jurisdiction=CA", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var trends []dto.TrendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trends))
	require.Len(t, trends, 1)
	assert.Equal(t, "CA", trends[0].Jurisdiction)
	assert.Equal(t, 1, trends[0].TestCount)
	assert.InDelta(t, 1.0, trends[0].AvgAccuracy, 1e-9)
	assert.Equal(t, "production_ready", trends[0].Readiness)

	// Omitting the jurisdiction selects the unscoped series, which does not
	// absorb scoped runs.
	rec = h.do(http.MethodGet, "/api/v1/trends", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var unscoped []dto.TrendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unscoped))
	assert.Empty(t, unscoped)
}

func TestListTrends_UnscopedSeries(t *testing.T) {
	h := newAPIHarness(t)
	tc := h.seedCase(t, "calc", "benefit_calculation", "", true)

	body := `{"name":"r","systemType":"policy_engine","testCaseIds":["` + tc.ID.String() + `"]}`
	rec := h.do(http.MethodPost, "/api/v1/runs", body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var run dto.TestRunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	<-h.orch.Await(run.ID)

	rec = h.do(http.MethodGet, "/api/v1/trends", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var trends []dto.TrendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &trends))
	require.Len(t, trends, 1)
	assert.Equal(t, "", trends[0].Jurisdiction)
	assert.Equal(t, 1, trends[0].TestCount)
}
