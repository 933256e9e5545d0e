package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benefitsnav/maive/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCase() domain.TestCase {
	return domain.TestCase{
		Name:              "snap-allotment",
		Category:          domain.CategoryBenefitCalculation,
		Scenario:          "household of 2, income 1100/mo",
		ExpectedBehavior:  "eligible; allotment 460",
		AccuracyThreshold: 0.9,
		Jurisdiction:      "CA",
	}
}

func TestPolicyEngineAdapter_NormalizesDetermination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/determinations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"eligible": true, "benefit_amount": 460, "explanation": "net income  below limit", "factors": {"household_size": 2}}`))
	}))
	defer srv.Close()

	a, err := NewPolicyEngineAdapter(srv.URL, time.Second)
	require.NoError(t, err)

	inv, err := a.Invoke(context.Background(), testCase())
	require.NoError(t, err)

	want := "benefit_amount: 460\neligible: yes\nexplanation: net income below limit\nfactor.household_size: 2"
	assert.Equal(t, want, inv.ActualOutput)
	assert.NotEmpty(t, inv.Raw)
	assert.GreaterOrEqual(t, inv.LatencyMs, int64(0))
}

func TestGeminiExtractionAdapter_NormalizesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/extract", r.URL.Path)
		_, _ = w.Write([]byte(`{"fields": {"gross_income": 1100.5, "employer": "Acme  Staffing", "pay_period": "biweekly"}, "confidence": 0.93}`))
	}))
	defer srv.Close()

	a, err := NewGeminiExtractionAdapter(srv.URL, time.Second)
	require.NoError(t, err)

	inv, err := a.Invoke(context.Background(), testCase())
	require.NoError(t, err)

	want := "employer: Acme Staffing\ngross_income: 1100.50\npay_period: biweekly"
	assert.Equal(t, want, inv.ActualOutput)
}

func TestAdapter_SubsystemErrorIsNotTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rules engine unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	a, err := NewPolicyEngineAdapter(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = a.Invoke(context.Background(), testCase())
	var se *SubsystemError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Status)
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestAdapter_TimeoutClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	a, err := NewPolicyEngineAdapter(srv.URL, 20*time.Millisecond)
	require.NoError(t, err)

	_, err = a.Invoke(context.Background(), testCase())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout), "expected ErrTimeout, got %v", err)
}

func TestRegistry(t *testing.T) {
	pe, err := NewPolicyEngineAdapter("http://localhost:0", time.Second)
	require.NoError(t, err)

	r, err := NewRegistry(pe)
	require.NoError(t, err)

	got, err := r.Resolve(domain.SystemPolicyEngine)
	require.NoError(t, err)
	assert.Equal(t, domain.SystemPolicyEngine, got.SystemType())

	_, err = r.Resolve(domain.SystemGeminiExtraction)
	assert.Error(t, err)

	err = r.Register(pe)
	assert.Error(t, err, "duplicate registration must be rejected")
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"integer-valued float", float64(602), "602"},
		{"fractional amount", 460.5, "460.50"},
		{"bool true", true, "yes"},
		{"bool false", false, "no"},
		{"whitespace collapse", "a  b\n c", "a b c"},
		{"list", []any{"a", float64(2)}, "a, 2"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeValue(tt.in))
		})
	}
}
