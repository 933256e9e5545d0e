package judge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdict_DerivesAccuracyFromClaims(t *testing.T) {
	data := []byte(`{
		"claims": [
			{"claim": "applicant is eligible", "satisfied": true, "critical": true},
			{"claim": "allotment is 602", "satisfied": true},
			{"claim": "notice sent within 30 days", "satisfied": false, "explanation": "no notice timeline in output"}
		],
		"accuracy": 0.99,
		"reasoning": "two of three claims hold"
	}`)

	verdict, err := parseVerdict(data, Rubric{})
	require.NoError(t, err)

	// The model's own 0.99 scalar is ignored in favor of the claim list.
	assert.InDelta(t, 2.0/3.0, verdict.Accuracy, 1e-9)
	require.Len(t, verdict.Deviations, 1)
	assert.Equal(t, "notice sent within 30 days: no notice timeline in output", verdict.Deviations[0])
	assert.Equal(t, "two of three claims hold", verdict.Reasoning)
}

func TestParseVerdict_CriticalWeighting(t *testing.T) {
	data := []byte(`{
		"claims": [
			{"claim": "eligibility decision correct", "satisfied": false, "critical": true, "explanation": "denied instead of approved"},
			{"claim": "explanation cites income limit", "satisfied": true},
			{"claim": "explanation cites household size", "satisfied": true}
		]
	}`)

	equal, err := parseVerdict(data, Rubric{})
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, equal.Accuracy, 1e-9)

	weighted, err := parseVerdict(data, Rubric{CriticalWeight: 3})
	require.NoError(t, err)
	// critical claim weighs 3: satisfied 2 of total 5
	assert.InDelta(t, 0.4, weighted.Accuracy, 1e-9)
}

func TestParseVerdict_ScalarOnly(t *testing.T) {
	// A claimless sub-1.0 score still carries a deviation so a failing
	// evaluation is never silent about why.
	verdict, err := parseVerdict([]byte(`{"accuracy": 0.8, "reasoning": "mostly consistent"}`), Rubric{})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, verdict.Accuracy, 1e-9)
	require.Len(t, verdict.Deviations, 1)
	assert.Equal(t, "output did not fully satisfy the expected behavior", verdict.Deviations[0])

	perfect, err := parseVerdict([]byte(`{"accuracy": 1.0}`), Rubric{})
	require.NoError(t, err)
	assert.Empty(t, perfect.Deviations)
}

func TestParseVerdict_Unparseable(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "the output looks fine to me"},
		{"accuracy out of range without claims", `{"accuracy": 7.5}`},
		{"negative accuracy without claims", `{"accuracy": -0.1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseVerdict([]byte(tt.data), Rubric{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnparseableVerdict))
		})
	}
}

func TestNewOpenAIJudge_RequiresKey(t *testing.T) {
	_, err := NewOpenAIJudge("")
	assert.Error(t, err)

	j, err := NewOpenAIJudge("test-key", WithModel("gpt-4o"))
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o", j.Name())
}

func TestBuildPrompt_ContainsBothSides(t *testing.T) {
	prompt := buildPrompt(Request{
		ExpectedBehavior: "eligible; allotment 602",
		ActualOutput:     "eligible: yes",
	})
	assert.Contains(t, prompt, "EXPECTED BEHAVIOR:\neligible; allotment 602")
	assert.Contains(t, prompt, "ACTUAL OUTPUT:\neligible: yes")
}
