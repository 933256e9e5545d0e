package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benefitsnav/maive/internal/domain"
)

// PolicyEngineAdapter invokes the benefits rules engine with a scenario and
// captures its determination.
type PolicyEngineAdapter struct {
	client *subsystemClient
}

func NewPolicyEngineAdapter(baseURL string, timeout time.Duration) (*PolicyEngineAdapter, error) {
	client, err := newSubsystemClient(baseURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("policy engine adapter: %w", err)
	}
	return &PolicyEngineAdapter{client: client}, nil
}

func (a *PolicyEngineAdapter) SystemType() domain.SystemType {
	return domain.SystemPolicyEngine
}

type determinationRequest struct {
	Scenario     string `json:"scenario"`
	Category     string `json:"category"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
}

type determinationResponse struct {
	Eligible      *bool          `json:"eligible,omitempty"`
	BenefitAmount *float64       `json:"benefit_amount,omitempty"`
	Explanation   string         `json:"explanation,omitempty"`
	Factors       map[string]any `json:"factors,omitempty"`
}

func (a *PolicyEngineAdapter) Invoke(ctx context.Context, tc domain.TestCase) (*Invocation, error) {
	raw, latencyMs, err := a.client.post(ctx, "/v1/determinations", determinationRequest{
		Scenario:     tc.Scenario,
		Category:     string(tc.Category),
		Jurisdiction: tc.Jurisdiction,
	})
	if err != nil {
		return nil, err
	}

	var resp determinationResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode determination: %w", err)
	}

	fields := map[string]any{}
	if resp.Eligible != nil {
		fields["eligible"] = *resp.Eligible
	}
	if resp.BenefitAmount != nil {
		fields["benefit_amount"] = *resp.BenefitAmount
	}
	if resp.Explanation != "" {
		fields["explanation"] = resp.Explanation
	}
	for k, v := range resp.Factors {
		fields["factor."+k] = v
	}

	return &Invocation{
		ActualOutput: normalizeFields(fields),
		Raw:          raw,
		LatencyMs:    latencyMs,
	}, nil
}
