package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benefitsnav/maive/internal/domain"
)

// GeminiExtractionAdapter invokes the document extraction model with a
// scenario's document text and captures the extracted fields.
type GeminiExtractionAdapter struct {
	client *subsystemClient
}

func NewGeminiExtractionAdapter(baseURL string, timeout time.Duration) (*GeminiExtractionAdapter, error) {
	client, err := newSubsystemClient(baseURL, timeout)
	if err != nil {
		return nil, fmt.Errorf("gemini extraction adapter: %w", err)
	}
	return &GeminiExtractionAdapter{client: client}, nil
}

func (a *GeminiExtractionAdapter) SystemType() domain.SystemType {
	return domain.SystemGeminiExtraction
}

type extractionRequest struct {
	Document string `json:"document"`
	Category string `json:"category"`
}

type extractionResponse struct {
	Fields     map[string]any `json:"fields"`
	Confidence float64        `json:"confidence,omitempty"`
}

func (a *GeminiExtractionAdapter) Invoke(ctx context.Context, tc domain.TestCase) (*Invocation, error) {
	raw, latencyMs, err := a.client.post(ctx, "/v1/extract", extractionRequest{
		Document: tc.Scenario,
		Category: string(tc.Category),
	})
	if err != nil {
		return nil, err
	}

	var resp extractionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}

	return &Invocation{
		ActualOutput: normalizeFields(resp.Fields),
		Raw:          raw,
		LatencyMs:    latencyMs,
	}, nil
}
