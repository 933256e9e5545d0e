package judge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultModel = "gpt-4o-mini"

	systemPrompt = "You are a strict evaluator for a benefits-determination QA harness. " +
		"You compare a system's actual output against known-correct expected behavior " +
		"and respond only with the requested JSON object."
)

var ErrUnparseableVerdict = errors.New("judge returned an unparseable verdict")

// OpenAIJudge scores pairs with a chat-completion model at temperature 0.
type OpenAIJudge struct {
	client *openai.Client
	model  string
}

type OpenAIOption func(*OpenAIJudge)

func WithModel(model string) OpenAIOption {
	return func(j *OpenAIJudge) {
		j.model = model
	}
}

func NewOpenAIJudge(apiKey string, opts ...OpenAIOption) (*OpenAIJudge, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("judge API key is not set")
	}
	j := &OpenAIJudge{
		client: openai.NewClient(apiKey),
		model:  defaultModel,
	}
	for _, opt := range opts {
		opt(j)
	}
	slog.Info("Initialized LLM judge", "model", j.model)
	return j, nil
}

func (j *OpenAIJudge) Name() string {
	return "openai/" + j.model
}

func (j *OpenAIJudge) Evaluate(ctx context.Context, req Request) (*Verdict, error) {
	resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       j.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("judge call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("judge returned no choices")
	}

	verdict, err := parseVerdict([]byte(resp.Choices[0].Message.Content), req.Rubric)
	if err != nil {
		return nil, err
	}
	verdict.Judgment = j.Name()
	return verdict, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Evaluate the actual output against the expected behavior.\n\n")
	b.WriteString("Steps:\n")
	b.WriteString("1. Identify each discrete claim or computed value in the expected behavior.\n")
	b.WriteString("2. For each claim, decide whether the actual output satisfies it.\n")
	b.WriteString("3. Mark a claim critical only if getting it wrong would change a benefits decision.\n")
	b.WriteString("4. For every unsatisfied claim, give a one-line explanation of the discrepancy.\n\n")
	b.WriteString("Respond with a JSON object of this exact shape:\n")
	b.WriteString(`{"claims": [{"claim": "...", "satisfied": true, "critical": false, "explanation": "..."}], "accuracy": 0.0, "reasoning": "..."}`)
	b.WriteString("\n\nEXPECTED BEHAVIOR:\n")
	b.WriteString(req.ExpectedBehavior)
	b.WriteString("\n\nACTUAL OUTPUT:\n")
	b.WriteString(req.ActualOutput)
	return b.String()
}

type verdictPayload struct {
	Claims []struct {
		Claim       string `json:"claim"`
		Satisfied   bool   `json:"satisfied"`
		Critical    bool   `json:"critical"`
		Explanation string `json:"explanation"`
	} `json:"claims"`
	Accuracy  float64 `json:"accuracy"`
	Reasoning string  `json:"reasoning"`
}

// parseVerdict decodes the model's response. When a claim list is present
// the accuracy is re-derived from it under the rubric's weighting, so a
// model that mis-reports its own scalar cannot skew the score.
func parseVerdict(data []byte, rubric Rubric) (*Verdict, error) {
	var payload verdictPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableVerdict, err)
	}

	verdict := &Verdict{Reasoning: payload.Reasoning}

	if len(payload.Claims) == 0 {
		if payload.Accuracy < 0 || payload.Accuracy > 1 {
			return nil, fmt.Errorf("%w: no claims and accuracy %v outside [0,1]", ErrUnparseableVerdict, payload.Accuracy)
		}
		verdict.Accuracy = payload.Accuracy
		// A claimless score below 1.0 still has to explain itself.
		if payload.Accuracy < 1 {
			verdict.Deviations = []string{"output did not fully satisfy the expected behavior"}
		}
		return verdict, nil
	}

	criticalWeight := rubric.criticalWeight()
	var satisfied, total float64
	for _, claim := range payload.Claims {
		weight := 1.0
		if claim.Critical {
			weight = criticalWeight
		}
		total += weight
		if claim.Satisfied {
			satisfied += weight
			continue
		}
		deviation := claim.Claim
		if claim.Explanation != "" {
			deviation += ": " + claim.Explanation
		}
		verdict.Deviations = append(verdict.Deviations, deviation)
	}

	verdict.Accuracy = satisfied / total
	return verdict, nil
}
