package judge

import (
	"context"
	"fmt"
	"strings"
)

// KeywordJudge is the deterministic fallback strategy: it splits the
// expected behavior into claims and checks token overlap against the actual
// output. It exists so the harness itself can be exercised without live
// model variance; it is not a substitute for the LLM judge in production.
type KeywordJudge struct{}

func NewKeywordJudge() *KeywordJudge {
	return &KeywordJudge{}
}

func (j *KeywordJudge) Name() string {
	return "keyword/v1"
}

func (j *KeywordJudge) Evaluate(ctx context.Context, req Request) (*Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	claims := splitClaims(req.ExpectedBehavior)
	if len(claims) == 0 {
		return &Verdict{
			Accuracy:   0,
			Reasoning:  "expected behavior contains no checkable claims",
			Deviations: []string{"expected behavior is empty"},
			Judgment:   j.Name(),
		}, nil
	}

	actualTokens := tokenSet(req.ActualOutput)

	verdict := &Verdict{Judgment: j.Name()}
	var satisfied int
	for _, claim := range claims {
		if claimSatisfied(claim, actualTokens) {
			satisfied++
			continue
		}
		verdict.Deviations = append(verdict.Deviations, "claim not satisfied: "+claim)
	}

	verdict.Accuracy = float64(satisfied) / float64(len(claims))
	verdict.Reasoning = fmt.Sprintf("keyword match: %d of %d claims satisfied", satisfied, len(claims))
	return verdict, nil
}

// splitClaims treats sentence and semicolon boundaries in the expected
// behavior as claim boundaries.
func splitClaims(expected string) []string {
	raw := strings.FieldsFunc(expected, func(r rune) bool {
		return r == ';' || r == '\n' || r == '.'
	})
	var claims []string
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c != "" {
			claims = append(claims, c)
		}
	}
	return claims
}

func claimSatisfied(claim string, actual map[string]bool) bool {
	tokens := significantTokens(claim)
	if len(tokens) == 0 {
		return true
	}
	for _, tok := range tokens {
		if !actual[tok] {
			return false
		}
	}
	return true
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range significantTokens(s) {
		set[tok] = true
	}
	return set
}

func significantTokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '_'
	})
	var out []string
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}
