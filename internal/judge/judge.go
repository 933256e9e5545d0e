// Package judge scores a subsystem's actual output against a test case's
// expected behavior. The judge is a pluggable strategy: one implementation
// calls an external scoring model, a deterministic one backs the harness's
// own test suite so orchestration can be verified without live model
// variance.
package judge

import "context"

// Request carries one (expected, actual) pair to score. Pass/fail is not
// the judge's concern; callers derive it from the returned accuracy.
type Request struct {
	ExpectedBehavior string
	ActualOutput     string
	Rubric           Rubric
}

// Rubric configures claim weighting. The default weight of 1.0 scores every
// claim equally; raising CriticalWeight makes claims the judge marks
// critical count proportionally more.
type Rubric struct {
	CriticalWeight float64
}

func (r Rubric) criticalWeight() float64 {
	if r.CriticalWeight <= 0 {
		return 1.0
	}
	return r.CriticalWeight
}

// Verdict is the structured outcome of one judgment. Judgment identifies
// the scoring model so accuracy drift can be attributed to judge changes
// rather than subsystem regressions.
type Verdict struct {
	Accuracy   float64
	Reasoning  string
	Deviations []string
	Judgment   string
}

type Judge interface {
	// Name is the stable judge identity recorded on evaluations.
	Name() string
	// Evaluate scores the pair. A returned error means the judgment could
	// not be completed; callers must convert it into a zero-accuracy
	// evaluation, never a pass.
	Evaluate(ctx context.Context, req Request) (*Verdict, error)
}
