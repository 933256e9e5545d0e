// Package gate centralizes the production-readiness threshold policy so it
// is never recomputed ad hoc by consumers.
package gate

type Classification string

const (
	ProductionReady  Classification = "production_ready"
	NeedsImprovement Classification = "needs_improvement"
	BelowThreshold   Classification = "below_threshold"
)

const (
	// RunThreshold is the default run-level pass bar.
	RunThreshold = 0.95

	productionReadyFloor  = 0.95
	needsImprovementFloor = 0.90
)

// Classify maps an aggregate accuracy to a readiness band. Boundary values
// are inclusive on the higher band.
func Classify(accuracy float64) Classification {
	switch {
	case accuracy >= productionReadyFloor:
		return ProductionReady
	case accuracy >= needsImprovementFloor:
		return NeedsImprovement
	default:
		return BelowThreshold
	}
}

func (c Classification) Label() string {
	return string(c)
}
