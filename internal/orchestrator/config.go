package orchestrator

import "github.com/benefitsnav/maive/internal/gate"

const (
	// DefaultMaxParallel bounds concurrent case evaluations to respect
	// rate limits on both the subsystem under test and the judge model.
	DefaultMaxParallel = 4
)

type Config struct {
	MaxParallel  int
	RunThreshold float64
}

func DefaultConfig() Config {
	return Config{
		MaxParallel:  DefaultMaxParallel,
		RunThreshold: gate.RunThreshold,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxParallel <= 0 {
		c.MaxParallel = DefaultMaxParallel
	}
	if c.RunThreshold <= 0 || c.RunThreshold > 1 {
		c.RunThreshold = gate.RunThreshold
	}
	return c
}
