// Package adapter provides the uniform interface for invoking a named
// benefits-determination subsystem with a test scenario and capturing its
// output in a comparable form.
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benefitsnav/maive/internal/domain"
)

const DefaultTimeout = 30 * time.Second

// ErrTimeout marks a subsystem call that exceeded its deadline. Kept
// distinct from SubsystemError so evaluations carry a distinguishing
// deviation message.
var ErrTimeout = errors.New("subsystem call timed out")

// SubsystemError is a failure reported by the system under test itself.
type SubsystemError struct {
	Status int
	Body   string
}

func (e *SubsystemError) Error() string {
	return fmt.Sprintf("subsystem returned status %d: %s", e.Status, e.Body)
}

// Invocation is one captured subsystem response. ActualOutput is the
// normalized, judge-comparable representation; Raw keeps the unmodified
// payload for audit.
type Invocation struct {
	ActualOutput string
	Raw          json.RawMessage
	LatencyMs    int64
}

type Adapter interface {
	SystemType() domain.SystemType
	Invoke(ctx context.Context, tc domain.TestCase) (*Invocation, error)
}

// Registry maps a systemType key to its adapter, so subsystem dispatch
// lives in one place instead of branching through the orchestrator.
type Registry struct {
	adapters map[domain.SystemType]Adapter
}

func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[domain.SystemType]Adapter, len(adapters))}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(a Adapter) error {
	st := a.SystemType()
	if _, exists := r.adapters[st]; exists {
		return fmt.Errorf("adapter for system type %q already registered", st)
	}
	r.adapters[st] = a
	return nil
}

func (r *Registry) Resolve(st domain.SystemType) (Adapter, error) {
	a, ok := r.adapters[st]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for system type %q", st)
	}
	return a, nil
}
