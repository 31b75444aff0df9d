package venom

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Severity classifies how serious a Violation is.
type Severity int

const (
	LOW Severity = iota
	MEDIUM
	HIGH
	CRITICAL
)

func (s Severity) String() string {
	switch s {
	case CRITICAL:
		return "CRITICAL"
	case HIGH:
		return "HIGH"
	case MEDIUM:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// Invariant is a property that must hold after every transition (spec.md
// §3). Check receives the World so it can inspect the last ActionResult,
// adapter-backed state, and context together.
type Invariant struct {
	Name     string
	Check    func(world *World) bool
	Message  string
	Severity Severity
}

// Violation records one invariant failure, carrying the ordered transitions
// needed to reproduce it (spec.md §3).
type Violation struct {
	ID                   string
	InvariantName        string
	StateID              string
	TriggeringActionName string
	ActionResult         ActionResult
	ReproductionPath     []Transition
	Severity             Severity
	Message              string
	DetectedAt           time.Time

	// StepsEliminated is set by the Shrinker after a successful reduction
	// (spec.md §4.7); zero until then.
	StepsEliminated int
}

// InvariantRegistry holds a uniquely-named set of Invariants, evaluated in
// registration order (spec.md §4.6: "no short-circuit").
type InvariantRegistry struct {
	order []string
	byName map[string]Invariant
}

// NewInvariantRegistry builds a registry from invariants, returning a
// *ConfigError with Code "DUPLICATE_INVARIANT" if any two share a name.
func NewInvariantRegistry(invariants []Invariant) (*InvariantRegistry, error) {
	r := &InvariantRegistry{
		order:  make([]string, 0, len(invariants)),
		byName: make(map[string]Invariant, len(invariants)),
	}
	for _, inv := range invariants {
		if _, exists := r.byName[inv.Name]; exists {
			return nil, &ConfigError{
				Message: "duplicate invariant name: " + inv.Name,
				Code:    "DUPLICATE_INVARIANT",
			}
		}
		r.byName[inv.Name] = inv
		r.order = append(r.order, inv.Name)
	}
	return r, nil
}

// All returns every registered invariant in registration order.
func (r *InvariantRegistry) All() []Invariant {
	out := make([]Invariant, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered invariants.
func (r *InvariantRegistry) Len() int {
	return len(r.order)
}

// evaluate runs every registered invariant against world after a
// transition into postState, produced by triggeringAction, and returns a
// Violation for each one that fails (spec.md §4.6). An invariant whose
// Check panics is itself converted into a violation rather than propagated,
// grounded on the teacher's defer/recover guard around concurrent node
// execution in engine.go.
func (r *InvariantRegistry) evaluate(world *World, postState *State, triggeringAction string, reproductionPath []Transition) []Violation {
	var violations []Violation

	for _, name := range r.order {
		inv := r.byName[name]
		if ok, panicMsg := runGuarded(inv, world); !ok {
			message := inv.Message
			if panicMsg != "" {
				message = panicMsg
			}
			violations = append(violations, Violation{
				ID:                   uuid.NewString(),
				InvariantName:        inv.Name,
				StateID:              postState.ID,
				TriggeringActionName: triggeringAction,
				ActionResult:         world.LastActionResult(),
				ReproductionPath:     reproductionPath,
				Severity:             inv.Severity,
				Message:              message,
				DetectedAt:           time.Now(),
			})
		}
	}

	return violations
}

// runGuarded invokes inv.Check inside a recover guard. It returns
// (true, "") when the check passed, (false, "") when it returned false
// cleanly, and (false, panicMessage) when it panicked — the panic message
// becomes the violation's Message, stringified (spec.md §4.6).
func runGuarded(inv Invariant, world *World) (passed bool, panicMsg string) {
	defer func() {
		if r := recover(); r != nil {
			passed = false
			panicMsg = fmt.Sprintf("%v", r)
		}
	}()
	return inv.Check(world), ""
}

// assertionViolation builds the "_action_assertion" violation spec.md §4.6
// requires when an action body raises an *ActionAssertionError.
func assertionViolation(world *World, postState *State, assertionErr *ActionAssertionError, reproductionPath []Transition) Violation {
	return Violation{
		ID:                   uuid.NewString(),
		InvariantName:        "_action_assertion",
		StateID:              postState.ID,
		TriggeringActionName: assertionErr.ActionName,
		ActionResult:         world.LastActionResult(),
		ReproductionPath:     reproductionPath,
		Severity:             HIGH,
		Message:              assertionErr.Message,
		DetectedAt:           time.Now(),
	}
}
