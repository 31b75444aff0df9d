// Package venom implements the VenomQA autonomous API exploration engine:
// a state-graph builder, action-selection strategies, a checkpoint/rollback
// protocol over heterogeneous adapters, an invariant evaluator, and a
// violation shrinker, coordinated by an Agent exploration loop.
package venom

import "errors"

// ErrExhausted describes the state in which no unexplored valid (state,
// action) pair remains. Strategies report that state with ok=false from
// pickNext rather than with this error, and the Agent treats it as a clean
// stop condition; no function in this package returns ErrExhausted.
var ErrExhausted = errors.New("venom: no unexplored valid action pairs remain")

// ErrNoInitialState describes a graph that has no root state yet. No
// function in this package returns it: Graph.ReproductionPath returns an
// empty path for an unknown state, and Graph.InitialStateID returns "".
var ErrNoInitialState = errors.New("venom: graph has no initial state")

// ErrUnknownCheckpoint is returned by World.Rollback when the checkpoint id
// does not exist on the checkpoint stack.
var ErrUnknownCheckpoint = errors.New("venom: unknown checkpoint id")

// ErrDuplicateAction names the case of two actions sharing a name.
// NewActionRegistry reports that case as a *ConfigError with Code
// "DUPLICATE_ACTION" and does not return this value.
var ErrDuplicateAction = errors.New("venom: duplicate action name")

// ErrDuplicateInvariant names the case of two invariants sharing a name.
// NewInvariantRegistry reports that case as a *ConfigError with Code
// "DUPLICATE_INVARIANT" and does not return this value.
var ErrDuplicateInvariant = errors.New("venom: duplicate invariant name")

// ConfigError reports a fatal misconfiguration discovered at Agent or
// registry construction time: strategy/adapter incompatibility, an unknown action
// referenced by a string-form precondition, or duplicate names. Configuration
// errors are always fatal — they never degrade into a recorded violation.
type ConfigError struct {
	// Message is the human-readable description of the misconfiguration.
	Message string

	// Code is a machine-readable category, e.g. "STRATEGY_ADAPTER_MISMATCH",
	// "UNKNOWN_ACTION_REFERENCE", "DUPLICATE_ACTION".
	Code string

	// Remedies lists actionable fixes the operator can apply, when known.
	// Populated for the strategy/adapter compatibility gate (spec.md §4.5).
	Remedies []string
}

func (e *ConfigError) Error() string {
	msg := "venom: configuration error: " + e.Message
	for _, r := range e.Remedies {
		msg += "\n  - " + r
	}
	return msg
}

// AdapterError reports a fatal failure from a Rollbackable adapter's
// checkpoint, rollback, or observe operation. Per spec.md §4.9, adapter
// errors are always fatal — they stop the exploration rather than becoming
// a recorded violation, because a broken rollback leaves the World in an
// unknown state that cannot be trusted for further exploration.
type AdapterError struct {
	// System is the adapter's registered name.
	System string

	// Op is the operation that failed: "observe", "checkpoint", or "rollback".
	Op string

	// Cause is the underlying error returned by the adapter.
	Cause error
}

func (e *AdapterError) Error() string {
	return "venom: adapter " + e.System + "." + e.Op + " failed: " + e.Cause.Error()
}

func (e *AdapterError) Unwrap() error { return e.Cause }

// ActionAssertionError is raised by an action body to signal that the
// target API's response violated the action's own expectations (e.g. an
// unexpected status code). The invariant evaluator converts it into a
// violation with invariant_name="_action_assertion" rather than treating it
// as fatal (spec.md §4.6, §9).
type ActionAssertionError struct {
	// ActionName is the action whose body raised this assertion.
	ActionName string

	// Message describes what was expected versus what was observed.
	Message string
}

func (e *ActionAssertionError) Error() string {
	return "venom: action " + e.ActionName + " assertion failed: " + e.Message
}
