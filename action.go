package venom

import (
	"net/http"
	"time"
)

// ActionResult is the outcome of one Action invocation. A transport failure
// is not an error return — it is represented here with Success=false and a
// populated ErrorMessage, so it becomes part of the observed state rather
// than aborting exploration (spec.md §4.9).
type ActionResult struct {
	Success      bool
	Request      *http.Request
	Response     *Response
	ErrorMessage string
	DurationMs   int64
	Timestamp    time.Time
}

// ActionFunc adapts a plain function to the action-execution contract,
// mirroring the teacher's NodeFunc adapter over Node.
type ActionFunc func(api APIClient, ctx *Context) (ActionResult, error)

// Execute satisfies the execution contract for ActionFunc.
func (f ActionFunc) Execute(api APIClient, ctx *Context) (ActionResult, error) {
	return f(api, ctx)
}

// Executor is the single-method contract an Action's body satisfies. Bodies
// may be concrete types, closures wrapped in ActionFunc, or generated
// stubs — the engine only ever calls Execute (spec.md §9, "dynamic action
// execution").
type Executor interface {
	Execute(api APIClient, ctx *Context) (ActionResult, error)
}

// Precondition is a tagged sum type: either an inline predicate over
// (State, Context), or a symbolic RequiresAction reference resolved against
// the graph's used-action-name set (spec.md §9, "callback-style
// preconditions"). Exactly one of Predicate or RequiresAction is set.
type Precondition struct {
	// Predicate, when non-nil, is evaluated directly against (state, ctx).
	Predicate func(state *State, ctx *Context) bool

	// RequiresAction, when non-empty, names another action that must already
	// appear in graph.used_action_names.
	RequiresAction string
}

// When builds an inline-predicate Precondition.
func When(pred func(state *State, ctx *Context) bool) Precondition {
	return Precondition{Predicate: pred}
}

// RequiresActionPrecondition builds a symbolic Precondition referencing
// another action's name.
func RequiresActionPrecondition(actionName string) Precondition {
	return Precondition{RequiresAction: actionName}
}

// satisfied evaluates one precondition against a candidate state, the
// current context, and the set of action names used so far in the graph.
func (p Precondition) satisfied(state *State, ctx *Context, usedActionNames map[string]struct{}) bool {
	if p.RequiresAction != "" {
		_, ok := usedActionNames[p.RequiresAction]
		return ok
	}
	if p.Predicate != nil {
		return p.Predicate(state, ctx)
	}
	return true
}

// Action is a declarative description of one API operation the engine may
// execute (spec.md §3). The zero value is not valid; construct with
// NewAction.
type Action struct {
	// Name uniquely identifies this action within a registry.
	Name string

	// Execute runs the action's HTTP operation against api, reading and
	// writing ctx as needed, and returns the ActionResult.
	Execute Executor

	// Preconditions must all be satisfied for this action to be considered
	// valid from a given (state, context) pair.
	Preconditions []Precondition

	// ExpectedStatus, when non-empty, is the set of HTTP status codes this
	// action considers successful. Execute bodies may use it to decide
	// whether to raise an ActionAssertionError.
	ExpectedStatus map[int]struct{}

	// Tags are free-form labels. The engine does not interpret them, and
	// neither ExplorationResult nor its JSON form carries them.
	Tags []string
}

// NewAction constructs an Action. ExpectedStatus is supplied as a variadic
// list of acceptable codes; omit it to accept any status.
func NewAction(name string, exec Executor, preconditions []Precondition, expectedStatus ...int) Action {
	a := Action{
		Name:          name,
		Execute:       exec,
		Preconditions: preconditions,
	}
	if len(expectedStatus) > 0 {
		a.ExpectedStatus = make(map[int]struct{}, len(expectedStatus))
		for _, s := range expectedStatus {
			a.ExpectedStatus[s] = struct{}{}
		}
	}
	return a
}

// validFor reports whether a is a valid candidate from state under ctx,
// given the graph's used-action-name set (spec.md §4.5, "valid-action
// filter"). It does not check explored_pairs — that is the caller's
// concern, since it requires the candidate action name too.
func (a Action) validFor(state *State, ctx *Context, usedActionNames map[string]struct{}) bool {
	for _, p := range a.Preconditions {
		if !p.satisfied(state, ctx, usedActionNames) {
			return false
		}
	}
	return true
}

// ActionRegistry holds a uniquely-named set of Actions, preserving
// registration order for deterministic iteration (strategies tie-break on
// action name, but registries are built once and read many times).
type ActionRegistry struct {
	order []string
	byName map[string]Action
}

// NewActionRegistry builds a registry from actions, returning a
// *ConfigError with Code "DUPLICATE_ACTION" if any two share a name.
func NewActionRegistry(actions []Action) (*ActionRegistry, error) {
	r := &ActionRegistry{
		order:  make([]string, 0, len(actions)),
		byName: make(map[string]Action, len(actions)),
	}
	for _, a := range actions {
		if _, exists := r.byName[a.Name]; exists {
			return nil, &ConfigError{
				Message: "duplicate action name: " + a.Name,
				Code:    "DUPLICATE_ACTION",
			}
		}
		r.byName[a.Name] = a
		r.order = append(r.order, a.Name)
	}
	return r, nil
}

// All returns every registered action in registration order.
func (r *ActionRegistry) All() []Action {
	out := make([]Action, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns every registered action name in registration order.
func (r *ActionRegistry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the action registered under name, if any.
func (r *ActionRegistry) Lookup(name string) (Action, bool) {
	a, ok := r.byName[name]
	return a, ok
}

// Len returns the number of registered actions.
func (r *ActionRegistry) Len() int {
	return len(r.order)
}

// ValidActions returns, in registration order, every action that is valid
// from state under ctx and not yet explored for (state.ID, action.Name).
func (r *ActionRegistry) ValidActions(state *State, ctx *Context, usedActionNames map[string]struct{}, exploredPairs map[pairKey]struct{}) []Action {
	out := make([]Action, 0, len(r.order))
	for _, name := range r.order {
		a := r.byName[name]
		if !a.validFor(state, ctx, usedActionNames) {
			continue
		}
		if _, done := exploredPairs[pairKey{StateID: state.ID, ActionName: a.Name}]; done {
			continue
		}
		out = append(out, a)
	}
	return out
}

// pairKey identifies one (state, action) exploration pair.
type pairKey struct {
	StateID    string
	ActionName string
}
