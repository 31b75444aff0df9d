package venom

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/venomqa/venomqa/emit"
)

// agentState is the Agent's own lifecycle, distinct from exploration state
// (spec.md §5).
type agentState int

const (
	agentInitial agentState = iota
	agentExploring
	agentStopped
)

// Agent coordinates one exploration run: it owns the Graph, drives the
// Strategy, executes Actions against the World, evaluates Invariants after
// every transition, and reports progress. Single-threaded (spec.md §5),
// grounded on the teacher's Engine.Run sequential loop with the
// concurrent/frontier dispatch removed — VenomQA explores one (state,
// action) pair at a time.
type Agent struct {
	world     *World
	actions   *ActionRegistry
	invariants *InvariantRegistry
	strategy  Strategy
	graph     *Graph
	opts      Options

	state agentState

	explorationID    string
	step             int
	violations       []Violation
	rootCheckpointID string
}

// NewAgent constructs an Agent, validating the strategy/adapter
// compatibility gate immediately (spec.md §4.5): this is a ConfigError, not
// a violation, because it can never be resolved by exploring further.
func NewAgent(world *World, actions *ActionRegistry, invariants *InvariantRegistry, strategy Strategy, opts ...Option) (*Agent, error) {
	resolved, err := resolveOptions(Options{}, opts...)
	if err != nil {
		return nil, err
	}

	if err := checkStrategyAdapterCompatibility(strategy, world.Adapters()); err != nil {
		return nil, err
	}
	if err := checkActionReferences(actions); err != nil {
		return nil, err
	}

	a := &Agent{
		world:      world,
		actions:    actions,
		invariants: invariants,
		strategy:   strategy,
		graph:      NewGraph(),
		opts:       resolved,
		state:      agentInitial,
	}
	return a, nil
}

// checkActionReferences validates every RequiresAction precondition names
// an action actually registered in actions, returning a ConfigError
// otherwise (spec.md §7): an unresolvable reference would otherwise
// silently make the referring action permanently invalid rather than
// failing fast at construction time.
func checkActionReferences(actions *ActionRegistry) error {
	for _, a := range actions.All() {
		for _, p := range a.Preconditions {
			if p.RequiresAction == "" {
				continue
			}
			if _, ok := actions.Lookup(p.RequiresAction); !ok {
				return &ConfigError{
					Message: "action " + a.Name + " has a precondition requiring unknown action " + p.RequiresAction,
					Code:    "UNKNOWN_ACTION_REFERENCE",
				}
			}
		}
	}
	return nil
}

// warnings emits the three startup advisories spec.md §4.4 calls for,
// once, at the start of Explore.
func (a *Agent) warnings() {
	if len(a.world.Adapters()) == 0 && a.world.projectionKeysEmpty() {
		a.emitWarning("no adapters registered and no context projection configured: every observed state will be identical")
	}
	if a.actions.Len() > 0 {
		anyPreconditions := false
		for _, act := range a.actions.All() {
			if len(act.Preconditions) > 0 {
				anyPreconditions = true
				break
			}
		}
		if !anyPreconditions {
			a.emitWarning("no action declares preconditions: every action is valid from every state")
		}
	}
	if a.invariants.Len() == 0 {
		a.emitWarning("no invariants registered: only action assertion failures can surface as violations")
	}
}

func (a *Agent) emitWarning(msg string) {
	a.opts.Emitter.Emit(emit.Event{
		ExplorationID: a.explorationID,
		Msg:           "warning",
		Meta:          map[string]interface{}{"detail": msg},
	})
}

// Explore runs the INITIAL -> EXPLORING -> STOPPED state machine (spec.md
// §4.4) to completion or until ctx is cancelled, the wall-clock budget
// elapses, or a stop condition fires, and returns the assembled
// ExplorationResult.
func (a *Agent) Explore(ctx context.Context) (ExplorationResult, error) {
	a.explorationID = uuid.NewString()
	startedAt := time.Now()
	var deadline <-chan time.Time
	if a.opts.WallClockBudget > 0 {
		timer := time.NewTimer(a.opts.WallClockBudget)
		defer timer.Stop()
		deadline = timer.C
	}

	a.warnings()

	if err := a.world.runSetupHook(); err != nil {
		return ExplorationResult{}, err
	}
	defer func() {
		if err := a.world.runTeardownHook(); err != nil {
			a.emitWarning("teardown hook failed: " + err.Error())
		}
	}()

	root, err := a.world.Observe()
	if err != nil {
		return ExplorationResult{}, err
	}
	rootCheckpointID, err := a.world.Checkpoint("initial")
	if err != nil {
		return ExplorationResult{}, err
	}
	root.CheckpointID = rootCheckpointID
	a.rootCheckpointID = rootCheckpointID
	root = a.graph.AddState(root)
	a.graph.SetInitialState(root)
	a.strategy.OnStateDiscovered(root)

	a.state = agentExploring

	for a.state == agentExploring {
		select {
		case <-ctx.Done():
			a.state = agentStopped
			continue
		case <-deadline:
			a.state = agentStopped
			continue
		default:
		}

		next, ok := a.strategy.pickNext(a.graph, a.actions, a.world.Context())
		if !ok {
			a.state = agentStopped
			continue
		}

		if err := a.returnToState(next.State); err != nil {
			return ExplorationResult{}, err
		}

		stop, err := a.runStep(next.State, next.Action)
		if err != nil {
			return ExplorationResult{}, err
		}
		if stop {
			a.state = agentStopped
		}
	}

	finishedAt := time.Now()
	unique, _ := reduceViolations(a.violations)

	result := ExplorationResult{
		Graph:            a.graph,
		Violations:       a.violations,
		UniqueViolations: unique,
		StatesVisited:    len(a.graph.States()),
		TransitionsTaken: len(a.graph.Transitions()),
		ActionsTotal:     a.actions.Len(),
		CoveragePercent:  a.graph.CoveragePercent(a.actions.Len()),
		DurationMs:       finishedAt.Sub(startedAt).Milliseconds(),
		StartedAt:        startedAt,
		FinishedAt:       finishedAt,
	}

	if a.opts.Shrink {
		result.UniqueViolations = a.shrinkAll(ctx, result.UniqueViolations)
	}

	return result, nil
}

// returnToState rolls the World back to target's checkpoint if the World is
// not already there (spec.md §4.4 step 2).
func (a *Agent) returnToState(target *State) error {
	if a.world.CurrentCheckpointID() == target.CheckpointID {
		return nil
	}
	return a.world.Rollback(target.CheckpointID)
}

// runStep executes one (state, action) pick: Act, Observe, dedupe into the
// graph, evaluate invariants, and report progress. It returns stop=true if
// a stop condition fires (spec.md §4.4 steps 3-8).
func (a *Agent) runStep(fromState *State, action Action) (stop bool, err error) {
	a.step++

	a.opts.Emitter.Emit(emit.StepEvent(a.explorationID, a.step, action.Name, "step_start", nil))

	result, actErr := a.world.Act(action)

	var assertionErr *ActionAssertionError
	if actErr != nil {
		if ae, ok := actErr.(*ActionAssertionError); ok {
			assertionErr = ae
		} else {
			return false, actErr
		}
	}

	postState, obsErr := a.world.Observe()
	if obsErr != nil {
		return false, obsErr
	}

	checkpointID, err := a.world.Checkpoint(action.Name)
	if err != nil {
		return false, err
	}
	postState.CheckpointID = checkpointID

	canonical := a.graph.AddState(postState)
	isNew := canonical == postState

	transition := Transition{
		ID:          uuid.NewString(),
		FromStateID: fromState.ID,
		ActionName:  action.Name,
		ToStateID:   canonical.ID,
		Result:      result,
		Timestamp:   time.Now(),
	}
	a.graph.AddTransition(transition)

	if isNew {
		canonical.ParentTransitionID = transition.ID
		a.strategy.OnStateDiscovered(canonical)
	}

	reproductionPath := a.graph.ReproductionPath(canonical.ID)

	var stepViolations []Violation
	if assertionErr != nil {
		stepViolations = append(stepViolations, assertionViolation(a.world, canonical, assertionErr, reproductionPath))
	}
	stepViolations = append(stepViolations, a.invariants.evaluate(a.world, canonical, action.Name, reproductionPath)...)

	for _, v := range stepViolations {
		a.violations = append(a.violations, v)
		a.opts.Emitter.Emit(emit.ViolationEvent(a.explorationID, a.step, action.Name, v.InvariantName, map[string]interface{}{
			"severity": v.Severity.String(),
		}))
		if a.opts.Metrics != nil {
			a.opts.Metrics.recordViolation(a.explorationID, v.Severity)
		}
	}

	a.opts.Emitter.Emit(emit.StepEvent(a.explorationID, a.step, action.Name, "step_end", map[string]interface{}{
		"duration_ms": result.DurationMs,
		"success":     result.Success,
	}))

	coverage := a.graph.CoveragePercent(a.actions.Len())
	if a.opts.Metrics != nil {
		a.opts.Metrics.recordStep(a.explorationID, len(a.graph.States()), 1, coverage)
	}
	if a.opts.ProgressEvery > 0 && a.step%a.opts.ProgressEvery == 0 {
		a.opts.Emitter.Emit(emit.ProgressEvent(a.explorationID, a.step, len(a.graph.States()), coverage, len(a.violations)))
	}

	if len(stepViolations) > 0 && a.opts.StopOnFirstViolation {
		return true, nil
	}
	if a.step >= a.opts.MaxSteps {
		return true, nil
	}
	if coverage >= a.opts.CoverageTarget {
		return true, nil
	}
	return false, nil
}
