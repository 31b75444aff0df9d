package venom

import (
	"context"
	"time"
)

// shrinkAll reduces every unique violation's reproduction path to a
// 1-minimal subsequence, by replaying candidate subsequences against the
// World from its root checkpoint (spec.md §4.7). Replay is necessarily
// live: an adapter's real rollback/observe behavior, not a pure function of
// the transition list, is what tells the shrinker whether a shorter
// sequence still reproduces the failure.
func (a *Agent) shrinkAll(ctx context.Context, violations []Violation) []Violation {
	out := make([]Violation, len(violations))
	for i, v := range violations {
		out[i] = a.shrinkOne(ctx, v)
	}
	return out
}

// shrinkOne runs the halving scheme (ddmin): starting with chunks half the
// path length, repeatedly try removing a chunk; keep the removal whenever
// the reduced sequence still reproduces the same invariant failure; once a
// full pass removes nothing, halve the chunk size. This continues down to
// chunk size 1, which is when the result is 1-minimal (spec.md §4.7).
func (a *Agent) shrinkOne(ctx context.Context, v Violation) Violation {
	original := make([]string, len(v.ReproductionPath))
	for i, t := range v.ReproductionPath {
		original[i] = t.ActionName
	}
	if len(original) == 0 {
		return v
	}

	names := original
	chunkSize := len(names) / 2

	for chunkSize >= 1 {
		if deadlineExceeded(ctx) {
			break
		}

		reducedThisPass := false
		i := 0
		for i < len(names) {
			end := i + chunkSize
			if end > len(names) {
				end = len(names)
			}
			candidate := make([]string, 0, len(names)-(end-i))
			candidate = append(candidate, names[:i]...)
			candidate = append(candidate, names[end:]...)

			if len(candidate) == 0 {
				i += chunkSize
				continue
			}

			if _, ok := a.reproduces(candidate, v); ok {
				names = candidate
				reducedThisPass = true
				continue
			}
			i += chunkSize
		}

		if !reducedThisPass {
			chunkSize /= 2
		}
	}

	transitions, ok := a.reproduces(names, v)
	if !ok {
		// The minimized candidate stopped reproducing (a flaky adapter, or an
		// invariant sensitive to timing); fall back to the original path
		// rather than report a reproduction that does not actually reproduce.
		return v
	}

	reduced := v
	reduced.ReproductionPath = transitions
	reduced.StepsEliminated = len(original) - len(names)
	return reduced
}

func deadlineExceeded(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// reproduces replays actionNames in order from the World's root checkpoint
// and reports whether the replay still produces a failure of v's invariant
// (or, for an action-assertion violation, the same assertion from the same
// action). It returns the concrete Transitions produced by the replay so a
// successful reduction can be reported with real request/response payloads.
func (a *Agent) reproduces(actionNames []string, v Violation) ([]Transition, bool) {
	if err := a.world.Rollback(a.rootCheckpointID); err != nil {
		return nil, false
	}

	transitions := make([]Transition, 0, len(actionNames))
	var lastAssertion *ActionAssertionError

	for _, name := range actionNames {
		action, ok := a.actions.Lookup(name)
		if !ok {
			return nil, false
		}

		fromState, err := a.world.Observe()
		if err != nil {
			return nil, false
		}

		result, actErr := a.world.Act(action)
		lastAssertion = nil
		if actErr != nil {
			if ae, ok := actErr.(*ActionAssertionError); ok {
				lastAssertion = ae
			} else {
				return nil, false
			}
		}

		toState, err := a.world.Observe()
		if err != nil {
			return nil, false
		}
		checkpointID, err := a.world.Checkpoint(name)
		if err != nil {
			return nil, false
		}
		toState.CheckpointID = checkpointID

		transitions = append(transitions, Transition{
			FromStateID: fromState.ID,
			ActionName:  name,
			ToStateID:   toState.ID,
			Result:      result,
			Timestamp:   time.Now(),
		})
	}

	// A reduced sequence only counts as reproducing v when it fires the same
	// invariant at the same terminal state id (spec.md §4.7 step 4) — a
	// deletion that happens to trip the invariant again, but at a different
	// end state, is a different failure, not a smaller repro of this one.
	sameEndState := transitions[len(transitions)-1].ToStateID == v.StateID

	if v.InvariantName == "_action_assertion" {
		fired := lastAssertion != nil && lastAssertion.ActionName == v.TriggeringActionName
		return transitions, fired && sameEndState
	}

	inv, ok := a.invariants.byName[v.InvariantName]
	if !ok {
		return nil, false
	}
	passed, _ := runGuarded(inv, a.world)
	return transitions, !passed && sameEndState && inv.Severity == v.Severity
}
