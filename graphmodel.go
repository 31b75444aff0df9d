package venom

import "sort"

// Graph is the explored portion of the state space: states, transitions,
// the explored-pairs index, and the set of action names used at least once
// (spec.md §3). Only the Agent appends to a Graph (spec.md §5).
type Graph struct {
	states          map[string]*State
	transitions     []Transition
	exploredPairs   map[pairKey]struct{}
	usedActionNames map[string]struct{}
	initialStateID  string
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		states:          make(map[string]*State),
		exploredPairs:   make(map[pairKey]struct{}),
		usedActionNames: make(map[string]struct{}),
	}
}

// SetInitialState registers state as the graph's root, if one has not
// already been set. Returns ErrNoInitialState's complement implicitly by
// just recording it; callers check InitialStateID() before relying on it.
func (g *Graph) SetInitialState(state *State) {
	g.states[state.ID] = state
	if g.initialStateID == "" {
		g.initialStateID = state.ID
	}
}

// InitialStateID returns the root state's id, or "" if none has been set.
func (g *Graph) InitialStateID() string {
	return g.initialStateID
}

// AddState registers state if its id is not already known, and returns the
// canonical *State for that id either way — this is the fingerprint
// deduplication point (spec.md §3, "a duplicate observation resolves to an
// existing State via fingerprint").
func (g *Graph) AddState(state *State) *State {
	if existing, ok := g.states[state.ID]; ok {
		return existing
	}
	g.states[state.ID] = state
	return state
}

// State looks up a state by id.
func (g *Graph) State(id string) (*State, bool) {
	s, ok := g.states[id]
	return s, ok
}

// States returns every known state, unordered.
func (g *Graph) States() map[string]*State {
	return g.states
}

// AddTransition appends t, marks (t.FromStateID, t.ActionName) explored, and
// records t.ActionName as used.
func (g *Graph) AddTransition(t Transition) {
	g.transitions = append(g.transitions, t)
	g.exploredPairs[pairKey{StateID: t.FromStateID, ActionName: t.ActionName}] = struct{}{}
	g.usedActionNames[t.ActionName] = struct{}{}
}

// Transitions returns every transition in execution order.
func (g *Graph) Transitions() []Transition {
	return g.transitions
}

// TransitionByID looks up a transition by id.
func (g *Graph) TransitionByID(id string) (Transition, bool) {
	for _, t := range g.transitions {
		if t.ID == id {
			return t, true
		}
	}
	return Transition{}, false
}

// ExploredPairs exposes the set of (state_id, action_name) pairs already
// explored, for strategies and the valid-action filter.
func (g *Graph) ExploredPairs() map[pairKey]struct{} {
	return g.exploredPairs
}

// IsExplored reports whether (stateID, actionName) has already been tried.
func (g *Graph) IsExplored(stateID, actionName string) bool {
	_, ok := g.exploredPairs[pairKey{StateID: stateID, ActionName: actionName}]
	return ok
}

// UsedActionNames exposes the set of action names executed at least once.
func (g *Graph) UsedActionNames() map[string]struct{} {
	return g.usedActionNames
}

// CoveragePercent computes used action names as a fraction of actionsTotal,
// in [0, 1]. Returns 0 if actionsTotal is 0.
func (g *Graph) CoveragePercent(actionsTotal int) float64 {
	if actionsTotal == 0 {
		return 0
	}
	return float64(len(g.usedActionNames)) / float64(actionsTotal)
}

// ReproductionPath walks parent_transition_id links backward from the
// transition ending at toStateID, then reverses, producing the ordered
// sequence of transitions from the initial state to toStateID (spec.md
// §4.6). It returns an empty slice if toStateID is the initial state.
func (g *Graph) ReproductionPath(toStateID string) []Transition {
	state, ok := g.states[toStateID]
	if !ok || state.ParentTransitionID == "" {
		return nil
	}

	var reversed []Transition
	transitionID := state.ParentTransitionID
	for transitionID != "" {
		t, ok := g.TransitionByID(transitionID)
		if !ok {
			break
		}
		reversed = append(reversed, t)

		fromState, ok := g.states[t.FromStateID]
		if !ok || fromState.ParentTransitionID == "" {
			break
		}
		transitionID = fromState.ParentTransitionID
	}

	path := make([]Transition, len(reversed))
	for i, t := range reversed {
		path[len(reversed)-1-i] = t
	}
	return path
}

// sortedActionNames returns names sorted lexicographically, used by
// strategies for deterministic tie-breaking (spec.md §4.5).
func sortedActionNames(names map[string]struct{}) []string {
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
