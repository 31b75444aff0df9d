package venom

import "math/rand"

// pick is the result of a Strategy selecting a (state, action) pair.
type pick struct {
	State  *State
	Action Action
}

// Strategy selects the next (state, action) pair to execute (spec.md §4.5,
// §9 "strategy as behavior object": a value carrying its own state plus one
// pick operation). Grounded on the teacher's Predicate[S]-as-value pattern
// in edge.go, generalized from edge evaluation to action selection.
type Strategy interface {
	// Name identifies the strategy for error messages and the compatibility
	// gate.
	Name() string

	// RequiresIndependentNesting reports whether this strategy may return to
	// a state out of checkpoint-creation order, which only independent-
	// nesting adapters tolerate (spec.md §4.5).
	RequiresIndependentNesting() bool

	// OnStateDiscovered is called once, the first time the Agent observes a
	// new state, so BFS/DFS can enqueue it.
	OnStateDiscovered(state *State)

	// pickNext selects the next (state, action) pair from graph, given registry
	// and the current context, or reports ok=false when exhausted.
	pickNext(graph *Graph, registry *ActionRegistry, ctx *Context) (pick, bool)
}

// leastAction returns the lexicographically-least action among valid, the
// shared deterministic tie-break (spec.md §4.5).
func leastAction(valid []Action) Action {
	least := valid[0]
	for _, a := range valid[1:] {
		if a.Name < least.Name {
			least = a
		}
	}
	return least
}

// validActionsFrom filters registry's actions down to those valid from
// state under ctx and not yet explored, per the shared valid-action filter
// (spec.md §4.5).
func validActionsFrom(state *State, registry *ActionRegistry, ctx *Context, graph *Graph) []Action {
	return registry.ValidActions(state, ctx, graph.UsedActionNames(), graph.ExploredPairs())
}

// BFSStrategy explores the earliest-discovered state with unexplored valid
// actions first. Requires independent-nesting adapters (spec.md §4.5).
type BFSStrategy struct {
	queue      []string
	discovered map[string]struct{}
	states     map[string]*State
}

// NewBFSStrategy returns an empty BFSStrategy.
func NewBFSStrategy() *BFSStrategy {
	return &BFSStrategy{discovered: make(map[string]struct{}), states: make(map[string]*State)}
}

func (s *BFSStrategy) Name() string                     { return "BFS" }
func (s *BFSStrategy) RequiresIndependentNesting() bool { return true }

func (s *BFSStrategy) OnStateDiscovered(state *State) {
	if _, ok := s.discovered[state.ID]; ok {
		return
	}
	s.discovered[state.ID] = struct{}{}
	s.states[state.ID] = state
	s.queue = append(s.queue, state.ID)
}

func (s *BFSStrategy) pickNext(graph *Graph, registry *ActionRegistry, ctx *Context) (pick, bool) {
	for _, id := range s.queue {
		state := s.states[id]
		valid := validActionsFrom(state, registry, ctx, graph)
		if len(valid) == 0 {
			continue
		}
		return pick{State: state, Action: leastAction(valid)}, true
	}
	return pick{}, false
}

// DFSStrategy prefers the most recently discovered state with unexplored
// valid actions. Compatible with stack-nested adapters (spec.md §4.5).
type DFSStrategy struct {
	stack      []string
	discovered map[string]struct{}
	states     map[string]*State
}

// NewDFSStrategy returns an empty DFSStrategy.
func NewDFSStrategy() *DFSStrategy {
	return &DFSStrategy{discovered: make(map[string]struct{}), states: make(map[string]*State)}
}

func (s *DFSStrategy) Name() string                     { return "DFS" }
func (s *DFSStrategy) RequiresIndependentNesting() bool { return false }

func (s *DFSStrategy) OnStateDiscovered(state *State) {
	if _, ok := s.discovered[state.ID]; ok {
		return
	}
	s.discovered[state.ID] = struct{}{}
	s.states[state.ID] = state
	s.stack = append(s.stack, state.ID)
}

func (s *DFSStrategy) pickNext(graph *Graph, registry *ActionRegistry, ctx *Context) (pick, bool) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		state := s.states[s.stack[i]]
		valid := validActionsFrom(state, registry, ctx, graph)
		if len(valid) == 0 {
			continue
		}
		return pick{State: state, Action: leastAction(valid)}, true
	}
	return pick{}, false
}

// RandomStrategy picks uniformly from all unexplored (state, action) pairs,
// using a seedable RNG so runs are reproducible given the same seed
// (spec.md §4.5, §8 "determinism under fixed seed"). Requires independent-
// nesting adapters.
type RandomStrategy struct {
	rng        *rand.Rand
	discovered map[string]struct{}
	states     []*State
}

// NewRandomStrategy returns a RandomStrategy whose RNG is seeded directly
// with seed, so two strategies built with the same seed pick the same
// sequence over the same graph.
func NewRandomStrategy(seed int64) *RandomStrategy {
	return &RandomStrategy{
		rng:        rand.New(rand.NewSource(seed)),
		discovered: make(map[string]struct{}),
	}
}

func (s *RandomStrategy) Name() string                     { return "Random" }
func (s *RandomStrategy) RequiresIndependentNesting() bool { return true }

func (s *RandomStrategy) OnStateDiscovered(state *State) {
	if _, ok := s.discovered[state.ID]; ok {
		return
	}
	s.discovered[state.ID] = struct{}{}
	s.states = append(s.states, state)
}

func (s *RandomStrategy) pickNext(graph *Graph, registry *ActionRegistry, ctx *Context) (pick, bool) {
	type candidate struct {
		state  *State
		action Action
	}
	var candidates []candidate
	for _, state := range s.states {
		valid := validActionsFrom(state, registry, ctx, graph)
		for _, a := range valid {
			candidates = append(candidates, candidate{state: state, action: a})
		}
	}
	if len(candidates) == 0 {
		return pick{}, false
	}
	chosen := candidates[s.rng.Intn(len(candidates))]
	return pick{State: chosen.state, Action: chosen.action}, true
}

// CoverageGuidedStrategy prioritizes actions not yet in used_action_names;
// among those, prefers pairs whose containing state has fewer outgoing
// transitions. Ties broken by action name (spec.md §4.5). Requires
// independent-nesting adapters.
type CoverageGuidedStrategy struct {
	discovered    map[string]struct{}
	states        []*State
	outgoingCount map[string]int
}

// NewCoverageGuidedStrategy returns an empty CoverageGuidedStrategy.
func NewCoverageGuidedStrategy() *CoverageGuidedStrategy {
	return &CoverageGuidedStrategy{
		discovered:    make(map[string]struct{}),
		outgoingCount: make(map[string]int),
	}
}

func (s *CoverageGuidedStrategy) Name() string                     { return "CoverageGuided" }
func (s *CoverageGuidedStrategy) RequiresIndependentNesting() bool { return true }

func (s *CoverageGuidedStrategy) OnStateDiscovered(state *State) {
	if _, ok := s.discovered[state.ID]; ok {
		return
	}
	s.discovered[state.ID] = struct{}{}
	s.states = append(s.states, state)
}

func (s *CoverageGuidedStrategy) pickNext(graph *Graph, registry *ActionRegistry, ctx *Context) (pick, bool) {
	var candidates []coverageCandidate
	for _, state := range s.states {
		valid := validActionsFrom(state, registry, ctx, graph)
		outgoing := 0
		for _, t := range graph.Transitions() {
			if t.FromStateID == state.ID {
				outgoing++
			}
		}
		for _, a := range valid {
			_, used := graph.UsedActionNames()[a.Name]
			candidates = append(candidates, coverageCandidate{state: state, action: a, newCoverage: !used, outgoing: outgoing})
		}
	}
	if len(candidates) == 0 {
		return pick{}, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if better(c, best) {
			best = c
		}
	}
	return pick{State: best.state, Action: best.action}, true
}

// coverageCandidate is one (state, action) pair considered by
// CoverageGuidedStrategy.pickNext.
type coverageCandidate struct {
	state       *State
	action      Action
	newCoverage bool
	outgoing    int
}

func better(a, b coverageCandidate) bool {
	if a.newCoverage != b.newCoverage {
		return a.newCoverage
	}
	if a.outgoing != b.outgoing {
		return a.outgoing < b.outgoing
	}
	return a.action.Name < b.action.Name
}

// checkStrategyAdapterCompatibility implements the compatibility gate
// (spec.md §4.5): a strategy that may return to a state out of checkpoint
// order cannot be paired with a stack-nested adapter.
func checkStrategyAdapterCompatibility(strategy Strategy, adapters []Rollbackable) error {
	if !strategy.RequiresIndependentNesting() {
		return nil
	}
	for _, a := range adapters {
		if a.NestingModel() == StackNested {
			return &ConfigError{
				Message: "strategy " + strategy.Name() + " is incompatible with stack-nested adapter " + a.Name(),
				Code:    "STRATEGY_ADAPTER_MISMATCH",
				Remedies: []string{
					"switch to the DFS strategy",
					"replace adapter " + a.Name() + " with an independent-nesting adapter",
					"drop adapter " + a.Name() + " and use pure context projection instead",
				},
			}
		}
	}
	return nil
}
