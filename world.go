package venom

import (
	"time"

	"github.com/google/uuid"
)

// World aggregates the APIClient, the named adapters, the Context, and the
// checkpoint history for one exploration (spec.md §4.3). World is not
// thread-safe; concurrency is the Agent's concern (spec.md §5), grounded on
// the teacher's Engine field layout generalized from node routing to
// act/observe/checkpoint/rollback.
type World struct {
	api APIClient

	adapterOrder []string
	adapters     map[string]Rollbackable

	ctx              *Context
	projectionKeys   []string

	// checkpoints holds every checkpoint ever created, keyed by id. Unlike a
	// strict stack, entries are never evicted on rollback: independent-
	// nesting adapters let the Agent return to an earlier checkpoint while
	// later ones remain valid (e.g. BFS branching). Stack-nested adapters
	// enforce their own invalidation of later tokens inside Rollback itself;
	// the compatibility gate (spec.md §4.5) is what keeps World from ever
	// being asked to violate that discipline.
	checkpoints map[string]Checkpoint

	currentCheckpointID string
	lastActionResult     ActionResult

	setupHook    func(*World) error
	teardownHook func(*World) error
}

// WorldOption configures a World at construction time.
type WorldOption func(*worldConfig)

type worldConfig struct {
	adapters       []Rollbackable
	projectionKeys []string
	setupHook      func(*World) error
	teardownHook   func(*World) error
}

// WithAdapters registers named adapters, in the given order. That order is
// the order in which Observe, Checkpoint (invariant 6: one token per
// adapter) and Rollback visit the adapters; it does not affect state ids,
// since fingerprinting sorts observations by adapter name.
func WithAdapters(adapters ...Rollbackable) WorldOption {
	return func(c *worldConfig) { c.adapters = append(c.adapters, adapters...) }
}

// WithContextProjection sets the context keys visible to state
// fingerprinting (spec.md §4.1, state_from_context mode).
func WithContextProjection(keys ...string) WorldOption {
	return func(c *worldConfig) { c.projectionKeys = keys }
}

// WithSetupHook registers a hook the Agent runs once before the first
// observation.
func WithSetupHook(fn func(*World) error) WorldOption {
	return func(c *worldConfig) { c.setupHook = fn }
}

// WithTeardownHook registers a hook the Agent runs once after exploration
// ends. Teardown errors are swallowed — reported as a warning event, never
// returned from Explore (spec.md §4.9).
func WithTeardownHook(fn func(*World) error) WorldOption {
	return func(c *worldConfig) { c.teardownHook = fn }
}

// NewWorld constructs a World around api, applying opts.
func NewWorld(api APIClient, opts ...WorldOption) *World {
	var cfg worldConfig
	for _, o := range opts {
		o(&cfg)
	}

	w := &World{
		api:            api,
		adapters:       make(map[string]Rollbackable, len(cfg.adapters)),
		ctx:            NewContext(),
		projectionKeys: cfg.projectionKeys,
		checkpoints:    make(map[string]Checkpoint),
		setupHook:      cfg.setupHook,
		teardownHook:   cfg.teardownHook,
	}
	for _, a := range cfg.adapters {
		w.adapterOrder = append(w.adapterOrder, a.Name())
		w.adapters[a.Name()] = a
	}
	return w
}

// Adapters returns the registered adapters in registration order.
func (w *World) Adapters() []Rollbackable {
	out := make([]Rollbackable, len(w.adapterOrder))
	for i, name := range w.adapterOrder {
		out[i] = w.adapters[name]
	}
	return out
}

// Context exposes the per-exploration key/value store.
func (w *World) Context() *Context {
	return w.ctx
}

// APIClient exposes the HTTP capability actions call.
func (w *World) APIClient() APIClient {
	return w.api
}

// LastActionResult returns the most recent ActionResult, required by
// HTTP-aware invariants (spec.md §4.3).
func (w *World) LastActionResult() ActionResult {
	return w.lastActionResult
}

// runSetupHook invokes the setup hook, if any, exactly once.
func (w *World) runSetupHook() error {
	if w.setupHook == nil {
		return nil
	}
	return w.setupHook(w)
}

// runTeardownHook invokes the teardown hook, if any, and returns its error;
// Agent.Explore reports that error as a warning event and does not fail the
// run (spec.md §4.9).
func (w *World) runTeardownHook() error {
	if w.teardownHook == nil {
		return nil
	}
	return w.teardownHook(w)
}

// Act invokes action.Execute(api, ctx), records the resulting ActionResult
// as LastActionResult, and returns it (spec.md §4.3). A non-nil error
// distinguishes two cases the caller must handle differently: an
// *ActionAssertionError is non-fatal (spec.md §4.6 converts it into a
// violation); any other error is fatal and wrapped in
// *ActionExecutionError.
func (w *World) Act(action Action) (ActionResult, error) {
	result, err := action.Execute.Execute(w.api, w.ctx)
	result.Timestamp = time.Now()
	w.lastActionResult = result

	if err == nil {
		return result, nil
	}
	if _, ok := err.(*ActionAssertionError); ok {
		return result, err
	}
	return result, &ActionExecutionError{ActionName: action.Name, Cause: err}
}

// Observe reads every adapter, projects the context, and constructs a new
// State carrying the fingerprint and the current checkpoint id, if any
// (spec.md §4.3). It does not deduplicate against a Graph — that lookup is
// the Agent's job (spec.md §5, "Graph owned by Agent").
func (w *World) Observe() (*State, error) {
	observations := make(map[string]Observation, len(w.adapterOrder))
	for _, name := range w.adapterOrder {
		obs, err := w.adapters[name].Observe()
		if err != nil {
			return nil, &AdapterError{System: name, Op: "observe", Cause: err}
		}
		obs.SystemName = name
		obs.ObservedAt = time.Now()
		observations[name] = obs
	}

	projected := w.ctx.Project(w.projectionKeys)

	fingerprint, err := computeFingerprint(observations, projected)
	if err != nil {
		return nil, err
	}

	return &State{
		ID:               fingerprint,
		Observations:     observations,
		ProjectedContext: projected,
		CheckpointID:      w.currentCheckpointID,
	}, nil
}

// Checkpoint asks every adapter for a token, snapshots the context, and
// records the composite Checkpoint, returning its id (spec.md §4.3). A
// checkpoint failure is fatal (spec.md §4.2).
func (w *World) Checkpoint(name string) (string, error) {
	tokens := make(map[string]string, len(w.adapterOrder))
	for _, adapterName := range w.adapterOrder {
		token, err := w.adapters[adapterName].Checkpoint(name)
		if err != nil {
			return "", &AdapterError{System: adapterName, Op: "checkpoint", Cause: err}
		}
		tokens[adapterName] = token
	}

	cp := Checkpoint{
		ID:                uuid.NewString(),
		Name:              name,
		SystemCheckpoints: tokens,
		ContextSnapshot:   w.ctx.Snapshot(),
		CreatedAt:         time.Now(),
	}
	w.checkpoints[cp.ID] = cp
	w.currentCheckpointID = cp.ID
	return cp.ID, nil
}

// Rollback restores every adapter and the context to the state recorded at
// checkpointID (spec.md §4.3). Rollback failure is fatal (spec.md §4.2). For
// a stack-nested adapter, rolling back to an earlier token invalidates later
// ones inside the adapter itself; World does not need to track that because
// the compatibility gate (spec.md §4.5) prevents an Agent from ever
// requesting an out-of-order rollback against such an adapter.
func (w *World) Rollback(checkpointID string) error {
	cp, ok := w.checkpoints[checkpointID]
	if !ok {
		return ErrUnknownCheckpoint
	}

	for _, adapterName := range w.adapterOrder {
		token, ok := cp.SystemCheckpoints[adapterName]
		if !ok {
			continue
		}
		if err := w.adapters[adapterName].Rollback(token); err != nil {
			return &AdapterError{System: adapterName, Op: "rollback", Cause: err}
		}
	}

	w.ctx.restore(cp.ContextSnapshot)
	w.currentCheckpointID = checkpointID
	return nil
}

// CurrentCheckpointID returns the id of the checkpoint World last rolled
// back to or created, or "" if none yet.
func (w *World) CurrentCheckpointID() string {
	return w.currentCheckpointID
}

// projectionKeysEmpty reports whether no context keys are projected into
// state fingerprinting, used by the Agent startup warning (spec.md §4.4).
func (w *World) projectionKeysEmpty() bool {
	return len(w.projectionKeys) == 0
}

// ActionExecutionError wraps a fatal error raised by an action body that is
// not an ActionAssertionError (spec.md §9, "exception-for-control-flow in
// actions": "other raises propagate as fatal, wrapped with the current
// action name").
type ActionExecutionError struct {
	ActionName string
	Cause      error
}

func (e *ActionExecutionError) Error() string {
	return "venom: action " + e.ActionName + " failed: " + e.Cause.Error()
}

func (e *ActionExecutionError) Unwrap() error { return e.Cause }
