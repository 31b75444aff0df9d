package emit

// Event represents an observability event emitted during an exploration run.
//
// Events provide detailed insight into exploration behavior:
//   - Step execution start/complete
//   - Violations detected
//   - Progress records
//   - Warnings
//
// Events are emitted to an Emitter which can:
//   - Log to stdout/stderr
//   - Send to OpenTelemetry
//   - Store in time-series databases
//   - Trigger alerts
type Event struct {
	// ExplorationID identifies the exploration run that emitted this event.
	ExplorationID string

	// Step is the sequential step number in the exploration (1-indexed).
	// Zero for exploration-level events (start, complete, error).
	Step int

	// ActionName identifies which action emitted this event.
	// Empty string for exploration-level events.
	ActionName string

	// Msg is a human-readable description of the event. The Agent emits
	// "step_start", "step_end", "violation_detected", "progress" and
	// "warning".
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "duration_ms": action execution duration in milliseconds
	//   - "error": error details
	//   - "invariant_name": the invariant that produced a violation
	//   - "checkpoint_id": checkpoint identifier
	//   - "coverage_percent": running coverage at a progress event
	Meta map[string]interface{}
}

// StepEvent builds a step_start/step_end Event for one action execution.
func StepEvent(explorationID string, step int, actionName, msg string, meta map[string]interface{}) Event {
	return Event{ExplorationID: explorationID, Step: step, ActionName: actionName, Msg: msg, Meta: meta}
}

// ViolationEvent builds a violation_detected Event.
func ViolationEvent(explorationID string, step int, actionName, invariantName string, meta map[string]interface{}) Event {
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["invariant_name"] = invariantName
	return Event{ExplorationID: explorationID, Step: step, ActionName: actionName, Msg: "violation_detected", Meta: meta}
}

// ProgressEvent builds a progress Event carrying the running exploration
// totals (spec.md §6.5).
func ProgressEvent(explorationID string, step, statesVisited int, coveragePercent float64, violationsFound int) Event {
	return Event{
		ExplorationID: explorationID,
		Step:          step,
		Msg:           "progress",
		Meta: map[string]interface{}{
			"states_visited":   statesVisited,
			"coverage_percent": coveragePercent,
			"violations_found": violationsFound,
		},
	}
}
