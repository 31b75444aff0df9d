package venom

import (
	"encoding/json"
	"time"
)

// ExplorationResult is the final output of one Agent.Explore run (spec.md
// §3, §6.4).
type ExplorationResult struct {
	Graph             *Graph
	Violations        []Violation
	UniqueViolations  []Violation
	StatesVisited     int
	TransitionsTaken  int
	ActionsTotal      int
	CoveragePercent   float64
	DurationMs        int64
	StartedAt         time.Time
	FinishedAt        time.Time
}

// jsonTransition is the wire shape of a Transition: ids, action name,
// success flag, error message, HTTP status code and duration. It carries no
// request or response payload; neither the request nor the response body
// appears in the JSON form.
type jsonTransition struct {
	ID           string `json:"id"`
	FromStateID  string `json:"from_state_id"`
	ActionName   string `json:"action_name"`
	ToStateID    string `json:"to_state_id"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
	StatusCode   int    `json:"status_code,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

func toJSONTransition(t Transition) jsonTransition {
	jt := jsonTransition{
		ID:           t.ID,
		FromStateID:  t.FromStateID,
		ActionName:   t.ActionName,
		ToStateID:    t.ToStateID,
		Success:      t.Result.Success,
		ErrorMessage: t.Result.ErrorMessage,
		DurationMs:   t.Result.DurationMs,
		Timestamp:    t.Timestamp,
	}
	if t.Result.Response != nil {
		jt.StatusCode = t.Result.Response.StatusCode
	}
	return jt
}

// jsonViolation is the wire shape of a Violation.
type jsonViolation struct {
	ID                   string           `json:"id"`
	InvariantName        string           `json:"invariant_name"`
	StateID              string           `json:"state_id"`
	TriggeringActionName string           `json:"triggering_action_name,omitempty"`
	Severity             string           `json:"severity"`
	Message              string           `json:"message"`
	DetectedAt           time.Time        `json:"detected_at"`
	StepsEliminated      int              `json:"steps_eliminated,omitempty"`
	ReproductionPath     []jsonTransition `json:"reproduction_path"`
}

func toJSONViolation(v Violation) jsonViolation {
	path := make([]jsonTransition, len(v.ReproductionPath))
	for i, t := range v.ReproductionPath {
		path[i] = toJSONTransition(t)
	}
	return jsonViolation{
		ID:                   v.ID,
		InvariantName:        v.InvariantName,
		StateID:              v.StateID,
		TriggeringActionName: v.TriggeringActionName,
		Severity:             v.Severity.String(),
		Message:              v.Message,
		DetectedAt:           v.DetectedAt,
		StepsEliminated:      v.StepsEliminated,
		ReproductionPath:     path,
	}
}

// MarshalJSON renders ExplorationResult with both "coverage_percent" and a
// duplicate alias key for consumers expecting either spelling (spec.md
// §6.4), grounded on the teacher's serializableMemStore shadow-struct
// pattern for custom (un)marshaling.
func (r *ExplorationResult) MarshalJSON() ([]byte, error) {
	violations := make([]jsonViolation, len(r.Violations))
	for i, v := range r.Violations {
		violations[i] = toJSONViolation(v)
	}
	unique := make([]jsonViolation, len(r.UniqueViolations))
	for i, v := range r.UniqueViolations {
		unique[i] = toJSONViolation(v)
	}

	return json.Marshal(struct {
		Violations           []jsonViolation `json:"violations"`
		UniqueViolations     []jsonViolation `json:"unique_violations"`
		StatesVisited        int             `json:"states_visited"`
		TransitionsTaken     int             `json:"transitions_taken"`
		ActionsTotal         int             `json:"actions_total"`
		CoveragePercent      float64         `json:"coverage_percent"`
		CoveragePercentAlias float64         `json:"coveragePercent"`
		DurationMs           int64           `json:"duration_ms"`
		StartedAt            time.Time       `json:"started_at"`
		FinishedAt           time.Time       `json:"finished_at"`
	}{
		Violations:           violations,
		UniqueViolations:     unique,
		StatesVisited:        r.StatesVisited,
		TransitionsTaken:     r.TransitionsTaken,
		ActionsTotal:         r.ActionsTotal,
		CoveragePercent:      r.CoveragePercent,
		CoveragePercentAlias: r.CoveragePercent,
		DurationMs:           r.DurationMs,
		StartedAt:            r.StartedAt,
		FinishedAt:           r.FinishedAt,
	})
}
