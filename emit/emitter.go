// Package emit provides event emission and observability for an exploration run.
package emit

// Emitter receives step_start/step_end/violation_detected/progress/warning
// events from an exploration run. Implementations must not block the
// Agent's single-threaded loop and must not panic; the Agent calls Emit
// synchronously on the hot path.
//
// NullEmitter discards everything, LogEmitter writes text or JSON-lines to
// an io.Writer, BufferedEmitter keeps an in-memory, queryable history (for
// tests and operators without a sink wired up), and OTelEmitter turns each
// event into a span.
type Emitter interface {
	Emit(event Event)
}
