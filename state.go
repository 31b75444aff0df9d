package venom

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"time"
)

// Observation is an immutable snapshot read from one adapter. Adapters
// produce Observations from Rollbackable.Observe; the engine never mutates
// one after creation (spec.md §3).
type Observation struct {
	// SystemName is the adapter's registered name.
	SystemName string

	// Data is the observed snapshot. Values must be JSON-marshalable
	// primitives, or nested maps/slices of them — the fingerprint canonicalizes
	// this recursively (sorted map keys, normalized numbers).
	Data map[string]any

	// ObservedAt is when the adapter produced this snapshot.
	ObservedAt time.Time
}

// State is an immutable aggregate of every registered adapter's Observation
// plus the projected context shape at observation time. Two States with
// equal canonicalized observations and equal projected context carry the
// same fingerprint ID and are treated as the same graph node (spec.md §3,
// invariant 2).
type State struct {
	// ID is the deterministic content hash identifying this state (its
	// fingerprint).
	ID string

	// Observations maps adapter name to its Observation at this state.
	Observations map[string]Observation

	// ProjectedContext is the slice of Context visible to fingerprinting,
	// per the World's context-projection configuration.
	ProjectedContext map[string]any

	// CheckpointID is the id of the live adapter snapshot for this state, if
	// one exists on the World's checkpoint stack.
	CheckpointID string

	// ParentTransitionID is the transition that produced this state, empty
	// for the initial state. Reproduction paths are reconstructed by
	// following this chain backward (spec.md §4.6).
	ParentTransitionID string
}

// computeFingerprint produces State.ID from raw observations and
// projected context. It is a pure function of its inputs (spec.md invariant
// 2, testable property "State identity is a pure function").
//
// Grounded on the teacher's computeIdempotencyKey (graph/checkpoint.go):
// write identifying fields into one hasher in a fixed, sorted order, then
// hash the variable payload as canonical JSON. encoding/json.Marshal
// already emits map keys in sorted order, which is why no third-party
// canonical-JSON library is needed here (see DESIGN.md).
func computeFingerprint(observations map[string]Observation, projectedContext map[string]any) (string, error) {
	h := sha256.New()

	systemNames := make([]string, 0, len(observations))
	for name := range observations {
		systemNames = append(systemNames, name)
	}
	sort.Strings(systemNames)

	for _, name := range systemNames {
		h.Write([]byte(name))
		h.Write([]byte{0})

		canon, err := canonicalizeValue(observations[name].Data)
		if err != nil {
			return "", err
		}
		payload, err := json.Marshal(canon)
		if err != nil {
			return "", err
		}
		h.Write(payload)
		h.Write([]byte{0})
	}

	ctxCanon, err := canonicalizeValue(projectedContext)
	if err != nil {
		return "", err
	}
	ctxPayload, err := json.Marshal(ctxCanon)
	if err != nil {
		return "", err
	}
	h.Write(ctxPayload)

	return hex.EncodeToString(h.Sum(nil)), nil
}

// canonicalizeValue normalizes a value for deterministic hashing: map keys
// are sorted (handled naturally by json.Marshal on map[string]any), numbers
// are normalized to float64 so that 1 and 1.0 hash identically, and nested
// structures are walked recursively. Slices are left in their given order —
// spec.md §4.1 only asks for sorted *sets*, and the engine cannot tell a
// meaningful ordered list apart from an unordered set at this layer, so
// ordering is preserved as observed.
func canonicalizeValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			c, err := canonicalizeValue(vv)
			if err != nil {
				return nil, err
			}
			out[k] = c
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			c, err := canonicalizeValue(vv)
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case float32:
		return float64(val), nil
	default:
		return val, nil
	}
}

// Transition is an immutable edge recording one action execution: the state
// it started from, the action that ran, the resulting ActionResult, and the
// state it produced. Transitions are append-only (spec.md §3 lifecycle).
type Transition struct {
	ID                 string
	FromStateID        string
	ActionName         string
	ToStateID          string
	Result             ActionResult
	Timestamp          time.Time
}
