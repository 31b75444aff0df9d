package venom

import "sort"

// Context is the per-exploration key/value store threaded explicitly
// through every action and invariant call — never read ambiently (spec.md
// §9, "global/ambient context"). It participates in checkpoint/rollback: the
// World snapshots it at checkpoint time and restores it on rollback.
type Context struct {
	values map[string]any
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Get returns the value stored under key and whether it was present.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Set stores value under key. Only the currently executing action is
// expected to call this (World does not enforce it; it is a usage
// contract, same as the teacher's reducer-only-mutates-via-delta idiom).
func (c *Context) Set(key string, value any) {
	c.values[key] = value
}

// Delete removes key from the context, if present.
func (c *Context) Delete(key string) {
	delete(c.values, key)
}

// Snapshot returns a shallow copy of the context's values, suitable for
// storing on a Checkpoint.
func (c *Context) Snapshot() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// restore replaces the context's values with snapshot, without aliasing it.
func (c *Context) restore(snapshot map[string]any) {
	out := make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		out[k] = v
	}
	c.values = out
}

// Project returns the subset of the context visible to state fingerprinting,
// per spec.md §4.1: when keys is non-empty, only those listed keys (in
// lexicographic order for hashing purposes, though the returned map is
// unordered); when keys is empty, an empty projection (system-backed World).
func (c *Context) Project(keys []string) map[string]any {
	if len(keys) == 0 {
		return map[string]any{}
	}
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	out := make(map[string]any, len(sorted))
	for _, k := range sorted {
		if v, ok := c.values[k]; ok {
			out[k] = v
		}
	}
	return out
}
