// Package model defines the data structures shared by the rewrite engine:
// trees, markers, recipes, results and the per-run execution context.
package model

import "github.com/google/uuid"

// Tree is implemented by every node of a parsed source file. Nodes are
// immutable values; "with" methods on concrete types return a new value,
// or the receiver itself when nothing changed. Reference identity is the
// canonical "unchanged" test throughout the engine.
type Tree interface {
	ID() uuid.UUID
	Markers() Markers
}

// Marker is an out-of-band fact attached to a tree node, such as "changed
// by recipe stack X" or "carries a diagnostic".
type Marker interface {
	MarkerID() uuid.UUID
}

// Markers is the unordered marker set carried by a node.
type Markers []Marker

// With returns a new set with m appended.
func (ms Markers) With(m Marker) Markers {
	out := make(Markers, len(ms), len(ms)+1)
	copy(out, ms)

	return append(out, m)
}

// FindByType returns the first marker of type T in the set.
func FindByType[T Marker](ms Markers) (T, bool) {
	for _, m := range ms {
		if t, ok := m.(T); ok {
			return t, true
		}
	}

	var zero T

	return zero, false
}

// ComputeByType merges incoming into the set: when a marker of type T is
// already present it is replaced by merge(existing, incoming), otherwise
// incoming is appended. The receiver is never mutated.
func ComputeByType[T Marker](ms Markers, incoming T, merge func(existing, incoming T) T) Markers {
	for i, m := range ms {
		existing, ok := m.(T)
		if !ok {
			continue
		}

		out := make(Markers, len(ms))
		copy(out, ms)
		out[i] = merge(existing, incoming)

		return out
	}

	return ms.With(incoming)
}

// ChangedBy records the recipe stacks responsible for a file's current form.
// Stacks accumulate additively as more recipes touch the file in a cycle.
type ChangedBy struct {
	ID     uuid.UUID
	Stacks []RecipeStack
}

// MarkerID implements Marker.
func (c ChangedBy) MarkerID() uuid.UUID { return c.ID }

// Generated flags a file as synthetic. Generated files are excluded from
// Changed classification by the result differ.
type Generated struct {
	ID uuid.UUID
}

// MarkerID implements Marker.
func (g Generated) MarkerID() uuid.UUID { return g.ID }

// Diagnostic carries a failure message attached to the node nearest to the
// failure's origin, or to the file as a whole when no origin is known.
type Diagnostic struct {
	ID      uuid.UUID
	Recipe  string
	Message string
}

// MarkerID implements Marker.
func (d Diagnostic) MarkerID() uuid.UUID { return d.ID }

// SearchResult flags a node matched by an applicability test. Attaching it
// produces a non-identical value, which is how a test "triggers".
type SearchResult struct {
	ID          uuid.UUID
	Description string
}

// MarkerID implements Marker.
func (s SearchResult) MarkerID() uuid.UUID { return s.ID }
