package model

import "time"

// RunStats accumulates call counts and wall time per recipe, mirroring the
// recipe tree. Child nodes are created lazily the first time a child recipe
// executes, because children can be added conditionally during a visit.
// Only the goroutine driving a recipe's application writes its node.
type RunStats struct {
	Recipe     Recipe
	Calls      int64
	Cumulative time.Duration
	Max        time.Duration
	Called     []*RunStats
}

// NewRunStats builds the stats node for a recipe.
func NewRunStats(r Recipe) *RunStats {
	return &RunStats{Recipe: r}
}

// Child returns the stats node for the given child recipe, creating it on
// first use.
func (s *RunStats) Child(r Recipe) *RunStats {
	for _, called := range s.Called {
		if called.Recipe == r {
			return called
		}
	}

	child := NewRunStats(r)
	s.Called = append(s.Called, child)

	return child
}
