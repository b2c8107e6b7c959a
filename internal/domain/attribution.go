package domain

import (
	"sync"

	"github.com/google/uuid"
	m "reshape.dev/pkg/reshape/internal/model"
)

// attributions maps a file id to the recipe stack that most recently added
// or deleted it. It is owned by the scheduler for the duration of one run
// and is written from parallel per-file visits, hence the lock.
type attributions struct {
	mu   sync.Mutex
	byID map[uuid.UUID]m.RecipeStack
}

func newAttributions() *attributions {
	return &attributions{byID: map[uuid.UUID]m.RecipeStack{}}
}

func (a *attributions) record(id uuid.UUID, stack m.RecipeStack) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.byID[id] = stack
}

func (a *attributions) lookup(id uuid.UUID) m.RecipeStack {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.byID[id]
}
