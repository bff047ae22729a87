package catalog

import (
	"context"
	"sync"

	"github.com/KirkDiggler/loadout-api/internal/catalog"
	"github.com/KirkDiggler/loadout-api/internal/errors"
)

// InMemoryRepository implements Repository using in-memory storage.
// Snapshots are immutable, so storing the pointer is safe.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*catalog.Snapshot
}

// NewInMemory creates a new in-memory repository
func NewInMemory() *InMemoryRepository {
	return &InMemoryRepository{
		store: make(map[string]*catalog.Snapshot),
	}
}

// Get retrieves a snapshot by name
func (r *InMemoryRepository) Get(_ context.Context, input GetInput) (*GetOutput, error) {
	if input.Name == "" {
		return nil, errors.InvalidArgument(errNameEmpty)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	snap, exists := r.store[input.Name]
	if !exists {
		return nil, errors.NotFoundf("catalog snapshot %s not found", input.Name)
	}

	return &GetOutput{
		Name:     input.Name,
		Snapshot: snap,
	}, nil
}

// Put stores a snapshot by name
func (r *InMemoryRepository) Put(_ context.Context, input PutInput) (*PutOutput, error) {
	if input.Name == "" {
		return nil, errors.InvalidArgument(errNameEmpty)
	}
	if input.Snapshot == nil {
		return nil, errors.InvalidArgument("snapshot cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[input.Name] = input.Snapshot

	return &PutOutput{Name: input.Name}, nil
}

// Delete removes a snapshot by name
func (r *InMemoryRepository) Delete(_ context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.Name == "" {
		return nil, errors.InvalidArgument(errNameEmpty)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[input.Name]; !exists {
		return nil, errors.NotFoundf("catalog snapshot %s not found", input.Name)
	}

	delete(r.store, input.Name)

	return &DeleteOutput{}, nil
}
