// Package catalog provides the interface for catalog snapshot persistence
package catalog

//go:generate mockgen -destination=mock/mock_repository.go -package=catalogmock github.com/KirkDiggler/loadout-api/internal/repositories/catalog Repository

import (
	"context"

	"github.com/KirkDiggler/loadout-api/internal/catalog"
)

// Repository defines the interface for catalog snapshot persistence
type Repository interface {
	// Get retrieves a named catalog snapshot
	// Returns errors.InvalidArgument for an empty name
	// Returns errors.NotFound if no snapshot with that name exists
	// Returns errors.Internal for storage failures
	Get(ctx context.Context, input GetInput) (*GetOutput, error)

	// Put stores a named catalog snapshot, replacing any existing one
	// Returns errors.InvalidArgument for validation failures
	// Returns errors.Internal for storage failures
	Put(ctx context.Context, input PutInput) (*PutOutput, error)

	// Delete removes a named catalog snapshot
	// Returns errors.InvalidArgument for an empty name
	// Returns errors.NotFound if no snapshot with that name exists
	// Returns errors.Internal for storage failures
	Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error)
}

// GetInput defines the input for getting a snapshot
type GetInput struct {
	Name string
}

// GetOutput defines the output for getting a snapshot
type GetOutput struct {
	Name     string
	Snapshot *catalog.Snapshot
}

// PutInput defines the input for storing a snapshot
type PutInput struct {
	Name     string
	Snapshot *catalog.Snapshot
}

// PutOutput defines the output for storing a snapshot
type PutOutput struct {
	Name string
}

// DeleteInput defines the input for deleting a snapshot
type DeleteInput struct {
	Name string
}

// DeleteOutput defines the output for deleting a snapshot
type DeleteOutput struct {
	// Empty for now, can be extended later
}
