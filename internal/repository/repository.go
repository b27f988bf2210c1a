package repository

import (
	"context"

	"forceview/internal/domain"
)

// Repository defines the interface for author/output graph access
type Repository interface {
	// Read operations
	Snapshot(ctx context.Context) (*domain.Snapshot, error)
	GetNode(ctx context.Context, id string) (*domain.Node, error)
	Stats(ctx context.Context) (*Stats, error)

	// Write operations
	UpsertAuthor(ctx context.Context, author *Author) error
	UpsertOutput(ctx context.Context, output *Output) error
	AddAuthorship(ctx context.Context, authorID, outputID string) error
	DeleteNode(ctx context.Context, id string) error

	// Bulk operations
	ImportSnapshot(ctx context.Context, snapshot *domain.Snapshot) error
	Clear(ctx context.Context) error

	// Close releases resources
	Close() error
}

// Author is a stored author record
type Author struct {
	ID        string `json:"id" validate:"required,max=128"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name" validate:"required"`
	ORCID     string `json:"orcid,omitempty"`
}

// Output is a stored research output record
type Output struct {
	ID    string `json:"id" validate:"required,max=128"`
	Title string `json:"title" validate:"required"`
	DOI   string `json:"doi,omitempty"`
}

// Stats summarizes the stored graph
type Stats struct {
	Authors     int `json:"authors"`
	Outputs     int `json:"outputs"`
	Authorships int `json:"authorships"`
}
