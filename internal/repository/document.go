// Package repository holds data access abstractions for the document
// registry. Implementations live in subpackages.
package repository

import (
	"context"

	"drivedocs/internal/model"
)

// DocumentRepository records metadata of documents created through the
// service. SQL only, no business logic.
type DocumentRepository interface {
	// Create stores a record. Recording the same file ID twice updates the name.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns the record for a file ID, or an error matching
	// apperror.ErrNotFound.
	FindByID(ctx context.Context, fileID string) (*model.Document, error)

	// List returns one page of records, newest first, and the total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
