package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"drivedocs/internal/apperror"
	"drivedocs/internal/model"
	"drivedocs/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `file_id, name, mime_type, created_at`

// Create upserts a document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		INSERT INTO documents (file_id, name, mime_type, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (file_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING ` + documentColumns

	row := r.db.QueryRowContext(ctx, q,
		doc.FileID,
		doc.Name,
		doc.MimeType,
		doc.CreatedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("insert document %s: %w", doc.FileID, err)
	}
	return out, nil
}

// FindByID fetches a single document by its provider file ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, fileID string) (*model.Document, error) {
	const q = `SELECT ` + documentColumns + ` FROM documents WHERE file_id = $1`

	d, err := scanDocument(r.db.QueryRowContext(ctx, q, fileID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New("registry.find", apperror.ErrNotFound, err)
	}
	if err != nil {
		return nil, fmt.Errorf("find document %s: %w", fileID, err)
	}
	return d, nil
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM documents
		ORDER BY created_at DESC, file_id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var d model.Document
	if err := s.Scan(&d.FileID, &d.Name, &d.MimeType, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}
