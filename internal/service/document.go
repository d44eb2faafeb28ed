package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"

	"drivedocs/internal/gateway"
	"drivedocs/internal/model"
	"drivedocs/internal/repository"
)

var (
	// ErrValidation wraps input that fails validation.
	ErrValidation = errors.New("invalid input")
	// ErrRegistryDisabled is returned by registry reads when no database is configured.
	ErrRegistryDisabled = errors.New("document registry is not configured")
)

var fileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Create stores content as a new provider document and returns its record.
	Create(ctx context.Context, name, content string) (*model.Document, error)

	// Download exports a document as .docx.
	Download(ctx context.Context, fileID string) (*model.DownloadResult, error)

	// List returns registry records using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Get returns a single registry record.
	Get(ctx context.Context, fileID string) (*model.Document, error)
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	gw   gateway.Gateway
	repo repository.DocumentRepository
	log  hclog.Logger
	now  func() time.Time
}

// NewDocumentService constructs a new DocumentService. repo may be nil when
// no registry database is configured.
func NewDocumentService(gw gateway.Gateway, repo repository.DocumentRepository, log hclog.Logger) DocumentService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &documentService{gw: gw, repo: repo, log: log, now: time.Now}
}

func (s *documentService) Create(ctx context.Context, name, content string) (*model.Document, error) {
	// Names go to the provider exactly as given; only all-blank ones are refused.
	if err := validation.Validate(strings.TrimSpace(name), validation.Required.Error("name is required")); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	fileID, err := s.gw.Create(ctx, name, content)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		FileID:    fileID,
		Name:      name,
		MimeType:  gateway.GoogleDocMimeType,
		CreatedAt: s.now().UTC(),
	}
	if s.repo == nil {
		return doc, nil
	}

	// The document exists remotely at this point; a registry failure must
	// not turn a successful create into an error.
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		s.log.Warn("failed to record document in registry", "file_id", fileID, "error", err)
		return doc, nil
	}
	return stored, nil
}

func (s *documentService) Download(ctx context.Context, fileID string) (*model.DownloadResult, error) {
	if err := validateFileID(fileID); err != nil {
		return nil, err
	}
	return s.gw.Download(ctx, fileID)
}

// List returns paginated registry records without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if s.repo == nil {
		return nil, ErrRegistryDisabled
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) Get(ctx context.Context, fileID string) (*model.Document, error) {
	if s.repo == nil {
		return nil, ErrRegistryDisabled
	}
	if err := validateFileID(fileID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, fileID)
}

func validateFileID(fileID string) error {
	err := validation.Validate(fileID,
		validation.Required.Error("file_id is required"),
		validation.Match(fileIDPattern).Error("file_id contains invalid characters"),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}
