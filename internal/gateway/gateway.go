// Package gateway moves documents in and out of Google Drive: create a
// Google Doc from plain text, export one back as .docx.
package gateway

import (
	"context"

	"drivedocs/internal/model"
)

const (
	// GoogleDocMimeType makes Drive convert the uploaded text into a native document.
	GoogleDocMimeType = "application/vnd.google-apps.document"
	// DocxMimeType is the export format.
	DocxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	// SourceMimeType is the media type of uploaded content.
	SourceMimeType = "text/plain"
	// FallbackFilename is used when the provider returns no name.
	FallbackFilename = "downloaded_document"
)

// Gateway is the document transfer contract. Errors carry an apperror kind.
type Gateway interface {
	// Create uploads content as a new document called name and returns its identifier.
	Create(ctx context.Context, name, content string) (string, error)
	// Download exports the document as .docx together with its stored name.
	Download(ctx context.Context, fileID string) (*model.DownloadResult, error)
}
