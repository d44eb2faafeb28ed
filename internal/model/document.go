package model

import "time"

// Document is the registry record of a document created through this service.
// It holds metadata only; content lives with the provider.
type Document struct {
	FileID    string    `json:"file_id"`
	Name      string    `json:"name"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
}

// DownloadResult is an exported document held in memory for one download call.
// Filename is the raw provider name; transport adapters encode it.
type DownloadResult struct {
	Content  []byte
	Filename string
}
