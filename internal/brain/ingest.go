package brain

import "context"

// IngestRequest carries one document for indexing.
type IngestRequest struct {
	Filename      string
	Content       []byte
	UserID        string
	OffenceNumber string
}

// IngestResult is the validated response of a document upload.
type IngestResult struct {
	DocID                 string
	ChunksIndexed         int
	DetectedOffenceNumber string
}

// Ingestor is an optional interface. Providers that also index documents
// implement it; the upload worker type-asserts for it.
type Ingestor interface {
	IngestDocument(ctx context.Context, req IngestRequest) (*IngestResult, error)
}
