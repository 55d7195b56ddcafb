package storage

import "context"

// UploadInput describes one blob to store.
type UploadInput struct {
	Key          string
	Body         []byte
	ContentType  string
	CacheControl string
}

// UploadResult describes the persisted artifact.
type UploadResult struct {
	URL  string
	ETag string
}

// Uploader stores blobs (complaint photos) and returns their public URL.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}
