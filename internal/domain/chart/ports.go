package chart

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// EphemerisClient fetches and normalizes a birth chart snapshot from the provider.
type EphemerisClient interface {
	FetchChart(ctx context.Context, birth BirthDetails) (Chart, error)
}

// Renderer draws a chart into an encoded image of MimeType.
type Renderer interface {
	Render(ctx context.Context, c Chart, kind Kind, title string) ([]byte, error)
	MimeType() string
}

// ResponseCache stores raw provider payloads with a TTL.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// ErrArtifactNotFound is returned by ArtifactStore.Get for unknown keys.
var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactStore persists rendered artifacts (R2/S3/memory).
type ArtifactStore interface {
	Put(ctx context.Context, artifact Artifact) (StoredArtifact, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}

// Artifact is the payload handed to the ArtifactStore.
type Artifact struct {
	FileName string
	Data     []byte
	MimeType string
	Metadata map[string]string
}

// StoredArtifact is what the store returns after a successful upload.
type StoredArtifact struct {
	ID  string
	Key string
	URL string
}

// Repository keeps published chart metadata.
type Repository interface {
	Save(ctx context.Context, meta ChartMetadata) error
	Get(ctx context.Context, id uuid.UUID) (ChartMetadata, bool, error)
	List(ctx context.Context, limit int) ([]ChartMetadata, error)
}
