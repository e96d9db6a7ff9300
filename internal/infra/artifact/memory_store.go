package artifact

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/yanqian/astrochart/internal/domain/chart"
)

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = chart.ErrArtifactNotFound

// MemoryStore keeps artifacts in memory. Useful for tests and local dev.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	blobs   map[string]storedBlob
}

type storedBlob struct {
	data     []byte
	mimeType string
	etag     string
	metadata map[string]string
}

// NewMemoryStore constructs a store; URLs are baseURL joined with the object key.
func NewMemoryStore(baseURL string) *MemoryStore {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "memory://charts"
	}
	return &MemoryStore{baseURL: strings.TrimRight(baseURL, "/"), blobs: make(map[string]storedBlob)}
}

// Put stores a copy of the artifact bytes.
func (s *MemoryStore) Put(_ context.Context, a chart.Artifact) (chart.StoredArtifact, error) {
	if strings.TrimSpace(a.FileName) == "" {
		return chart.StoredArtifact{}, errors.New("artifact file name is required")
	}
	hash := md5.Sum(a.Data)
	etag := hex.EncodeToString(hash[:])
	meta := make(map[string]string, len(a.Metadata))
	for k, v := range a.Metadata {
		meta[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[a.FileName] = storedBlob{
		data:     append([]byte(nil), a.Data...),
		mimeType: a.MimeType,
		etag:     etag,
		metadata: meta,
	}
	return chart.StoredArtifact{ID: etag, Key: a.FileName, URL: s.baseURL + "/" + a.FileName}, nil
}

// Get returns a reader for the stored artifact.
func (s *MemoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(blob.data)), nil
}

// Metadata returns the metadata stored with key.
func (s *MemoryStore) Metadata(key string) (map[string]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(blob.metadata))
	for k, v := range blob.metadata {
		out[k] = v
	}
	return out, true
}

var _ chart.ArtifactStore = (*MemoryStore)(nil)
