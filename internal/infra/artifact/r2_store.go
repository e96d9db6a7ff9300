package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yanqian/astrochart/internal/domain/chart"
)

const defaultPresignExpiry = 24 * time.Hour

// R2Config describes the S3-compatible bucket charts are published to.
type R2Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	Prefix        string
	PublicBaseURL string
	PresignExpiry time.Duration
}

// R2Store publishes chart artifacts to Cloudflare R2 via the S3-compatible API.
type R2Store struct {
	client        *minio.Client
	bucket        string
	prefix        string
	publicBaseURL string
	presignExpiry time.Duration
	bucketReady   atomic.Bool
	logger        *slog.Logger
}

// NewR2Store constructs the store adapter.
func NewR2Store(cfg R2Config, logger *slog.Logger) (*R2Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cleanEndpoint := sanitizeEndpoint(cfg.Endpoint)
	useSSL := !strings.HasPrefix(strings.ToLower(strings.TrimSpace(cfg.Endpoint)), "http://")
	client, err := minio.New(cleanEndpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       useSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init r2 client: %w", err)
	}
	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}
	return &R2Store{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        strings.Trim(cfg.Prefix, "/"),
		publicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		presignExpiry: expiry,
		logger:        logger.With("component", "artifact.r2"),
	}, nil
}

func (s *R2Store) ensureBucket(ctx context.Context) error {
	if s.bucketReady.Load() {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		s.bucketReady.Store(true)
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return err
	}
	s.bucketReady.Store(true)
	return nil
}

// Put uploads the artifact with its metadata as object user metadata.
func (s *R2Store) Put(ctx context.Context, a chart.Artifact) (chart.StoredArtifact, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return chart.StoredArtifact{}, fmt.Errorf("ensure bucket %s: %w", s.bucket, err)
	}
	key := s.objectKey(a.FileName)
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(a.Data), int64(len(a.Data)), minio.PutObjectOptions{
		ContentType:      a.MimeType,
		UserMetadata:     a.Metadata,
		DisableMultipart: len(a.Data) < 5*1024*1024,
	})
	if err != nil {
		return chart.StoredArtifact{}, fmt.Errorf("put object %s: %w", key, err)
	}
	link, err := s.objectURL(ctx, key)
	if err != nil {
		return chart.StoredArtifact{}, err
	}
	id := info.VersionID
	if id == "" {
		id = strings.Trim(info.ETag, `"`)
	}
	s.logger.Debug("artifact uploaded", "key", key, "bytes", info.Size)
	return chart.StoredArtifact{ID: id, Key: key, URL: link}, nil
}

// Get fetches an object for reading.
func (s *R2Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, statErr := obj.Stat(); statErr != nil {
		_ = obj.Close()
		if minio.ToErrorResponse(statErr).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, statErr
	}
	return obj, nil
}

// objectURL prefers the public bucket domain and falls back to a presigned GET.
func (s *R2Store) objectURL(ctx context.Context, key string) (string, error) {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key, nil
	}
	signed, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return signed.String(), nil
}

func (s *R2Store) objectKey(fileName string) string {
	if s.prefix == "" {
		return fileName
	}
	return path.Join(s.prefix, fileName)
}

var _ chart.ArtifactStore = (*R2Store)(nil)

// sanitizeEndpoint removes schemes and paths to satisfy minio.New expectations.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	if i := strings.Index(raw, "/"); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
