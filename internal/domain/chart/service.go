package chart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/astrochart/pkg/errors"
)

const (
	defaultSubjectName = "Anonymous"
	defaultListLimit   = 20
	maxListLimit       = 100
)

// Service exposes the chart generation pipeline.
type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (ChartMetadata, error)
	Snapshot(ctx context.Context, birth BirthDetails) (Chart, error)
	Get(ctx context.Context, id uuid.UUID) (ChartMetadata, error)
	List(ctx context.Context, limit int) ([]ChartMetadata, error)
	Image(ctx context.Context, id uuid.UUID) (io.ReadCloser, ChartMetadata, error)
}

type service struct {
	ephemeris EphemerisClient
	renderer  Renderer
	publisher *Publisher
	store     ArtifactStore
	repo      Repository
	logger    *slog.Logger
}

// NewService wires the pipeline: ephemeris -> renderer -> publisher, with repo keeping the results.
func NewService(ephemeris EphemerisClient, renderer Renderer, store ArtifactStore, repo Repository, logger *slog.Logger) Service {
	return &service{
		ephemeris: ephemeris,
		renderer:  renderer,
		publisher: NewPublisher(store, logger),
		store:     store,
		repo:      repo,
		logger:    logger.With("component", "chart.service"),
	}
}

func (s *service) Generate(ctx context.Context, req GenerateRequest) (ChartMetadata, error) {
	kind := req.Kind
	if kind == "" {
		kind = KindNatal
	}
	if kind != KindNatal && kind != KindWheel {
		return ChartMetadata{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("chart type %q cannot be rendered", kind), nil)
	}
	if err := req.Birth.Validate(); err != nil {
		return ChartMetadata{}, err
	}
	subject := strings.TrimSpace(req.SubjectName)
	if subject == "" {
		subject = defaultSubjectName
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = fmt.Sprintf("%s - %s chart", subject, kind)
	}

	c, err := s.ephemeris.FetchChart(ctx, req.Birth)
	if err != nil {
		s.logger.Warn("ephemeris fetch failed", "code", apperrors.CodeOf(err), "error", err)
		return ChartMetadata{}, err
	}
	image, err := s.renderer.Render(ctx, c, kind, title)
	if err != nil {
		s.logger.Error("chart render failed", "error", err)
		return ChartMetadata{}, err
	}
	meta, err := s.publisher.Publish(ctx, image, s.renderer.MimeType(), c, subject, kind)
	if err != nil {
		s.logger.Error("chart publish failed", "error", err)
		return ChartMetadata{}, err
	}
	if s.repo != nil {
		if err := s.repo.Save(ctx, meta); err != nil {
			s.logger.Warn("chart record save failed", "chart_id", meta.ChartID, "error", err)
		}
	}
	s.logger.Info("chart generated", "chart_id", meta.ChartID, "type", kind, "ascendant", meta.Ascendant, "planets", len(meta.Planets))
	return meta, nil
}

func (s *service) Snapshot(ctx context.Context, birth BirthDetails) (Chart, error) {
	if err := birth.Validate(); err != nil {
		return Chart{}, err
	}
	return s.ephemeris.FetchChart(ctx, birth)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (ChartMetadata, error) {
	if s.repo == nil {
		return ChartMetadata{}, apperrors.Wrap(apperrors.CodeNotFound, "chart records are not kept", nil)
	}
	meta, found, err := s.repo.Get(ctx, id)
	if err != nil {
		return ChartMetadata{}, apperrors.Wrap(apperrors.CodeStorage, "failed to load chart", err)
	}
	if !found {
		return ChartMetadata{}, apperrors.Wrap(apperrors.CodeNotFound, "chart not found", nil)
	}
	return meta, nil
}

func (s *service) List(ctx context.Context, limit int) ([]ChartMetadata, error) {
	if s.repo == nil {
		return []ChartMetadata{}, nil
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	items, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to list charts", err)
	}
	return items, nil
}

func (s *service) Image(ctx context.Context, id uuid.UUID) (io.ReadCloser, ChartMetadata, error) {
	meta, err := s.Get(ctx, id)
	if err != nil {
		return nil, ChartMetadata{}, err
	}
	key := meta.StoreKey
	if key == "" {
		key = meta.FileName
	}
	body, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrArtifactNotFound) {
		return nil, ChartMetadata{}, apperrors.Wrap(apperrors.CodeNotFound, "chart image not found", err)
	}
	if err != nil {
		return nil, ChartMetadata{}, apperrors.Wrap(apperrors.CodeStorage, "failed to read chart image", err)
	}
	return body, meta, nil
}
