package chart

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/astrochart/pkg/errors"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestServiceGenerateEndToEnd(t *testing.T) {
	birth := BirthDetails{Date: "1990-01-15", Time: "12:00", Latitude: 28.6139, Longitude: 77.2090, TimezoneOffsetHours: 5.5}
	ephemeris := &stubEphemeris{chart: sampleChart(birth)}
	renderer := &stubRenderer{image: []byte("png-bytes")}
	store := &stubStore{}
	repo := newStubRepo()
	svc := NewService(ephemeris, renderer, store, repo, newTestLogger())

	meta, err := svc.Generate(context.Background(), GenerateRequest{Birth: birth, SubjectName: "Asha", Kind: KindNatal})
	require.NoError(t, err)

	require.Regexp(t, uuidPattern, meta.ChartID.String())
	require.NotEmpty(t, meta.ImageURL)
	require.Equal(t, "natal-chart-"+meta.ChartID.String()+".png", meta.FileName)
	require.Equal(t, "Asha", meta.SubjectName)
	require.Equal(t, SignCapricorn, meta.Ascendant)
	require.Equal(t, "Shravana", meta.Nakshatra.Name)
	require.Len(t, meta.Planets, 3)
	require.Equal(t, PlanetSummary{Name: "Sun", Sign: SignCapricorn, House: 10, Longitude: 271.2}, meta.Planets[0])
	require.Empty(t, meta.Houses)
	require.Equal(t, KindNatal, meta.ChartType)
	require.Equal(t, fixedTime(), meta.GeneratedAt)

	require.Equal(t, "Asha - natal chart", renderer.lastTitle)
	require.Len(t, store.puts, 1)
	require.Equal(t, "image/png", store.puts[0].MimeType)
	require.Equal(t, meta.ChartID.String(), store.puts[0].Metadata["chartId"])

	saved, err := svc.Get(context.Background(), meta.ChartID)
	require.NoError(t, err)
	require.Equal(t, meta.ChartID, saved.ChartID)
}

func TestServiceGenerateYieldsFreshIDs(t *testing.T) {
	birth := BirthDetails{Date: "1990-01-15", Time: "12:00", TimezoneOffsetHours: 5.5}
	svc := NewService(&stubEphemeris{chart: sampleChart(birth)}, &stubRenderer{image: []byte("x")}, &stubStore{}, newStubRepo(), newTestLogger())

	first, err := svc.Generate(context.Background(), GenerateRequest{Birth: birth, Kind: KindWheel})
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), GenerateRequest{Birth: birth, Kind: KindWheel})
	require.NoError(t, err)
	require.NotEqual(t, first.ChartID, second.ChartID)
	require.Equal(t, defaultSubjectName, first.SubjectName)
}

func TestServiceGenerateRejectsBeforeNetwork(t *testing.T) {
	ephemeris := &stubEphemeris{}
	svc := NewService(ephemeris, &stubRenderer{}, &stubStore{}, nil, newTestLogger())

	_, err := svc.Generate(context.Background(), GenerateRequest{Birth: BirthDetails{Date: "15/01/1990", Time: "12:00"}})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.Generate(context.Background(), GenerateRequest{
		Birth: BirthDetails{Date: "1990-01-15", Time: "12:00"},
		Kind:  KindComposite,
	})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Zero(t, ephemeris.calls)
}

func TestServiceGeneratePropagatesStageFailures(t *testing.T) {
	birth := BirthDetails{Date: "1990-01-15", Time: "12:00"}

	upstream := apperrors.Wrap(apperrors.CodeUpstream, "provider error", nil)
	svc := NewService(&stubEphemeris{err: upstream}, &stubRenderer{}, &stubStore{}, nil, newTestLogger())
	_, err := svc.Generate(context.Background(), GenerateRequest{Birth: birth})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUpstream))

	renderErr := apperrors.Wrap(apperrors.CodeRender, "encode failed", nil)
	store := &stubStore{}
	svc = NewService(&stubEphemeris{chart: sampleChart(birth)}, &stubRenderer{err: renderErr}, store, nil, newTestLogger())
	_, err = svc.Generate(context.Background(), GenerateRequest{Birth: birth})
	require.True(t, apperrors.IsCode(err, apperrors.CodeRender))
	require.Empty(t, store.puts)

	repo := newStubRepo()
	svc = NewService(&stubEphemeris{chart: sampleChart(birth)}, &stubRenderer{image: []byte("x")}, &stubStore{err: errors.New("bucket gone")}, repo, newTestLogger())
	_, err = svc.Generate(context.Background(), GenerateRequest{Birth: birth})
	require.True(t, apperrors.IsCode(err, apperrors.CodePublish))
	require.Empty(t, repo.items)
}

func TestServiceGenerateToleratesRepositoryFailure(t *testing.T) {
	birth := BirthDetails{Date: "1990-01-15", Time: "12:00"}
	repo := newStubRepo()
	repo.saveErr = errors.New("db down")
	svc := NewService(&stubEphemeris{chart: sampleChart(birth)}, &stubRenderer{image: []byte("x")}, &stubStore{}, repo, newTestLogger())

	meta, err := svc.Generate(context.Background(), GenerateRequest{Birth: birth})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, meta.ChartID)
}

func TestServiceImage(t *testing.T) {
	birth := BirthDetails{Date: "1990-01-15", Time: "12:00"}
	store := &stubStore{}
	svc := NewService(&stubEphemeris{chart: sampleChart(birth)}, &stubRenderer{image: []byte("png!")}, store, newStubRepo(), newTestLogger())

	meta, err := svc.Generate(context.Background(), GenerateRequest{Birth: birth})
	require.NoError(t, err)

	body, got, err := svc.Image(context.Background(), meta.ChartID)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, []byte("png!"), data)
	require.Equal(t, meta.FileName, got.FileName)

	_, _, err = svc.Image(context.Background(), uuid.New())
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestServiceImageMissingBlobIsNotFound(t *testing.T) {
	birth := BirthDetails{Date: "1990-01-15", Time: "12:00"}
	store := &stubStore{}
	svc := NewService(&stubEphemeris{chart: sampleChart(birth)}, &stubRenderer{image: []byte("png!")}, store, newStubRepo(), newTestLogger())

	meta, err := svc.Generate(context.Background(), GenerateRequest{Birth: birth})
	require.NoError(t, err)
	store.mu.Lock()
	delete(store.data, meta.StoreKey)
	store.mu.Unlock()

	_, _, err = svc.Image(context.Background(), meta.ChartID)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), "got %v", err)
	require.ErrorIs(t, err, ErrArtifactNotFound)

	store.getErr = errors.New("connection reset")
	_, _, err = svc.Image(context.Background(), meta.ChartID)
	require.True(t, apperrors.IsCode(err, apperrors.CodeStorage), "got %v", err)
}

func TestServiceGenerateUsesRendererMimeType(t *testing.T) {
	birth := BirthDetails{Date: "1990-01-15", Time: "12:00"}
	store := &stubStore{}
	svc := NewService(&stubEphemeris{chart: sampleChart(birth)}, &stubRenderer{image: []byte("jpg"), mimeType: "image/jpeg"}, store, nil, newTestLogger())

	meta, err := svc.Generate(context.Background(), GenerateRequest{Birth: birth, Kind: KindWheel})
	require.NoError(t, err)
	require.Equal(t, "wheel-chart-"+meta.ChartID.String()+".jpg", meta.FileName)
	require.Len(t, store.puts, 1)
	require.Equal(t, "image/jpeg", store.puts[0].MimeType)
}

func TestPublisherRejectsEmptyImage(t *testing.T) {
	p := NewPublisher(&stubStore{}, newTestLogger())
	_, err := p.Publish(context.Background(), nil, "image/png", Chart{}, "x", KindNatal)
	require.True(t, apperrors.IsCode(err, apperrors.CodePublish))
}

func TestPublisherAcceptsCompositeKind(t *testing.T) {
	store := &stubStore{}
	p := NewPublisher(store, newTestLogger())
	meta, err := p.Publish(context.Background(), []byte("img"), "", sampleChart(BirthDetails{}), "Ravi", KindComposite)
	require.NoError(t, err)
	require.Equal(t, KindComposite, meta.ChartType)
	require.Equal(t, "composite-visualization-chart-"+meta.ChartID.String()+".png", meta.FileName)
}

func sampleChart(birth BirthDetails) Chart {
	return NewChart(birth, SignCapricorn, Nakshatra{ID: 22, Name: "Shravana", Pada: 2, Lord: "Moon"}, []Planet{
		{ID: 0, Name: "Sun", Longitude: 271.2, Sign: SignCapricorn, Degree: 1.2, House: 10},
		{ID: 1, Name: "Moon", Longitude: 285.4, Sign: SignCapricorn, Degree: 15.4, House: 10},
		{ID: 100, Name: "Ascendant", Longitude: 280.1, Sign: SignCapricorn, Degree: 10.1, House: 1},
	}, nil, fixedTime())
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubEphemeris struct {
	chart Chart
	err   error
	calls int
}

func (s *stubEphemeris) FetchChart(_ context.Context, _ BirthDetails) (Chart, error) {
	s.calls++
	if s.err != nil {
		return Chart{}, s.err
	}
	return s.chart, nil
}

type stubRenderer struct {
	image     []byte
	mimeType  string
	err       error
	lastTitle string
}

func (s *stubRenderer) MimeType() string {
	if s.mimeType == "" {
		return "image/png"
	}
	return s.mimeType
}

func (s *stubRenderer) Render(_ context.Context, _ Chart, _ Kind, title string) ([]byte, error) {
	s.lastTitle = title
	if s.err != nil {
		return nil, s.err
	}
	return s.image, nil
}

type stubStore struct {
	mu     sync.Mutex
	puts   []Artifact
	data   map[string][]byte
	err    error
	getErr error
}

func (s *stubStore) Put(_ context.Context, artifact Artifact) (StoredArtifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return StoredArtifact{}, s.err
	}
	if s.data == nil {
		s.data = make(map[string][]byte)
	}
	s.puts = append(s.puts, artifact)
	s.data[artifact.FileName] = artifact.Data
	return StoredArtifact{ID: "obj-" + artifact.FileName, Key: artifact.FileName, URL: "https://cdn.example.com/" + artifact.FileName}, nil
}

func (s *stubStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.data[key]
	if !ok {
		return nil, ErrArtifactNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type stubRepo struct {
	items   map[uuid.UUID]ChartMetadata
	saveErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{items: make(map[uuid.UUID]ChartMetadata)}
}

func (r *stubRepo) Save(_ context.Context, meta ChartMetadata) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.items[meta.ChartID] = meta
	return nil
}

func (r *stubRepo) Get(_ context.Context, id uuid.UUID) (ChartMetadata, bool, error) {
	meta, ok := r.items[id]
	return meta, ok, nil
}

func (r *stubRepo) List(_ context.Context, limit int) ([]ChartMetadata, error) {
	out := make([]ChartMetadata, 0, len(r.items))
	for _, meta := range r.items {
		out = append(out, meta)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
