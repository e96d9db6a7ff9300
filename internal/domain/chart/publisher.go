package chart

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yanqian/astrochart/pkg/errors"
	"github.com/yanqian/astrochart/pkg/util"
)

const defaultImageMimeType = "image/png"

var extensionByMimeType = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

func imageExtension(mimeType string) string {
	if ext, ok := extensionByMimeType[mimeType]; ok {
		return ext
	}
	return ".bin"
}

// Publisher hands rendered charts to the ArtifactStore and assembles their metadata.
type Publisher struct {
	store  ArtifactStore
	logger *slog.Logger
	now    func() time.Time
	newID  func() uuid.UUID
}

// NewPublisher constructs a Publisher backed by store.
func NewPublisher(store ArtifactStore, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:  store,
		logger: logger.With("component", "chart.publisher"),
		now:    util.NowUTC,
		newID:  uuid.New,
	}
}

// Publish uploads image under a fresh chart id. Every call creates a new artifact.
// An empty mimeType means PNG.
func (p *Publisher) Publish(ctx context.Context, image []byte, mimeType string, c Chart, subjectName string, kind Kind) (ChartMetadata, error) {
	if len(image) == 0 {
		return ChartMetadata{}, apperrors.Wrap(apperrors.CodePublish, "rendered image is empty", nil)
	}
	if !kind.Valid() {
		return ChartMetadata{}, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("unknown chart type %q", kind), nil)
	}

	chartID := p.newID()
	if mimeType == "" {
		mimeType = defaultImageMimeType
	}
	fileName := fmt.Sprintf("%s-chart-%s%s", kind, chartID.String(), imageExtension(mimeType))
	generatedAt := c.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = p.now()
	}

	stored, err := p.store.Put(ctx, Artifact{
		FileName: fileName,
		Data:     image,
		MimeType: mimeType,
		Metadata: map[string]string{
			"chartId":     chartID.String(),
			"chartType":   string(kind),
			"subjectName": subjectName,
			"ascendant":   string(c.Ascendant),
			"nakshatra":   c.Nakshatra.Name,
			"generatedAt": generatedAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		return ChartMetadata{}, apperrors.Wrap(apperrors.CodePublish, "failed to store chart image", err)
	}
	p.logger.Info("chart published", "chart_id", chartID, "store_id", stored.ID, "bytes", len(image))

	return ChartMetadata{
		FileName:    fileName,
		ChartID:     chartID,
		ImageURL:    stored.URL,
		StoreID:     stored.ID,
		StoreKey:    stored.Key,
		SubjectName: subjectName,
		Birth:       c.Birth,
		Ascendant:   c.Ascendant,
		Nakshatra:   c.Nakshatra,
		Planets:     summarizePlanets(c.Planets),
		Houses:      summarizeHouses(c.Houses),
		GeneratedAt: generatedAt,
		ChartType:   kind,
	}, nil
}

func summarizePlanets(planets []Planet) []PlanetSummary {
	out := make([]PlanetSummary, 0, len(planets))
	for _, p := range planets {
		out = append(out, PlanetSummary{
			Name:       p.Name,
			Sign:       p.Sign,
			House:      p.House,
			Longitude:  p.Longitude,
			Retrograde: p.Retrograde,
		})
	}
	return out
}

func summarizeHouses(houses []House) []HouseSummary {
	out := make([]HouseSummary, 0, len(houses))
	for _, h := range houses {
		out = append(out, HouseSummary{ID: h.ID, Sign: h.Sign, Longitude: h.Longitude})
	}
	return out
}
