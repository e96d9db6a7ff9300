package chartrepo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/astrochart/internal/domain/chart"
)

func metaAt(ts time.Time, subject string) chart.ChartMetadata {
	return chart.ChartMetadata{
		ChartID:     uuid.New(),
		FileName:    "natal-chart.png",
		StoreKey:    "charts/natal-chart.png",
		SubjectName: subject,
		Ascendant:   chart.SignLeo,
		Planets:     []chart.PlanetSummary{{Name: "Sun", Sign: chart.SignLeo, House: 1}},
		GeneratedAt: ts,
		ChartType:   chart.KindNatal,
	}
}

func TestMemoryRepositorySaveGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	meta := metaAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "Asha")
	require.NoError(t, repo.Save(ctx, meta))

	got, ok, err := repo.Get(ctx, meta.ChartID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, meta, got)

	got.Planets[0].Name = "mutated"
	again, _, _ := repo.Get(ctx, meta.ChartID)
	require.Equal(t, "Sun", again.Planets[0].Name)

	_, ok, err = repo.Get(ctx, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryRepositoryListNewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, metaAt(base, "old")))
	require.NoError(t, repo.Save(ctx, metaAt(base.Add(time.Hour), "new")))
	require.NoError(t, repo.Save(ctx, metaAt(base, "old-later-save")))

	items, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "new", items[0].SubjectName)
	require.Equal(t, "old-later-save", items[1].SubjectName)
	require.Equal(t, "old", items[2].SubjectName)

	items, err = repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

type fakeRow struct {
	storeKey string
	payload  []byte
	err      error
}

func (f fakeRow) Scan(dest ...any) error {
	if f.err != nil {
		return f.err
	}
	*(dest[0].(*string)) = f.storeKey
	*(dest[1].(*[]byte)) = f.payload
	return nil
}

func TestScanChartRecordRestoresStoreKey(t *testing.T) {
	meta := metaAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), "Ravi")
	payload, err := json.Marshal(meta)
	require.NoError(t, err)

	got, err := scanChartRecord(fakeRow{storeKey: meta.StoreKey, payload: payload})
	require.NoError(t, err)
	require.Equal(t, meta, got)

	_, err = scanChartRecord(fakeRow{payload: []byte("{")})
	require.Error(t, err)

	_, err = scanChartRecord(fakeRow{err: errors.New("conn reset")})
	require.EqualError(t, err, "conn reset")
}
