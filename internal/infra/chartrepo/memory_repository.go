package chartrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yanqian/astrochart/internal/domain/chart"
)

type memoryRecord struct {
	meta chart.ChartMetadata
	seq  int64
}

// MemoryRepository is an in-memory chart.Repository used for tests/dev.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextSeq int64
	records map[uuid.UUID]memoryRecord
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID]memoryRecord)}
}

// Save implements chart.Repository. Saving an existing id replaces it.
func (r *MemoryRepository) Save(_ context.Context, meta chart.ChartMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	r.records[meta.ChartID] = memoryRecord{meta: cloneMetadata(meta), seq: r.nextSeq}
	return nil
}

// Get implements chart.Repository.
func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (chart.ChartMetadata, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return chart.ChartMetadata{}, false, nil
	}
	return cloneMetadata(rec.meta), true, nil
}

// List implements chart.Repository, newest first.
func (r *MemoryRepository) List(_ context.Context, limit int) ([]chart.ChartMetadata, error) {
	r.mu.RLock()
	items := make([]memoryRecord, 0, len(r.records))
	for _, rec := range r.records {
		items = append(items, rec)
	}
	r.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].meta.GeneratedAt.Equal(items[j].meta.GeneratedAt) {
			return items[i].seq > items[j].seq
		}
		return items[i].meta.GeneratedAt.After(items[j].meta.GeneratedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]chart.ChartMetadata, 0, len(items))
	for _, rec := range items {
		out = append(out, cloneMetadata(rec.meta))
	}
	return out, nil
}

func cloneMetadata(meta chart.ChartMetadata) chart.ChartMetadata {
	meta.Planets = append([]chart.PlanetSummary(nil), meta.Planets...)
	meta.Houses = append([]chart.HouseSummary(nil), meta.Houses...)
	return meta
}

var _ chart.Repository = (*MemoryRepository)(nil)
