package ephemeriscache

import (
	"context"
	"time"

	"github.com/yanqian/astrochart/internal/domain/chart"
)

// Backend is a response cache the application can also run background eviction for.
type Backend interface {
	chart.ResponseCache
	Run(ctx context.Context, interval time.Duration)
}

var (
	_ Backend = (*MemoryCache)(nil)
	_ Backend = (*ValkeyCache)(nil)
)
