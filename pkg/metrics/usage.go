package metrics

import "sync/atomic"

// ProviderUsage counts how the ephemeris provider was used to satisfy requests.
type ProviderUsage struct {
	liveCalls atomic.Int64
	cacheHits atomic.Int64
	refreshes atomic.Int64
}

// UsageSnapshot is a point-in-time copy of ProviderUsage.
type UsageSnapshot struct {
	LiveCalls int64 `json:"liveCalls"`
	CacheHits int64 `json:"cacheHits"`
	Refreshes int64 `json:"refreshes"`
}

// RecordLiveCall counts one request sent to the provider.
func (u *ProviderUsage) RecordLiveCall() { u.liveCalls.Add(1) }

// RecordCacheHit counts one response served from cache.
func (u *ProviderUsage) RecordCacheHit() { u.cacheHits.Add(1) }

// RecordRefresh counts one token grant.
func (u *ProviderUsage) RecordRefresh() { u.refreshes.Add(1) }

// Snapshot copies the counters.
func (u *ProviderUsage) Snapshot() UsageSnapshot {
	return UsageSnapshot{
		LiveCalls: u.liveCalls.Load(),
		CacheHits: u.cacheHits.Load(),
		Refreshes: u.refreshes.Load(),
	}
}

// IsZero reports whether no usage has been recorded.
func (s UsageSnapshot) IsZero() bool {
	return s.LiveCalls == 0 && s.CacheHits == 0 && s.Refreshes == 0
}
