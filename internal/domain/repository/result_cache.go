package repository

import (
	"context"

	"flightsearch-service/internal/domain/entity"
)

// ResultCache defines the interface for the per-segment result store. It
// is a best-effort accelerator, never a correctness-critical store:
// losing it only triggers redundant upstream work.
type ResultCache interface {
	// Get returns the entry for the key, or false when the key was never
	// populated or its TTL has elapsed.
	Get(ctx context.Context, key entity.SegmentKey) (*entity.CacheEntry, bool)
	// Put fully replaces the entry for the key, last writer wins.
	Put(ctx context.Context, key entity.SegmentKey, e *entity.CacheEntry)
	// Clear discards every entry. Invoked when a brand-new multi-leg
	// search replaces all prior state.
	Clear(ctx context.Context)
}
