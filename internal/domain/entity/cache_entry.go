package entity

import (
	"time"
)

// CacheEntry is the latest merged result set for one segment key. It is
// created when a search job starts and mutated only by the poller that
// owns the key. An entry is fresh for a bounded TTL after CreatedAt;
// beyond that it is treated as absent even when complete.
type CacheEntry struct {
	Key         SegmentKey     `json:"key"`
	SearchJobID string         `json:"searchJobId"`
	Flights     []FlightRecord `json:"flights"`
	IsComplete  bool           `json:"isComplete"`
	Cursor      *int           `json:"cursor,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Clone returns a deep copy so cache readers never alias the poller's
// working set.
func (e *CacheEntry) Clone() *CacheEntry {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Flights = make([]FlightRecord, len(e.Flights))
	copy(clone.Flights, e.Flights)
	if e.Cursor != nil {
		cursor := *e.Cursor
		clone.Cursor = &cursor
	}
	return &clone
}
