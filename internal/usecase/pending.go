package usecase

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"flightsearch-service/internal/domain/entity"
)

// PendingRequestRegistry deduplicates concurrent "start a new search"
// calls for the same segment key so at most one upstream job-start call
// is in flight per key. All joined callers observe the same outcome; the
// registration is dropped once the call settles, so a later independent
// search for the same key starts fresh.
type PendingRequestRegistry struct {
	mu    sync.Mutex
	keys  map[string]struct{}
	group singleflight.Group
}

// NewPendingRequestRegistry creates a new pending request registry
func NewPendingRequestRegistry() *PendingRequestRegistry {
	return &PendingRequestRegistry{
		keys: make(map[string]struct{}),
	}
}

// StartOrJoin runs start once per key, sharing its result with every
// concurrent caller for the same key.
func (r *PendingRequestRegistry) StartOrJoin(key entity.SegmentKey, start func() (string, error)) (string, error) {
	k := string(key)

	r.mu.Lock()
	r.keys[k] = struct{}{}
	r.mu.Unlock()

	v, err, _ := r.group.Do(k, func() (interface{}, error) {
		return start()
	})

	r.mu.Lock()
	delete(r.keys, k)
	r.mu.Unlock()

	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Clear forgets every pending key. In-flight calls still settle for the
// callers already joined, but no later caller joins them.
func (r *PendingRequestRegistry) Clear() {
	r.mu.Lock()
	for k := range r.keys {
		r.group.Forget(k)
		delete(r.keys, k)
	}
	r.mu.Unlock()
}
