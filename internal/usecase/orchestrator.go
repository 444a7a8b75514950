package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"flightsearch-service/internal/domain/entity"
	"flightsearch-service/internal/domain/repository"
	"flightsearch-service/pkg/logger"
	"flightsearch-service/pkg/metrics"
)

// MaxLegs is the most independently-dated legs one search accepts.
const MaxLegs = 3

var (
	// ErrNoLegs is returned when a search has no legs.
	ErrNoLegs = errors.New("at least one search leg is required")
	// ErrTooManyLegs is returned when a search exceeds MaxLegs legs.
	ErrTooManyLegs = errors.New("a search supports at most three legs")
)

// SearchConfig tunes a search orchestrator.
type SearchConfig struct {
	Tuning PollTuning
	// InitialVisibleCount is the reveal size a new section starts with.
	InitialVisibleCount int
	// RevealPageSize is how many more flights one load-more reveals.
	RevealPageSize int
}

// DefaultSearchConfig returns the production defaults.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Tuning:              DefaultPollTuning(),
		InitialVisibleCount: 4,
		RevealPageSize:      4,
	}
}

// Orchestrator is the top-level entry point for multi-segment flight
// searches. Given up to three legs it initializes one section per leg,
// resolves each leg via cache hit, pending-request join, or a fresh
// upstream job, and attaches a poller to every still-incomplete leg.
// Progress is observed through the section store; StartSearch itself is
// fire-and-forget.
type Orchestrator struct {
	provider repository.FlightSearchProvider
	cache    repository.ResultCache
	pending  *PendingRequestRegistry
	sections *SectionStateStore
	airlines repository.AirlineRepository
	archive  repository.SearchArchiveRepository
	cfg      SearchConfig
	logger   logger.Logger
	metrics  *metrics.Metrics

	mu           sync.Mutex
	pollers      []*Poller
	searchCtx    context.Context
	searchCancel context.CancelFunc
	searchID     string
}

// NewOrchestrator creates a new search orchestrator. The cache and the
// pending registry are injected so several orchestrator instances can
// share them; airlines and archive may be nil when not configured.
func NewOrchestrator(
	provider repository.FlightSearchProvider,
	cache repository.ResultCache,
	pending *PendingRequestRegistry,
	airlines repository.AirlineRepository,
	archive repository.SearchArchiveRepository,
	cfg SearchConfig,
	logger logger.Logger,
	m *metrics.Metrics,
) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		cache:    cache,
		pending:  pending,
		sections: NewSectionStateStore(),
		airlines: airlines,
		archive:  archive,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
	}
}

// StartSearch begins a new multi-leg search, replacing any prior search.
// It returns a search id immediately; per-leg progress flows through the
// section store.
func (o *Orchestrator) StartSearch(
	ctx context.Context,
	legs []entity.SearchLeg,
	passengers entity.PassengerCounts,
	cabinClass string,
	directOnly bool,
) (string, error) {
	if len(legs) == 0 {
		return "", ErrNoLegs
	}
	if len(legs) > MaxLegs {
		return "", ErrTooManyLegs
	}

	sections := make([]entity.Section, len(legs))
	for i, leg := range legs {
		sections[i] = entity.Section{
			SearchIndex: i,
			Params: entity.SectionParams{
				Origin:        entity.NormalizeLocationCode(leg.Origin),
				Destination:   entity.NormalizeLocationCode(leg.Destination),
				DepartureDate: leg.DepartureDate,
			},
			Loading:      true,
			VisibleCount: o.cfg.InitialVisibleCount,
		}
	}

	o.mu.Lock()
	// A new top-level search invalidates everything prior. Entries for
	// keys this search re-requests survive the clear, so an identical
	// repeat within the TTL is served from cache instead of starting a
	// redundant upstream job.
	o.stopPollersLocked()
	if o.searchCancel != nil {
		o.searchCancel()
	}
	o.pending.Clear()
	retained := make(map[entity.SegmentKey]*entity.CacheEntry, len(legs))
	for _, leg := range legs {
		key := entity.BuildSegmentKey(leg, passengers, cabinClass, directOnly)
		if entry, ok := o.cache.Get(ctx, key); ok {
			retained[key] = entry
		}
	}
	o.cache.Clear(ctx)
	for key, entry := range retained {
		o.cache.Put(ctx, key, entry)
	}
	o.searchCtx, o.searchCancel = context.WithCancel(context.Background())
	o.searchID = uuid.NewString()
	searchCtx := o.searchCtx
	searchID := o.searchID
	// Reset happens inside the same critical section that cancels the
	// prior search context, so a leg goroutine from the replaced search
	// can never pass updateIfCurrent and then land on the new sections,
	// whose indices it shares.
	o.sections.Reset(sections)
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.SearchesStarted.Inc()
	}
	o.logger.Info("Search started",
		"searchID", searchID,
		"legs", len(legs),
		"cabin", entity.NormalizeCabinClass(cabinClass),
		"directOnly", directOnly)

	for i, leg := range legs {
		go o.resolveLeg(searchCtx, i, leg, passengers, cabinClass, directOnly)
	}

	return searchID, nil
}

// resolveLeg settles one section: hydrate from a fresh cache entry,
// join an in-flight job start, or begin a new upstream job. A failed leg
// never affects its siblings.
func (o *Orchestrator) resolveLeg(
	ctx context.Context,
	index int,
	leg entity.SearchLeg,
	passengers entity.PassengerCounts,
	cabinClass string,
	directOnly bool,
) {
	key := entity.BuildSegmentKey(leg, passengers, cabinClass, directOnly)

	if entry, ok := o.cache.Get(ctx, key); ok {
		o.hydrateFromCache(ctx, index, key, entry, leg, passengers)
		return
	}

	jobID, err := o.pending.StartOrJoin(key, func() (string, error) {
		return o.startJobWithRetry(ctx, leg, passengers, cabinClass, directOnly)
	})
	if ctx.Err() != nil {
		// The search was replaced while the job start was in flight.
		return
	}
	if err != nil {
		o.failSection(ctx, index, key, leg, err)
		return
	}

	entry := &entity.CacheEntry{
		Key:         key,
		SearchJobID: jobID,
		CreatedAt:   time.Now(),
	}
	o.cache.Put(ctx, key, entry)
	o.attachPoller(ctx, index, key, entry, leg, passengers)
}

// updateIfCurrent mutates one section only while ctx is still the live
// search's context. The check and the update share the orchestrator
// lock with StartSearch's cancel-and-reset, so a stale leg goroutine
// either sees its context cancelled or runs before the reset.
func (o *Orchestrator) updateIfCurrent(ctx context.Context, index int, fn func(*entity.Section)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	o.sections.Update(index, fn)
}

// hydrateFromCache fills the section from a fresh entry, re-stamping the
// cached records with the live passenger counts, and resumes polling
// from the cached cursor when the job has not completed.
func (o *Orchestrator) hydrateFromCache(
	ctx context.Context,
	index int,
	key entity.SegmentKey,
	entry *entity.CacheEntry,
	leg entity.SearchLeg,
	passengers entity.PassengerCounts,
) {
	if ctx.Err() != nil {
		return
	}
	if o.metrics != nil {
		o.metrics.CacheHits.Inc()
	}

	entry.Flights = RestampPassengers(entry.Flights, passengers)
	flights := entry.Flights
	complete := entry.IsComplete
	o.updateIfCurrent(ctx, index, func(sec *entity.Section) {
		sec.Flights = flights
		sec.IsComplete = complete
		sec.Loading = !complete
		if complete {
			sec.Progress = 100
		}
	})

	o.logger.Debug("Section hydrated from cache",
		"section", index, "key", key, "results", len(flights), "complete", complete)

	if complete {
		return
	}

	o.attachPoller(ctx, index, key, entry, leg, passengers)
}

// startJobWithRetry starts an upstream job, retrying once on a transient
// provider failure.
func (o *Orchestrator) startJobWithRetry(
	ctx context.Context,
	leg entity.SearchLeg,
	passengers entity.PassengerCounts,
	cabinClass string,
	directOnly bool,
) (string, error) {
	req := entity.SearchRequest{
		Leg:        leg,
		Passengers: passengers,
		CabinClass: cabinClass,
		DirectOnly: directOnly,
	}

	jobID, err := o.provider.StartSearch(ctx, req)
	if err != nil && errors.Is(err, repository.ErrProviderUnavailable) && ctx.Err() == nil {
		o.logger.Warn("Job start failed, retrying once",
			"origin", leg.Origin, "destination", leg.Destination, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(o.cfg.Tuning.RetryDelay):
		}
		jobID, err = o.provider.StartSearch(ctx, req)
	}
	if err != nil {
		return "", err
	}

	if o.metrics != nil {
		o.metrics.ProviderStarts.Inc()
	}
	return jobID, nil
}

// failSection marks one section errored and complete, stopping its
// spinner without touching sibling legs.
func (o *Orchestrator) failSection(ctx context.Context, index int, key entity.SegmentKey, leg entity.SearchLeg, err error) {
	if o.metrics != nil {
		o.metrics.ErrorsCount.WithLabelValues("start_search").Inc()
	}
	o.logger.Error("Failed to start search job",
		"section", index, "key", key, "error", err)

	o.updateIfCurrent(ctx, index, func(sec *entity.Section) {
		sec.Loading = false
		sec.IsComplete = true
		sec.Progress = 100
		sec.Error = msgStartFailed
	})

	o.archiveOutcome(key, "", leg, entity.OutcomeErrored, 0, 0)
}

func (o *Orchestrator) attachPoller(
	ctx context.Context,
	index int,
	key entity.SegmentKey,
	entry *entity.CacheEntry,
	leg entity.SearchLeg,
	passengers entity.PassengerCounts,
) {
	started := time.Now()
	jobID := entry.SearchJobID

	p := NewPoller(key, index, entry, passengers,
		o.provider, o.cache, o.sections, o.airlines,
		o.cfg.Tuning, o.logger, o.metrics,
		func(status string, resultCount int) {
			o.archiveOutcome(key, jobID, leg, status, resultCount, time.Since(started).Milliseconds())
		})

	o.mu.Lock()
	if ctx.Err() != nil {
		// The search was torn down while this leg was resolving.
		o.mu.Unlock()
		return
	}
	o.pollers = append(o.pollers, p)
	o.mu.Unlock()

	p.Start(ctx)
}

// archiveOutcome records a terminal search outcome best-effort; the
// archive is analytics, never on the search path.
func (o *Orchestrator) archiveOutcome(
	key entity.SegmentKey,
	jobID string,
	leg entity.SearchLeg,
	status string,
	resultCount int,
	durationMs int64,
) {
	if o.archive == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		now := time.Now()
		outcome := &entity.SearchOutcome{
			SegmentKey:    string(key),
			SearchJobID:   jobID,
			Origin:        entity.NormalizeLocationCode(leg.Origin),
			Destination:   entity.NormalizeLocationCode(leg.Destination),
			DepartureDate: leg.DepartureDate,
			Status:        status,
			ResultCount:   resultCount,
			DurationMs:    durationMs,
			CompletedAt:   &now,
			CreatedAt:     now,
		}
		if err := o.archive.RecordOutcome(ctx, outcome); err != nil {
			o.logger.Warn("Failed to archive search outcome",
				"key", key, "status", status, "error", err)
		}
	}()
}

// LoadMore reveals one more page of already-merged flights for a
// section. It never triggers a network call.
func (o *Orchestrator) LoadMore(index int) {
	o.sections.Update(index, func(sec *entity.Section) {
		sec.VisibleCount += o.cfg.RevealPageSize
	})
}

// Sections returns a snapshot of the current section list.
func (o *Orchestrator) Sections() []entity.Section {
	return o.sections.Sections()
}

// Watch returns a channel pulsed after every section mutation.
func (o *Orchestrator) Watch() <-chan struct{} {
	return o.sections.Watch()
}

// Stop synchronously deactivates every live poller and cancels the
// current search; no stale timer can later mutate a torn-down section.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopPollersLocked()
	if o.searchCancel != nil {
		o.searchCancel()
	}
}

func (o *Orchestrator) stopPollersLocked() {
	for _, p := range o.pollers {
		p.Stop()
	}
	o.pollers = nil
}
