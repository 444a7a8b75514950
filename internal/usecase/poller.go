package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"flightsearch-service/internal/domain/entity"
	"flightsearch-service/internal/domain/repository"
	"flightsearch-service/pkg/logger"
	"flightsearch-service/pkg/metrics"
	"flightsearch-service/pkg/utils"
)

// User-facing messages for degraded terminal states.
const (
	msgStartFailed      = "unable to start the flight search, please try again"
	msgStalledNoResults = "no results after multiple attempts"
	msgStalledPartial   = "the search ended early, showing the results found so far"
	msgErroredNoResults = "the flight search failed, please try again"
	msgErroredPartial   = "the search was interrupted, showing the results found so far"
)

// PollTuning bounds a polling loop. The cutoffs were hand-tuned in the
// original system and are deliberately configuration, not constants.
type PollTuning struct {
	// Interval between successive polls for one job.
	Interval time.Duration
	// RetryDelay before the single retry after a failed fetch.
	RetryDelay time.Duration
	// IdleCutoff is the number of consecutive polls contributing no new
	// records before the search is declared stalled.
	IdleCutoff int
	// EmptyPollCutoff is the empty-batch limit once results exist.
	EmptyPollCutoff int
	// EmptyPollCutoffNoResult is the empty-batch limit before any result
	// has ever been seen.
	EmptyPollCutoffNoResult int
}

// DefaultPollTuning returns the production defaults.
func DefaultPollTuning() PollTuning {
	return PollTuning{
		Interval:                2 * time.Second,
		RetryDelay:              1500 * time.Millisecond,
		IdleCutoff:              30,
		EmptyPollCutoff:         30,
		EmptyPollCutoffNoResult: 15,
	}
}

// Poller drives one (segment key, search job) polling loop: fetch an
// incremental batch, merge it, then continue, stall out, or complete.
// Polls for one key are strictly sequential; the loop runs on a single
// goroutine and yields only at the provider calls and the inter-poll
// delay.
type Poller struct {
	key          entity.SegmentKey
	sectionIndex int
	jobID        string
	passengers   entity.PassengerCounts
	entry        *entity.CacheEntry
	cursor       *int

	provider repository.FlightSearchProvider
	cache    repository.ResultCache
	sections *SectionStateStore
	airlines repository.AirlineRepository
	tuning   PollTuning
	logger   logger.Logger
	metrics  *metrics.Metrics

	// onTerminal reports the terminal status and final result count.
	onTerminal func(status string, resultCount int)

	idleCount    int
	emptyCount   int
	airlineNames map[string]string

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
	done   chan struct{}
	start  time.Time
}

// NewPoller creates a poller for one section's search job. The entry is
// the poller's working set: fresh for a new job, or the cached entry when
// resuming.
func NewPoller(
	key entity.SegmentKey,
	sectionIndex int,
	entry *entity.CacheEntry,
	passengers entity.PassengerCounts,
	provider repository.FlightSearchProvider,
	cache repository.ResultCache,
	sections *SectionStateStore,
	airlines repository.AirlineRepository,
	tuning PollTuning,
	logger logger.Logger,
	m *metrics.Metrics,
	onTerminal func(status string, resultCount int),
) *Poller {
	return &Poller{
		key:          key,
		sectionIndex: sectionIndex,
		jobID:        entry.SearchJobID,
		passengers:   passengers,
		entry:        entry.Clone(),
		cursor:       entry.Cursor,
		provider:     provider,
		cache:        cache,
		sections:     sections,
		airlines:     airlines,
		tuning:       tuning,
		logger:       logger,
		metrics:      m,
		onTerminal:   onTerminal,
		airlineNames: make(map[string]string),
		done:         make(chan struct{}),
	}
}

// Start begins the polling loop on its own goroutine.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.active = true
	p.cancel = cancel
	p.start = time.Now()
	p.mu.Unlock()

	go p.run(runCtx)
}

// Stop deactivates the poller. After Stop returns no further section or
// cache mutation happens: any fetch already in flight checks the active
// flag before acting on its result.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	p.active = false
	p.cancel()
}

// Done is closed when the polling goroutine has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	for {
		if ctx.Err() != nil {
			return
		}

		batch, err := p.fetchWithRetry(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.fail(ctx, err)
			return
		}

		if terminal := p.applyBatch(ctx, batch); terminal {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(p.tuning.Interval):
		}
	}
}

// fetchWithRetry polls once, retrying a failed fetch exactly once after
// the retry delay.
func (p *Poller) fetchWithRetry(ctx context.Context) (*entity.PollBatch, error) {
	if p.metrics != nil {
		p.metrics.PollsTotal.Inc()
	}
	batch, err := p.provider.Poll(ctx, p.jobID, p.cursor)
	if err == nil || !errors.Is(err, repository.ErrProviderUnavailable) || ctx.Err() != nil {
		return batch, err
	}

	p.logger.Warn("Poll fetch failed, retrying once",
		"jobID", p.jobID, "section", p.sectionIndex, "error", err)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(p.tuning.RetryDelay):
	}

	if p.metrics != nil {
		p.metrics.PollsTotal.Inc()
	}
	return p.provider.Poll(ctx, p.jobID, p.cursor)
}

// applyBatch merges one batch and decides whether the loop is done. All
// state mutation happens under the active guard so a stopped poller
// never touches a torn-down section.
func (p *Poller) applyBatch(ctx context.Context, batch *entity.PollBatch) bool {
	percent := utils.ClampPercent(batch.CompletionPercent)
	exhausted := batch.Status == entity.PollStatusNoResults ||
		(len(batch.Flights) == 0 && percent >= 100)

	if exhausted {
		p.complete(ctx)
		return true
	}

	if len(batch.Flights) == 0 {
		p.emptyCount++
		cutoff := p.tuning.EmptyPollCutoffNoResult
		if len(p.entry.Flights) > 0 {
			cutoff = p.tuning.EmptyPollCutoff
		}
		if p.emptyCount > cutoff {
			p.stall(ctx)
			return true
		}
		p.advance(ctx, batch.NextCursor, percent)
		return false
	}

	p.decorateAirlines(ctx, batch.Flights)

	merged, newCount := MergeFlights(p.entry.Flights, batch.Flights, p.passengers)
	p.entry.Flights = merged
	p.emptyCount = 0
	if newCount == 0 && percent < 100 {
		p.idleCount++
	} else {
		p.idleCount = 0
	}
	if p.metrics != nil && newCount > 0 {
		p.metrics.FlightsMerged.Add(float64(newCount))
	}

	if p.idleCount >= p.tuning.IdleCutoff {
		p.stall(ctx)
		return true
	}

	if percent >= 100 {
		p.complete(ctx)
		return true
	}

	p.advance(ctx, batch.NextCursor, percent)
	return false
}

// advance publishes the current merged set and carries the cursor
// forward for the next iteration.
func (p *Poller) advance(ctx context.Context, nextCursor *int, percent int) {
	if nextCursor != nil {
		p.cursor = nextCursor
	}
	p.guarded(func() {
		p.entry.Cursor = p.cursor
		p.cache.Put(ctx, p.key, p.entry)
		flights := p.entry.Flights
		p.sections.Update(p.sectionIndex, func(sec *entity.Section) {
			sec.Flights = flights
			sec.Progress = percent
			sec.Loading = true
		})
	})
}

func (p *Poller) complete(ctx context.Context) {
	p.terminate(ctx, entity.OutcomeComplete, "")
}

func (p *Poller) stall(ctx context.Context) {
	if p.metrics != nil {
		p.metrics.StallsTotal.Inc()
	}
	message := msgStalledPartial
	if len(p.entry.Flights) == 0 {
		message = msgStalledNoResults
	}
	p.logger.Warn("Search stalled",
		"jobID", p.jobID,
		"section", p.sectionIndex,
		"results", len(p.entry.Flights))
	p.terminate(ctx, entity.OutcomeStalled, message)
}

func (p *Poller) fail(ctx context.Context, err error) {
	if p.metrics != nil {
		p.metrics.ErrorsCount.WithLabelValues("poll").Inc()
	}
	message := msgErroredPartial
	if len(p.entry.Flights) == 0 {
		message = msgErroredNoResults
	}
	p.logger.Error("Search errored",
		"jobID", p.jobID,
		"section", p.sectionIndex,
		"results", len(p.entry.Flights),
		"error", err)
	p.terminate(ctx, entity.OutcomeErrored, message)
}

// terminate moves the section to a terminal state. Partial results are
// preserved in both the section and the cache; the spinner stops either
// way.
func (p *Poller) terminate(ctx context.Context, status, message string) {
	var resultCount int
	acted := false

	p.guarded(func() {
		acted = true
		p.entry.IsComplete = status == entity.OutcomeComplete
		p.entry.Cursor = p.cursor
		p.cache.Put(ctx, p.key, p.entry)

		flights := p.entry.Flights
		resultCount = len(flights)
		p.sections.Update(p.sectionIndex, func(sec *entity.Section) {
			sec.Flights = flights
			sec.IsComplete = true
			sec.Loading = false
			sec.Progress = 100
			sec.Error = message
		})
	})

	if !acted {
		return
	}

	if errors.Is(ctx.Err(), context.Canceled) {
		return
	}
	if p.metrics != nil {
		p.metrics.SearchDuration.Observe(time.Since(p.start).Seconds())
	}
	if p.onTerminal != nil {
		p.onTerminal(status, resultCount)
	}
}

// decorateAirlines fills in missing carrier display names from the
// reference repository, memoizing lookups per poller.
func (p *Poller) decorateAirlines(ctx context.Context, flights []entity.FlightRecord) {
	if p.airlines == nil {
		return
	}
	for i := range flights {
		if flights[i].AirlineName != "" || flights[i].AirlineCode == "" {
			continue
		}
		name, ok := p.airlineNames[flights[i].AirlineCode]
		if !ok {
			airline, err := p.airlines.GetByCode(ctx, flights[i].AirlineCode)
			if err != nil {
				// Cache the miss so one unknown code costs one query.
				p.airlineNames[flights[i].AirlineCode] = ""
				continue
			}
			name = airline.Name
			p.airlineNames[flights[i].AirlineCode] = name
		}
		flights[i].AirlineName = name
	}
}

// guarded runs fn only while the poller is still active, holding the
// lock so Stop cannot interleave with a mutation.
func (p *Poller) guarded(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	fn()
}
