package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flightsearch-service/internal/domain/entity"
	"flightsearch-service/internal/domain/repository"
	"flightsearch-service/internal/interface/cache"
	"flightsearch-service/pkg/logger"
	"flightsearch-service/pkg/utils"
)

func newTestOrchestrator(p repository.FlightSearchProvider, c repository.ResultCache, archive repository.SearchArchiveRepository) *Orchestrator {
	cfg := DefaultSearchConfig()
	cfg.Tuning = fastTuning()
	return NewOrchestrator(p, c, NewPendingRequestRegistry(), nil, archive, cfg, logger.NewNopLogger(), nil)
}

func legsFor(pairs ...[2]string) []entity.SearchLeg {
	legs := make([]entity.SearchLeg, len(pairs))
	base := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	for i, pair := range pairs {
		legs[i] = entity.SearchLeg{
			Origin:        pair[0],
			Destination:   pair[1],
			DepartureDate: base.AddDate(0, 0, i),
		}
	}
	return legs
}

// completingProvider finishes every job on the first poll with one
// flight derived from the job id.
func completingProvider() *fakeProvider {
	p := &fakeProvider{}
	p.startFn = func(req entity.SearchRequest) (string, error) {
		return "job-" + req.Leg.Origin, nil
	}
	p.pollFn = func(_ int, jobID string, _ *int) (*entity.PollBatch, error) {
		return &entity.PollBatch{
			Flights:           []entity.FlightRecord{flight("trip-"+jobID, 100)},
			CompletionPercent: 100,
			Status:            entity.PollStatusOK,
		}, nil
	}
	return p
}

func allComplete(o *Orchestrator) func() bool {
	return func() bool {
		sections := o.Sections()
		if len(sections) == 0 {
			return false
		}
		for _, sec := range sections {
			if !sec.IsComplete {
				return false
			}
		}
		return true
	}
}

func TestStartSearchThreeIndependentLegs(t *testing.T) {
	provider := completingProvider()
	o := newTestOrchestrator(provider, cache.NewMemoryResultCache(5*time.Minute), nil)
	defer o.Stop()

	searchID, err := o.StartSearch(context.Background(),
		legsFor([2]string{"AAA", "BBB"}, [2]string{"BBB", "CCC"}, [2]string{"CCC", "DDD"}),
		entity.PassengerCounts{Adults: 2}, "economy", false)
	require.NoError(t, err)
	require.NotEmpty(t, searchID)

	sections := o.Sections()
	require.Len(t, sections, 3)
	for i, sec := range sections {
		require.Equal(t, i, sec.SearchIndex)
		require.Equal(t, 4, sec.VisibleCount)
	}

	require.Eventually(t, allComplete(o), 5*time.Second, 5*time.Millisecond)

	require.Equal(t, 3, provider.starts())
	sections = o.Sections()
	require.Equal(t, []string{"trip-job-AAA"}, tripIDs(sections[0].Flights))
	require.Equal(t, []string{"trip-job-BBB"}, tripIDs(sections[1].Flights))
	require.Equal(t, []string{"trip-job-CCC"}, tripIDs(sections[2].Flights))
	for _, sec := range sections {
		require.Equal(t, entity.PassengerCounts{Adults: 2}, sec.Flights[0].Passengers)
	}
}

func TestStartSearchValidatesLegCount(t *testing.T) {
	o := newTestOrchestrator(completingProvider(), cache.NewMemoryResultCache(time.Minute), nil)
	defer o.Stop()

	_, err := o.StartSearch(context.Background(), nil, entity.PassengerCounts{Adults: 1}, "economy", false)
	require.ErrorIs(t, err, ErrNoLegs)

	_, err = o.StartSearch(context.Background(),
		legsFor([2]string{"A", "B"}, [2]string{"B", "C"}, [2]string{"C", "D"}, [2]string{"D", "E"}),
		entity.PassengerCounts{Adults: 1}, "economy", false)
	require.ErrorIs(t, err, ErrTooManyLegs)
}

func TestConcurrentIdenticalLegsStartOneJob(t *testing.T) {
	provider := completingProvider()
	inner := provider.startFn
	provider.startFn = func(req entity.SearchRequest) (string, error) {
		// Hold the start open so both legs join the same pending entry.
		time.Sleep(50 * time.Millisecond)
		return inner(req)
	}

	o := newTestOrchestrator(provider, cache.NewMemoryResultCache(5*time.Minute), nil)
	defer o.Stop()

	// Two legs with the byte-identical search intent.
	leg := entity.SearchLeg{
		Origin:        "FRA",
		Destination:   "JFK",
		DepartureDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
	}
	_, err := o.StartSearch(context.Background(), []entity.SearchLeg{leg, leg},
		entity.PassengerCounts{Adults: 1}, "economy", false)
	require.NoError(t, err)
	require.Eventually(t, allComplete(o), 5*time.Second, 5*time.Millisecond)

	require.Equal(t, 1, provider.starts(), "concurrent identical keys share one upstream start")
}

func TestRepeatedIdenticalSearchHitsCache(t *testing.T) {
	provider := completingProvider()
	o := newTestOrchestrator(provider, cache.NewMemoryResultCache(5*time.Minute), nil)
	defer o.Stop()

	legs := legsFor([2]string{"FRA", "JFK"})
	pax := entity.PassengerCounts{Adults: 1}

	_, err := o.StartSearch(context.Background(), legs, pax, "economy", false)
	require.NoError(t, err)
	require.Eventually(t, allComplete(o), 5*time.Second, 5*time.Millisecond)
	require.Equal(t, 1, provider.starts())
	pollsAfterFirst := provider.polls()

	_, err = o.StartSearch(context.Background(), legs, pax, "economy", false)
	require.NoError(t, err)
	require.Eventually(t, allComplete(o), 5*time.Second, 5*time.Millisecond)

	require.Equal(t, 1, provider.starts(), "second identical search must not start a new job")
	require.Equal(t, pollsAfterFirst, provider.polls(), "cache-complete legs are not re-polled")
	require.Equal(t, []string{"trip-job-FRA"}, tripIDs(o.Sections()[0].Flights))
}

func TestHydrateRestampsPassengersAndResumesCursor(t *testing.T) {
	provider := &fakeProvider{
		pollFn: func(int, string, *int) (*entity.PollBatch, error) {
			return &entity.PollBatch{CompletionPercent: 100, Status: entity.PollStatusOK}, nil
		},
	}
	resultCache := cache.NewMemoryResultCache(5 * time.Minute)

	legs := legsFor([2]string{"FRA", "JFK"})
	stale := entity.PassengerCounts{Adults: 1}
	live := entity.PassengerCounts{Adults: 2}

	// An unfinished job cached under the live request's key, started when
	// only one adult was requested.
	key := entity.BuildSegmentKey(legs[0], live, "economy", false)
	cachedFlight := flight("t1", 100)
	cachedFlight.Passengers = stale
	resultCache.Put(context.Background(), key, &entity.CacheEntry{
		Key:         key,
		SearchJobID: "job-resume",
		Flights:     []entity.FlightRecord{cachedFlight},
		Cursor:      utils.IntPtr(7),
		CreatedAt:   time.Now(),
	})

	o := newTestOrchestrator(provider, resultCache, nil)
	defer o.Stop()

	_, err := o.StartSearch(context.Background(), legs, live, "economy", false)
	require.NoError(t, err)
	require.Eventually(t, allComplete(o), 5*time.Second, 5*time.Millisecond)

	require.Zero(t, provider.starts(), "resume must not start a new upstream job")
	require.Equal(t, 7, *provider.cursors[0], "polling resumes from the cached cursor")

	sec := o.Sections()[0]
	require.Equal(t, []string{"t1"}, tripIDs(sec.Flights))
	require.Equal(t, live, sec.Flights[0].Passengers, "cached records re-stamped with live counts")
}

func TestStartFailureIsolatedToOneLeg(t *testing.T) {
	provider := completingProvider()
	inner := provider.startFn
	provider.startFn = func(req entity.SearchRequest) (string, error) {
		if req.Leg.Origin == "BBB" {
			return "", fmt.Errorf("%w: status 503", repository.ErrProviderUnavailable)
		}
		return inner(req)
	}

	o := newTestOrchestrator(provider, cache.NewMemoryResultCache(5*time.Minute), nil)
	defer o.Stop()

	_, err := o.StartSearch(context.Background(),
		legsFor([2]string{"AAA", "BBB"}, [2]string{"BBB", "CCC"}),
		entity.PassengerCounts{Adults: 1}, "economy", false)
	require.NoError(t, err)
	require.Eventually(t, allComplete(o), 5*time.Second, 5*time.Millisecond)

	sections := o.Sections()
	require.Empty(t, sections[0].Error)
	require.Equal(t, []string{"trip-job-AAA"}, tripIDs(sections[0].Flights))

	require.Equal(t, msgStartFailed, sections[1].Error)
	require.Empty(t, sections[1].Flights)
	require.False(t, sections[1].Loading)
}

func TestLoadMoreRevealsWithoutNetwork(t *testing.T) {
	provider := completingProvider()
	o := newTestOrchestrator(provider, cache.NewMemoryResultCache(5*time.Minute), nil)
	defer o.Stop()

	_, err := o.StartSearch(context.Background(), legsFor([2]string{"FRA", "JFK"}),
		entity.PassengerCounts{Adults: 1}, "economy", false)
	require.NoError(t, err)
	require.Eventually(t, allComplete(o), 5*time.Second, 5*time.Millisecond)

	polls := provider.polls()
	o.LoadMore(0)

	sec := o.Sections()[0]
	require.Equal(t, 8, sec.VisibleCount)
	require.Equal(t, polls, provider.polls(), "load-more never touches the network")

	// Out-of-range indices are a defensive no-op.
	o.LoadMore(7)
}

func TestStopDeactivatesPollers(t *testing.T) {
	block := make(chan struct{})
	provider := &fakeProvider{
		startFn: func(entity.SearchRequest) (string, error) { return "job-1", nil },
		pollFn: func(int, string, *int) (*entity.PollBatch, error) {
			select {
			case <-block:
			case <-time.After(time.Second):
			}
			return &entity.PollBatch{CompletionPercent: 10, Status: entity.PollStatusOK}, nil
		},
	}

	o := newTestOrchestrator(provider, cache.NewMemoryResultCache(5*time.Minute), nil)

	_, err := o.StartSearch(context.Background(), legsFor([2]string{"FRA", "JFK"}),
		entity.PassengerCounts{Adults: 1}, "economy", false)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return provider.polls() > 0 }, 2*time.Second, time.Millisecond)
	o.Stop()
	close(block)

	time.Sleep(50 * time.Millisecond)
	polls := provider.polls()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, polls, provider.polls(), "no poll may run after Stop returned")

	sec := o.Sections()[0]
	require.False(t, sec.IsComplete, "a stopped section is left as-is")
}

func TestReplacedSearchLegCannotMutateSuccessor(t *testing.T) {
	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	provider := completingProvider()
	inner := provider.startFn
	provider.startFn = func(req entity.SearchRequest) (string, error) {
		if req.Leg.Origin == "OLD" {
			entered <- struct{}{}
			<-release
			return "", fmt.Errorf("%w: status 503", repository.ErrProviderUnavailable)
		}
		return inner(req)
	}

	o := newTestOrchestrator(provider, cache.NewMemoryResultCache(5*time.Minute), nil)
	defer o.Stop()

	_, err := o.StartSearch(context.Background(), legsFor([2]string{"OLD", "XXX"}),
		entity.PassengerCounts{Adults: 1}, "economy", false)
	require.NoError(t, err)
	<-entered // the first search's leg is held inside its upstream start

	_, err = o.StartSearch(context.Background(), legsFor([2]string{"NEW", "YYY"}),
		entity.PassengerCounts{Adults: 1}, "economy", false)
	require.NoError(t, err)
	require.Eventually(t, allComplete(o), 5*time.Second, 5*time.Millisecond)

	// The stale leg's start now fails; both searches share section
	// index 0, so an unguarded failure would overwrite the live one.
	close(release)
	time.Sleep(50 * time.Millisecond)

	sec := o.Sections()[0]
	require.Empty(t, sec.Error, "a leg from a replaced search must not touch its successor's sections")
	require.Equal(t, []string{"trip-job-NEW"}, tripIDs(sec.Flights))
	require.True(t, sec.IsComplete)
}

type stubArchive struct {
	mu       sync.Mutex
	outcomes []entity.SearchOutcome
}

func (a *stubArchive) RecordOutcome(_ context.Context, outcome *entity.SearchOutcome) error {
	a.mu.Lock()
	a.outcomes = append(a.outcomes, *outcome)
	a.mu.Unlock()
	return nil
}

func (a *stubArchive) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.outcomes)
}

func TestTerminalOutcomeArchived(t *testing.T) {
	archive := &stubArchive{}
	o := newTestOrchestrator(completingProvider(), cache.NewMemoryResultCache(5*time.Minute), archive)
	defer o.Stop()

	_, err := o.StartSearch(context.Background(), legsFor([2]string{"FRA", "JFK"}),
		entity.PassengerCounts{Adults: 1}, "economy", false)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return archive.count() == 1 }, 5*time.Second, 5*time.Millisecond)

	archive.mu.Lock()
	outcome := archive.outcomes[0]
	archive.mu.Unlock()
	require.Equal(t, entity.OutcomeComplete, outcome.Status)
	require.Equal(t, "FRA", outcome.Origin)
	require.Equal(t, "JFK", outcome.Destination)
	require.Equal(t, 1, outcome.ResultCount)
	require.Equal(t, "job-FRA", outcome.SearchJobID)
}
