package repository

import (
	"context"
	"errors"

	"flightsearch-service/internal/domain/entity"
)

// ErrProviderUnavailable indicates a network failure or upstream 5xx on a
// start or poll call. Callers retry once before surfacing it.
var ErrProviderUnavailable = errors.New("flight provider unavailable")

// ErrInvalidParameters indicates the provider rejected the search request.
var ErrInvalidParameters = errors.New("invalid search parameters")

// FlightSearchProvider defines the interface to the upstream asynchronous
// flight-search API. StartSearch begins a job and returns its id; Poll
// fetches one incremental batch for a running job.
type FlightSearchProvider interface {
	StartSearch(ctx context.Context, req entity.SearchRequest) (string, error)
	Poll(ctx context.Context, jobID string, cursor *int) (*entity.PollBatch, error)
}
