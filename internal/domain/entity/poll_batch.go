package entity

// Poll statuses reported by the upstream provider.
const (
	PollStatusOK        = "ok"
	PollStatusNoResults = "no_results"
)

// SearchRequest is one "begin asynchronous search" call to the upstream
// provider.
type SearchRequest struct {
	Leg        SearchLeg
	Passengers PassengerCounts
	CabinClass string
	DirectOnly bool
}

// PollBatch is one incremental result fetch for a running search job.
// NextCursor carries the provider's "last result" pagination token; nil
// means the provider did not advance it.
type PollBatch struct {
	Flights           []FlightRecord
	CompletionPercent int
	NextCursor        *int
	Status            string
}
