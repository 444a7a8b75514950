package entity

import (
	"time"
)

// Terminal states a search leg can end in.
const (
	OutcomeComplete = "complete"
	OutcomeStalled  = "stalled"
	OutcomeErrored  = "errored"
)

// SearchOutcome is the terminal record for one segment search, archived
// best-effort for analytics.
type SearchOutcome struct {
	ID            string     `bson:"_id,omitempty"`
	SegmentKey    string     `bson:"segmentKey"`
	SearchJobID   string     `bson:"searchJobId,omitempty"`
	Origin        string     `bson:"origin"`
	Destination   string     `bson:"destination"`
	DepartureDate time.Time  `bson:"departureDate"`
	Status        string     `bson:"status"`
	ResultCount   int        `bson:"resultCount"`
	DurationMs    int64      `bson:"durationMs"`
	CompletedAt   *time.Time `bson:"completedAt,omitempty"`
	CreatedAt     time.Time  `bson:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt"`
}
