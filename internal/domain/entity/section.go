package entity

import (
	"time"
)

// SectionParams are the display parameters a section was created for.
type SectionParams struct {
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureDate time.Time `json:"departureDate"`
}

// Section is the externally visible state of one search leg. The
// presentation layer observes sections and nothing else; one section per
// requested leg, never shared across legs. Flights keep their arrival
// order and are not re-sorted.
type Section struct {
	SearchIndex  int            `json:"searchIndex"`
	Params       SectionParams  `json:"params"`
	Flights      []FlightRecord `json:"flights"`
	IsComplete   bool           `json:"isComplete"`
	HasMore      bool           `json:"hasMore"`
	Loading      bool           `json:"loading"`
	Error        string         `json:"error,omitempty"`
	VisibleCount int            `json:"visibleCount"`
	Progress     int            `json:"progress"`
}

// Visible returns the flights revealed so far. VisibleCount is a
// client-side reveal cursor and is independent of how much has been
// fetched.
func (s *Section) Visible() []FlightRecord {
	if s.VisibleCount >= len(s.Flights) {
		return s.Flights
	}
	return s.Flights[:s.VisibleCount]
}

// Clone returns a deep copy safe to hand to observers.
func (s *Section) Clone() Section {
	clone := *s
	clone.Flights = make([]FlightRecord, len(s.Flights))
	copy(clone.Flights, s.Flights)
	return clone
}
