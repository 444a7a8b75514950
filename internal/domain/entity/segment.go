package entity

import (
	"fmt"
	"strings"
	"time"
)

// SearchLeg is one origin -> destination -> date request within a
// multi-city search. Up to three legs make up one top-level search.
type SearchLeg struct {
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureDate time.Time `json:"departureDate"`
}

// SegmentKey identifies one search intent. Equal intents always build
// equal keys; the fields are fully enumerated, never hashed.
type SegmentKey string

// BuildSegmentKey derives the canonical cache/dedup key for a leg. Cache
// lookup, pending-request lookup and cache writes must all go through this
// function - any divergence breaks deduplication silently.
func BuildSegmentKey(leg SearchLeg, pax PassengerCounts, cabinClass string, directOnly bool) SegmentKey {
	return SegmentKey(fmt.Sprintf("%s|%s|%s|%s|%t|%d|%d|%d",
		NormalizeLocationCode(leg.Origin),
		NormalizeLocationCode(leg.Destination),
		leg.DepartureDate.Format("2006-01-02"),
		NormalizeCabinClass(cabinClass),
		directOnly,
		pax.Adults,
		pax.Children,
		pax.Infants,
	))
}

// NormalizeLocationCode upper-cases and trims an IATA airport or city code.
func NormalizeLocationCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeCabinClass lower-cases and trims a cabin class, defaulting to
// economy when empty.
func NormalizeCabinClass(cabin string) string {
	cabin = strings.ToLower(strings.TrimSpace(cabin))
	if cabin == "" {
		return "economy"
	}
	return cabin
}
