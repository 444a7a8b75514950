package entity

import (
	"time"
)

// Price is the total fare for the requested passenger counts.
type Price struct {
	Amount   float64 `json:"amount" bson:"amount"`
	Currency string  `json:"currency" bson:"currency"`
}

// FlightStop is one airport touch point within an itinerary.
type FlightStop struct {
	Airport string    `json:"airport" bson:"airport"`
	Time    time.Time `json:"time" bson:"time"`
}

// FlightRecord is one priced itinerary option returned by the upstream
// provider. TripID is provider-assigned and unique within one segment's
// result set; a record is immutable once merged, only set membership and
// the passenger stamp change.
type FlightRecord struct {
	TripID          string          `json:"tripId" bson:"tripId"`
	AirlineCode     string          `json:"airlineCode" bson:"airlineCode"`
	AirlineName     string          `json:"airlineName,omitempty" bson:"airlineName,omitempty"`
	FlightNumber    string          `json:"flightNumber" bson:"flightNumber"`
	Departure       FlightStop      `json:"departure" bson:"departure"`
	Arrival         FlightStop      `json:"arrival" bson:"arrival"`
	DurationMinutes int             `json:"durationMinutes" bson:"durationMinutes"`
	Stops           int             `json:"stops" bson:"stops"`
	CabinClass      string          `json:"cabinClass" bson:"cabinClass"`
	Price           Price           `json:"price" bson:"price"`
	Passengers      PassengerCounts `json:"passengers" bson:"passengers"`
}
