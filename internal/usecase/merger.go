package usecase

import (
	"flightsearch-service/internal/domain/entity"
)

// MergeFlights merges an incoming batch into an existing result set,
// de-duplicating by trip id. Records keep their arrival order: known
// trips are overwritten in place, unknown trips are appended. Merging
// the same batch twice is a no-op with a zero new-count.
//
// Every incoming record is re-stamped with the current passenger counts
// first: a long-running job may have been started under stale counts
// when resumed from cache, and display must reflect the live request.
func MergeFlights(existing, incoming []entity.FlightRecord, passengers entity.PassengerCounts) ([]entity.FlightRecord, int) {
	merged := make([]entity.FlightRecord, len(existing))
	copy(merged, existing)

	position := make(map[string]int, len(merged))
	for i, f := range merged {
		position[f.TripID] = i
	}

	newCount := 0
	for _, f := range incoming {
		f.Passengers = passengers
		if i, ok := position[f.TripID]; ok {
			merged[i] = f
			continue
		}
		position[f.TripID] = len(merged)
		merged = append(merged, f)
		newCount++
	}

	return merged, newCount
}

// RestampPassengers returns a copy of the flights with the passenger
// counts replaced by the live request's counts.
func RestampPassengers(flights []entity.FlightRecord, passengers entity.PassengerCounts) []entity.FlightRecord {
	stamped := make([]entity.FlightRecord, len(flights))
	for i, f := range flights {
		f.Passengers = passengers
		stamped[i] = f
	}
	return stamped
}
