package entity

import (
	"time"
)

// Airline is a carrier reference record used to decorate flight results
// with a display name.
type Airline struct {
	ID        uint
	Code      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
