package utils

import "time"

// DateLayout is the wire format for travel dates.
const DateLayout = "2006-01-02"

// FormatDate renders a travel date in the wire format.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a travel date in the wire format.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// ClampPercent bounds a completion percentage to [0, 100].
func ClampPercent(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}

// IntPtr returns a pointer to the given int.
func IntPtr(value int) *int {
	return &value
}
