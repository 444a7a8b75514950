package entity

// PassengerCounts holds the requested traveller breakdown for a search.
type PassengerCounts struct {
	Adults   int `json:"adults" bson:"adults"`
	Children int `json:"children" bson:"children"`
	Infants  int `json:"infants" bson:"infants"`
}

// Total returns the number of seats the search is priced for.
func (p PassengerCounts) Total() int {
	return p.Adults + p.Children + p.Infants
}
