package rest

import (
	"fmt"

	"flightsearch-service/internal/domain/entity"
	"flightsearch-service/pkg/utils"
)

type searchLegRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departureDate"`
}

type searchRequest struct {
	Legs       []searchLegRequest `json:"legs"`
	Adults     int                `json:"adults"`
	Children   int                `json:"children"`
	Infants    int                `json:"infants"`
	CabinClass string             `json:"cabinClass"`
	DirectOnly bool               `json:"directOnly"`
}

type searchResponse struct {
	SearchID string `json:"searchId"`
}

type sectionsResponse struct {
	Sections []sectionView `json:"sections"`
}

type sectionView struct {
	SearchIndex  int                   `json:"searchIndex"`
	Origin       string                `json:"origin"`
	Destination  string                `json:"destination"`
	Date         string                `json:"date"`
	Flights      []entity.FlightRecord `json:"flights"`
	TotalFound   int                   `json:"totalFound"`
	IsComplete   bool                  `json:"isComplete"`
	HasMore      bool                  `json:"hasMore"`
	Loading      bool                  `json:"loading"`
	Error        string                `json:"error,omitempty"`
	VisibleCount int                   `json:"visibleCount"`
	Progress     int                   `json:"progress"`
}

func (r searchRequest) toLegs() ([]entity.SearchLeg, error) {
	legs := make([]entity.SearchLeg, 0, len(r.Legs))
	for i, leg := range r.Legs {
		if leg.Origin == "" || leg.Destination == "" {
			return nil, fmt.Errorf("leg %d: origin and destination are required", i)
		}
		date, err := utils.ParseDate(leg.DepartureDate)
		if err != nil {
			return nil, fmt.Errorf("leg %d: departureDate must be YYYY-MM-DD", i)
		}
		legs = append(legs, entity.SearchLeg{
			Origin:        leg.Origin,
			Destination:   leg.Destination,
			DepartureDate: date,
		})
	}
	return legs, nil
}

func toSectionView(sec entity.Section) sectionView {
	return sectionView{
		SearchIndex:  sec.SearchIndex,
		Origin:       sec.Params.Origin,
		Destination:  sec.Params.Destination,
		Date:         utils.FormatDate(sec.Params.DepartureDate),
		Flights:      sec.Visible(),
		TotalFound:   len(sec.Flights),
		IsComplete:   sec.IsComplete,
		HasMore:      sec.HasMore,
		Loading:      sec.Loading,
		Error:        sec.Error,
		VisibleCount: sec.VisibleCount,
		Progress:     sec.Progress,
	}
}
