package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"flightsearch-service/internal/domain/entity"
	"flightsearch-service/internal/domain/repository"
	"flightsearch-service/pkg/logger"
	"flightsearch-service/pkg/utils"
)

// Client talks to the upstream asynchronous flight-search API. Search
// jobs are started with a POST and drained incrementally with GET polls
// carrying a "last result" cursor.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates a new flight-search provider client
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration, logger logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if httpClient.Timeout == 0 {
		httpClient.Timeout = timeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

var _ repository.FlightSearchProvider = (*Client)(nil)

type startSearchRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	CabinClass  string `json:"cabinClass"`
	DirectOnly  bool   `json:"directOnly"`
	Adults      int    `json:"adults"`
	Children    int    `json:"children"`
	Infants     int    `json:"infants"`
}

type startSearchResponse struct {
	JobID string `json:"jobId"`
}

type pollResponse struct {
	Flights           []flightPayload `json:"flights"`
	CompletionPercent int             `json:"completionPercent"`
	NextCursor        *int            `json:"nextCursor,omitempty"`
	Status            string          `json:"status,omitempty"`
}

type flightPayload struct {
	TripID          string  `json:"tripId"`
	AirlineCode     string  `json:"airlineCode"`
	AirlineName     string  `json:"airlineName,omitempty"`
	FlightNumber    string  `json:"flightNumber"`
	DepartAirport   string  `json:"departAirport"`
	DepartTime      string  `json:"departTime"`
	ArriveAirport   string  `json:"arriveAirport"`
	ArriveTime      string  `json:"arriveTime"`
	DurationMinutes int     `json:"durationMinutes"`
	Stops           int     `json:"stops"`
	CabinClass      string  `json:"cabinClass"`
	PriceAmount     float64 `json:"priceAmount"`
	PriceCurrency   string  `json:"priceCurrency"`
	Adults          int     `json:"adults"`
	Children        int     `json:"children"`
	Infants         int     `json:"infants"`
}

// StartSearch begins an asynchronous search job and returns its id
func (c *Client) StartSearch(ctx context.Context, req entity.SearchRequest) (string, error) {
	payload := startSearchRequest{
		Origin:      entity.NormalizeLocationCode(req.Leg.Origin),
		Destination: entity.NormalizeLocationCode(req.Leg.Destination),
		Date:        utils.FormatDate(req.Leg.DepartureDate),
		CabinClass:  entity.NormalizeCabinClass(req.CabinClass),
		DirectOnly:  req.DirectOnly,
		Adults:      req.Passengers.Adults,
		Children:    req.Passengers.Children,
		Infants:     req.Passengers.Infants,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal start request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/flights/search", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build start request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", repository.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return "", err
	}

	var out startSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: malformed start response: %v", repository.ErrProviderUnavailable, err)
	}
	if out.JobID == "" {
		return "", fmt.Errorf("%w: empty job id", repository.ErrProviderUnavailable)
	}

	c.logger.Debug("Search job started",
		"jobID", out.JobID,
		"origin", payload.Origin,
		"destination", payload.Destination,
		"date", payload.Date)

	return out.JobID, nil
}

// Poll fetches one incremental result batch for a running job
func (c *Client) Poll(ctx context.Context, jobID string, cursor *int) (*entity.PollBatch, error) {
	url := c.baseURL + "/api/v1/flights/search/" + jobID
	if cursor != nil {
		url += "?last_result=" + strconv.Itoa(*cursor)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build poll request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var out pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: malformed poll response: %v", repository.ErrProviderUnavailable, err)
	}

	batch := &entity.PollBatch{
		Flights:           make([]entity.FlightRecord, 0, len(out.Flights)),
		CompletionPercent: utils.ClampPercent(out.CompletionPercent),
		NextCursor:        out.NextCursor,
		Status:            out.Status,
	}
	if batch.Status == "" {
		batch.Status = entity.PollStatusOK
	}
	for _, f := range out.Flights {
		batch.Flights = append(batch.Flights, f.toRecord())
	}

	return batch, nil
}

func (f flightPayload) toRecord() entity.FlightRecord {
	departTime, _ := time.Parse(time.RFC3339, f.DepartTime)
	arriveTime, _ := time.Parse(time.RFC3339, f.ArriveTime)

	return entity.FlightRecord{
		TripID:       f.TripID,
		AirlineCode:  entity.NormalizeLocationCode(f.AirlineCode),
		AirlineName:  f.AirlineName,
		FlightNumber: f.FlightNumber,
		Departure: entity.FlightStop{
			Airport: entity.NormalizeLocationCode(f.DepartAirport),
			Time:    departTime,
		},
		Arrival: entity.FlightStop{
			Airport: entity.NormalizeLocationCode(f.ArriveAirport),
			Time:    arriveTime,
		},
		DurationMinutes: f.DurationMinutes,
		Stops:           f.Stops,
		CabinClass:      entity.NormalizeCabinClass(f.CabinClass),
		Price: entity.Price{
			Amount:   f.PriceAmount,
			Currency: f.PriceCurrency,
		},
		Passengers: entity.PassengerCounts{
			Adults:   f.Adults,
			Children: f.Children,
			Infants:  f.Infants,
		},
	}
}

func mapStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: status %d", repository.ErrInvalidParameters, code)
	default:
		return fmt.Errorf("%w: status %d", repository.ErrProviderUnavailable, code)
	}
}
