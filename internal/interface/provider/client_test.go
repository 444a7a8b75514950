package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flightsearch-service/internal/domain/entity"
	"flightsearch-service/internal/domain/repository"
	"flightsearch-service/pkg/logger"
	"flightsearch-service/pkg/utils"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client(), 5*time.Second, logger.NewNopLogger())
}

func searchRequest() entity.SearchRequest {
	return entity.SearchRequest{
		Leg: entity.SearchLeg{
			Origin:        "fra",
			Destination:   "jfk",
			DepartureDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		},
		Passengers: entity.PassengerCounts{Adults: 2, Children: 1},
		CabinClass: "Economy",
		DirectOnly: true,
	}
}

func TestStartSearchSendsNormalizedRequest(t *testing.T) {
	var received map[string]interface{}
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/flights/search", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]string{"jobId": "job-42"})
	})

	jobID, err := client.StartSearch(context.Background(), searchRequest())
	require.NoError(t, err)
	require.Equal(t, "job-42", jobID)

	require.Equal(t, "FRA", received["origin"])
	require.Equal(t, "JFK", received["destination"])
	require.Equal(t, "2026-09-15", received["date"])
	require.Equal(t, "economy", received["cabinClass"])
	require.Equal(t, true, received["directOnly"])
	require.Equal(t, float64(2), received["adults"])
	require.Equal(t, float64(1), received["children"])
}

func TestStartSearchMapsErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"bad request", http.StatusBadRequest, repository.ErrInvalidParameters},
		{"unprocessable", http.StatusUnprocessableEntity, repository.ErrInvalidParameters},
		{"server error", http.StatusInternalServerError, repository.ErrProviderUnavailable},
		{"bad gateway", http.StatusBadGateway, repository.ErrProviderUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, err := client.StartSearch(context.Background(), searchRequest())
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestStartSearchNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	client := NewClient(srv.URL, nil, time.Second, logger.NewNopLogger())

	_, err := client.StartSearch(context.Background(), searchRequest())
	require.ErrorIs(t, err, repository.ErrProviderUnavailable)
}

func TestStartSearchRejectsEmptyJobID(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	})
	_, err := client.StartSearch(context.Background(), searchRequest())
	require.ErrorIs(t, err, repository.ErrProviderUnavailable)
}

func TestPollDecodesBatch(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/flights/search/job-42", r.URL.Path)
		require.Equal(t, "17", r.URL.Query().Get("last_result"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"flights": []map[string]interface{}{{
				"tripId":          "t1",
				"airlineCode":     "lh",
				"flightNumber":    "LH400",
				"departAirport":   "fra",
				"departTime":      "2026-09-15T08:30:00Z",
				"arriveAirport":   "jfk",
				"arriveTime":      "2026-09-15T11:45:00Z",
				"durationMinutes": 495,
				"stops":           0,
				"cabinClass":      "ECONOMY",
				"priceAmount":     612.40,
				"priceCurrency":   "USD",
				"adults":          2,
			}},
			"completionPercent": 60,
			"nextCursor":        18,
		})
	})

	batch, err := client.Poll(context.Background(), "job-42", utils.IntPtr(17))
	require.NoError(t, err)

	require.Equal(t, 60, batch.CompletionPercent)
	require.Equal(t, 18, *batch.NextCursor)
	require.Equal(t, entity.PollStatusOK, batch.Status, "missing status defaults to ok")

	require.Len(t, batch.Flights, 1)
	f := batch.Flights[0]
	require.Equal(t, "t1", f.TripID)
	require.Equal(t, "LH", f.AirlineCode)
	require.Equal(t, "FRA", f.Departure.Airport)
	require.Equal(t, "JFK", f.Arrival.Airport)
	require.Equal(t, "economy", f.CabinClass)
	require.Equal(t, 612.40, f.Price.Amount)
	require.Equal(t, 2, f.Passengers.Adults)
	require.False(t, f.Departure.Time.IsZero())
}

func TestPollOmitsCursorWhenNil(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.False(t, r.URL.Query().Has("last_result"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"completionPercent": 0,
			"status":            "no_results",
		})
	})

	batch, err := client.Poll(context.Background(), "job-42", nil)
	require.NoError(t, err)
	require.Equal(t, entity.PollStatusNoResults, batch.Status)
	require.Empty(t, batch.Flights)
	require.Nil(t, batch.NextCursor)
}

func TestPollClampsCompletionPercent(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"completionPercent": 250})
	})

	batch, err := client.Poll(context.Background(), "job-42", nil)
	require.NoError(t, err)
	require.Equal(t, 100, batch.CompletionPercent)
}
