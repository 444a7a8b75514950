// Smoke test for the upstream flight-search provider: starts one search
// job and runs a single poll round-trip with the configured credentials.
//
//	go run ./cmd/utils FRA JFK 2026-09-15
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"flightsearch-service/internal/domain/entity"
	"flightsearch-service/internal/infrastructure/config"
	"flightsearch-service/internal/infrastructure/oauth"
	"flightsearch-service/internal/interface/provider"
	"flightsearch-service/pkg/logger"
	"flightsearch-service/pkg/utils"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: check_provider <origin> <destination> <YYYY-MM-DD>")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	date, err := utils.ParseDate(os.Args[3])
	if err != nil {
		log.Fatalf("invalid date %q: %v", os.Args[3], err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	lg := logger.NewLogger()
	providerOAuth := oauth.NewProviderOAuth(cfg.ProviderTokenURL, cfg.ProviderClientID, cfg.ProviderClientSecret, lg)
	client := provider.NewClient(cfg.ProviderBaseURL, providerOAuth.HTTPClient(ctx), cfg.ProviderTimeout, lg)

	jobID, err := client.StartSearch(ctx, entity.SearchRequest{
		Leg: entity.SearchLeg{
			Origin:        os.Args[1],
			Destination:   os.Args[2],
			DepartureDate: date,
		},
		Passengers: entity.PassengerCounts{Adults: 1},
		CabinClass: "economy",
	})
	if err != nil {
		log.Fatalf("start search: %v", err)
	}
	fmt.Printf("job started: %s\n", jobID)

	batch, err := client.Poll(ctx, jobID, nil)
	if err != nil {
		log.Fatalf("poll: %v", err)
	}

	out, _ := json.MarshalIndent(map[string]interface{}{
		"flights":           len(batch.Flights),
		"completionPercent": batch.CompletionPercent,
		"nextCursor":        batch.NextCursor,
		"status":            batch.Status,
	}, "", "  ")
	fmt.Println(string(out))
}
