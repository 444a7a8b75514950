package repository

import (
	"context"

	"flightsearch-service/internal/domain/entity"
)

// SearchArchiveRepository defines the interface for recording terminal
// search outcomes
type SearchArchiveRepository interface {
	RecordOutcome(ctx context.Context, outcome *entity.SearchOutcome) error
}
