package ports

import (
	"context"

	"github.com/haninge-digit/zeebe-report/internal/domain"
)

// IndexQuerier reads process instance creations from the date partitioned
// search index.
type IndexQuerier interface {
	// Ping checks that the search backend is reachable
	Ping(ctx context.Context) error

	// CollectPeriod returns the counters for each of dates. A date whose
	// index does not exist yields empty counters; any other failure aborts.
	CollectPeriod(ctx context.Context, dates []string) (domain.PeriodData, error)
}
