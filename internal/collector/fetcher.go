package collector

import (
	"context"
	"errors"

	"ZoneSentinel/internal/model"
)

// ErrNoData is returned when a source answers but has no bars for the request.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchBars(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.OHLCV, error)
	Health(ctx context.Context) (model.BackendHealth, error)
	Name() string
}
