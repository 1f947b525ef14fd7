package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"ZoneSentinel/internal/model"
)

// DefaultBars is the bar window requested per refresh.
const DefaultBars = 200

// Collector fetches bar windows from a primary source, falling back to a
// secondary one when the primary fails.
type Collector struct {
	Fetcher  Fetcher
	Fallback Fetcher
	Bars     int
}

// NewCollector creates a new Collector. fallback may be nil.
func NewCollector(fetcher, fallback Fetcher, bars int) *Collector {
	if bars <= 0 {
		bars = DefaultBars
	}
	return &Collector{Fetcher: fetcher, Fallback: fallback, Bars: bars}
}

// Collect fetches the latest bar window for symbol and drops bars that
// break OHLC invariants or chronological order.
func (c *Collector) Collect(ctx context.Context, symbol string, tf model.Timeframe) (*model.BarSeries, error) {
	fetcher := c.Fetcher
	bars, err := fetcher.FetchBars(ctx, symbol, tf, c.Bars)
	if err != nil {
		if c.Fallback == nil || ctx.Err() != nil {
			return nil, fmt.Errorf("fetch %s %s from %s: %w", symbol, tf, fetcher.Name(), err)
		}
		log.Printf("[WARN] %s fetch %s %s failed: %v, using %s", fetcher.Name(), symbol, tf, err, c.Fallback.Name())
		fetcher = c.Fallback
		bars, err = fetcher.FetchBars(ctx, symbol, tf, c.Bars)
		if err != nil {
			return nil, fmt.Errorf("fetch %s %s from fallback %s: %w", symbol, tf, fetcher.Name(), err)
		}
	}

	clean, dropped := Sanitize(bars)
	if dropped > 0 {
		log.Printf("[WARN] %s %s: dropped %d malformed bars", symbol, tf, dropped)
	}

	source := model.SourceReal
	if fetcher != c.Fetcher || isSimulated(fetcher) {
		source = model.SourceSimulated
	}
	return &model.BarSeries{
		Symbol:    symbol,
		Timeframe: tf,
		Bars:      clean,
		Source:    source,
		FetchedAt: time.Now(),
	}, nil
}

// Health probes the primary source. An unreachable source is reported as
// disconnected rather than as an error.
func (c *Collector) Health(ctx context.Context) model.BackendHealth {
	h, err := c.Fetcher.Health(ctx)
	if err != nil {
		log.Printf("[WARN] %s health check failed: %v", c.Fetcher.Name(), err)
		return model.BackendHealth{Status: "unreachable", Fetcher: c.Fetcher.Name(), CheckedAt: time.Now()}
	}
	return h
}

func isSimulated(f Fetcher) bool {
	s, ok := f.(interface{ Simulated() bool })
	return ok && s.Simulated()
}

// Sanitize returns the bars that satisfy the OHLC invariants and strictly
// increase in time, along with the number of bars removed.
func Sanitize(bars []model.OHLCV) ([]model.OHLCV, int) {
	clean := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		if !validBar(b) {
			continue
		}
		if n := len(clean); n > 0 && !b.Time.After(clean[n-1].Time) {
			continue
		}
		clean = append(clean, b)
	}
	return clean, len(bars) - len(clean)
}

func validBar(b model.OHLCV) bool {
	if b.Time.IsZero() || b.Open <= 0 || b.Close <= 0 || b.Low <= 0 || b.Volume < 0 {
		return false
	}
	return b.High >= b.Open && b.High >= b.Close && b.Low <= b.Open && b.Low <= b.Close
}
