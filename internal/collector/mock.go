package collector

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"ZoneSentinel/internal/model"
)

// MockFetcher returns controllable simulated data for development, for
// testing, and for running without a reachable backend.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV
	// End is the time of the last generated bar; zero means now.
	End time.Time
	Err error
}

func (m *MockFetcher) Name() string { return "mock" }

// Simulated marks every series from this fetcher as simulated data.
func (m *MockFetcher) Simulated() bool { return true }

func (m *MockFetcher) FetchBars(_ context.Context, symbol string, tf model.Timeframe, count int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	end := m.End
	if end.IsZero() {
		end = time.Now()
	}
	return generateMockBars(symbol, m.Price, count, tf.Duration(), end.Truncate(tf.Duration())), nil
}

func (m *MockFetcher) Health(_ context.Context) (model.BackendHealth, error) {
	if m.Err != nil {
		return model.BackendHealth{}, m.Err
	}
	return model.BackendHealth{Status: "simulated", Fetcher: m.Name(), CheckedAt: time.Now()}, nil
}

// generateMockBars builds a reproducible oscillating series per symbol with
// occasional opening gaps, so the simulated chart shows zones. Every bar is
// derived from its own time, so overlapping windows agree bar for bar.
func generateMockBars(symbol string, basePrice float64, count int, step time.Duration, end time.Time) []model.OHLCV {
	if basePrice <= 0 {
		basePrice = 100
	}
	h := fnv.New64a()
	h.Write([]byte(symbol))
	seed := h.Sum64()

	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		t := end.Add(-time.Duration(count-1-i) * step)
		k := mockBarIndex(t, step)
		r := mockRand(seed, k)

		c := mockClose(basePrice, k, r.Float64())
		o := mockClose(basePrice, k-1, mockRand(seed, k-1).Float64())
		if r.Intn(6) == 0 {
			o = math.Max(o+(r.Float64()-0.5)*basePrice*0.02, basePrice*0.5)
		}
		bars[i] = model.OHLCV{
			Time:   t,
			Open:   o,
			High:   math.Max(o, c) + r.Float64()*basePrice*0.003,
			Low:    math.Min(o, c) - r.Float64()*basePrice*0.003,
			Close:  c,
			Volume: float64(100000 + r.Intn(50000)),
		}
	}
	return bars
}

// mockBarIndex numbers bars of width step since the Unix epoch.
func mockBarIndex(t time.Time, step time.Duration) int64 {
	secs := int64(step / time.Second)
	if secs < 1 {
		secs = 1
	}
	k := t.Unix() / secs
	if t.Unix() < 0 && t.Unix()%secs != 0 {
		k--
	}
	return k
}

func mockRand(seed uint64, k int64) *rand.Rand {
	return rand.New(rand.NewSource(int64(seed ^ (uint64(k) * 0x9E3779B97F4A7C15))))
}

// mockClose is the close of bar k given its first random draw.
func mockClose(basePrice float64, k int64, noise float64) float64 {
	x := float64(k)
	level := basePrice * (1 + 0.03*math.Sin(x/8) + 0.02*math.Sin(x/29))
	return math.Max(level+(noise-0.5)*basePrice*0.01, basePrice*0.5)
}
