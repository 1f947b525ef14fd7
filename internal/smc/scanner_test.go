package smc

import (
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"

	"ZoneSentinel/internal/model"
)

var t0 = time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

func bar(i int, o, h, l, c float64) model.OHLCV {
	return model.OHLCV{Time: t0.Add(time.Duration(i) * time.Minute), Open: o, High: h, Low: l, Close: c, Volume: 100}
}

// randomWalk builds a valid OHLC sequence from a fixed seed.
func randomWalk(seed int64, n int) []model.OHLCV {
	r := rand.New(rand.NewSource(seed))
	bars := make([]model.OHLCV, n)
	price := 100.0
	for i := range bars {
		o := price
		c := o + (r.Float64()-0.5)*4
		h := maxf(o, c) + r.Float64()
		l := minf(o, c) - r.Float64()
		bars[i] = bar(i, o, h, l, c)
		if r.Intn(5) == 0 {
			price = c + (r.Float64()-0.5)*6 // gap open
		} else {
			price = c
		}
	}
	return bars
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func indexOf(bars []model.OHLCV, ts time.Time) int {
	for i, b := range bars {
		if b.Time.Equal(ts) {
			return i
		}
	}
	return -1
}

func TestScan_TooFewBars(t *testing.T) {
	tests := []struct {
		name string
		bars []model.OHLCV
	}{
		{"nil", nil},
		{"empty", []model.OHLCV{}},
		{"one", []model.OHLCV{bar(0, 10, 11, 9, 10.5)}},
		// would form a bullish order block if scanned
		{"two", []model.OHLCV{bar(0, 10, 10.2, 8.8, 9), bar(1, 9, 10.6, 8.9, 10.5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zones := Scan(tt.bars)
			if zones == nil {
				t.Fatal("expected non-nil empty slice")
			}
			if len(zones) != 0 {
				t.Errorf("expected no zones, got %d", len(zones))
			}
		})
	}
}

func TestScan_BullishFairValueGap(t *testing.T) {
	bars := []model.OHLCV{
		bar(0, 9.5, 10, 9, 9.8),
		bar(1, 9, 10, 8, 9.5),
		bar(2, 10.6, 11, 10.5, 10.9),
	}
	zones := Scan(bars)
	if len(zones) != 1 {
		t.Fatalf("expected 1 zone, got %d: %+v", len(zones), zones)
	}
	z := zones[0]
	if z.Kind != model.KindFairValueGap {
		t.Errorf("expected FVG, got %q", z.Kind)
	}
	if !z.AnchorTime.Equal(bars[1].Time) {
		t.Errorf("expected anchor at bar 1, got %v", z.AnchorTime)
	}
	if z.PriceStart != 10 || z.PriceEnd != 10.5 {
		t.Errorf("expected start=10 end=10.5, got start=%v end=%v", z.PriceStart, z.PriceEnd)
	}
	if z.High() != 10.5 || z.Low() != 10 {
		t.Errorf("expected high=10.5 low=10, got high=%v low=%v", z.High(), z.Low())
	}
}

func TestScan_BearishFairValueGap(t *testing.T) {
	bars := []model.OHLCV{
		bar(0, 12, 12.5, 11.5, 11.6),
		bar(1, 11.6, 11.7, 10.5, 10.6),
		bar(2, 10.6, 11, 10, 10.2),
	}
	zones := Scan(bars)
	if len(zones) != 1 {
		t.Fatalf("expected 1 zone, got %d: %+v", len(zones), zones)
	}
	z := zones[0]
	if z.Kind != model.KindFairValueGap || !z.AnchorTime.Equal(bars[1].Time) {
		t.Errorf("unexpected zone %+v", z)
	}
	if z.PriceStart != 11.5 || z.PriceEnd != 11 {
		t.Errorf("expected start=11.5 end=11, got start=%v end=%v", z.PriceStart, z.PriceEnd)
	}
}

func TestScan_BullishOrderBlock(t *testing.T) {
	bars := []model.OHLCV{
		bar(0, 10.1, 10.3, 9.7, 9.9),
		bar(1, 10, 10.2, 8.8, 9),    // candidate
		bar(2, 9, 10.6, 8.9, 10.5), // move closes above 10.2
	}
	zones := Scan(bars)
	if len(zones) != 1 {
		t.Fatalf("expected 1 zone, got %d: %+v", len(zones), zones)
	}
	z := zones[0]
	if z.Kind != model.KindBullishOrderBlock {
		t.Errorf("expected bullish OB, got %q", z.Kind)
	}
	if !z.AnchorTime.Equal(bars[1].Time) {
		t.Errorf("expected anchor at candidate, got %v", z.AnchorTime)
	}
	if z.PriceStart != 10.2 || z.PriceEnd != 8.8 {
		t.Errorf("expected start=10.2 end=8.8, got start=%v end=%v", z.PriceStart, z.PriceEnd)
	}
}

func TestScan_BearishOrderBlockKeepsCandidateRange(t *testing.T) {
	bars := []model.OHLCV{
		bar(0, 9.9, 10.4, 9.85, 10),
		bar(1, 10, 11, 9.8, 10.8),   // candidate
		bar(2, 10.7, 10.8, 9.4, 9.5), // move closes below 9.8
	}
	zones := OrderBlocks(bars)
	if len(zones) != 1 {
		t.Fatalf("expected 1 order block, got %d: %+v", len(zones), zones)
	}
	z := zones[0]
	if z.Kind != model.KindBearishOrderBlock {
		t.Errorf("expected bearish OB, got %q", z.Kind)
	}
	if z.PriceStart != 11 || z.PriceEnd != 9.8 {
		t.Errorf("expected candidate high/low 11/9.8, got %v/%v", z.PriceStart, z.PriceEnd)
	}
}

func TestScan_NoPatternInSteadyRise(t *testing.T) {
	bars := []model.OHLCV{
		bar(0, 10, 10.6, 9.9, 10.5),
		bar(1, 10.3, 10.9, 10.2, 10.8),
		bar(2, 10.5, 11, 10.4, 10.9),
	}
	if zones := Scan(bars); len(zones) != 0 {
		t.Errorf("expected no zones, got %+v", zones)
	}
}

func TestScan_MoveMustBreakCandidate(t *testing.T) {
	bars := []model.OHLCV{
		bar(0, 10.1, 10.3, 9.7, 9.9),
		bar(1, 10, 10.2, 8.8, 9),
		bar(2, 9, 10.2, 8.9, 10.2), // closes at, not above, the high
	}
	if zones := OrderBlocks(bars); len(zones) != 0 {
		t.Errorf("expected no order block, got %+v", zones)
	}
}

func TestScan_GapsPrecedeOrderBlocks(t *testing.T) {
	bars := []model.OHLCV{
		bar(0, 10.1, 10.3, 9.7, 9.9),
		bar(1, 10, 10.2, 8.8, 9),
		bar(2, 9, 10.6, 8.9, 10.5),
		bar(3, 10.6, 11, 10.4, 10.9),
	}
	zones := Scan(bars)
	if len(zones) != 2 {
		t.Fatalf("expected 2 zones, got %d: %+v", len(zones), zones)
	}
	if zones[0].Kind != model.KindFairValueGap || !zones[0].AnchorTime.Equal(bars[2].Time) {
		t.Errorf("expected FVG at bar 2 first, got %+v", zones[0])
	}
	if zones[1].Kind != model.KindBullishOrderBlock || !zones[1].AnchorTime.Equal(bars[1].Time) {
		t.Errorf("expected bullish OB at bar 1 second, got %+v", zones[1])
	}
}

func TestScan_OverlappingGapsAreAllKept(t *testing.T) {
	bars := []model.OHLCV{
		bar(0, 10, 10.5, 9.5, 10.4),
		bar(1, 10.8, 11.45, 10.7, 11.4),
		bar(2, 11.8, 12.5, 11.5, 12.4),
		bar(3, 12.8, 13.5, 12, 13.4),
	}
	gaps := FairValueGaps(bars)
	if len(gaps) != 2 {
		t.Fatalf("expected 2 gaps, got %d: %+v", len(gaps), gaps)
	}
	if !gaps[0].AnchorTime.Equal(bars[1].Time) || !gaps[1].AnchorTime.Equal(bars[2].Time) {
		t.Errorf("expected gaps anchored at bars 1 and 2, got %v and %v", gaps[0].AnchorTime, gaps[1].AnchorTime)
	}
}

func TestScan_Properties(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		bars := randomWalk(seed, 150)
		zones := Scan(bars)

		seenOB := false
		for _, z := range zones {
			if z.High() < z.Low() {
				t.Fatalf("seed %d: high %v below low %v", seed, z.High(), z.Low())
			}
			i := indexOf(bars, z.AnchorTime)
			if i < 0 {
				t.Fatalf("seed %d: anchor %v not in bars", seed, z.AnchorTime)
			}
			switch z.Kind {
			case model.KindFairValueGap:
				if seenOB {
					t.Fatalf("seed %d: gap after order block", seed)
				}
				if i < 1 || i > len(bars)-2 {
					t.Fatalf("seed %d: gap anchor %d is not a triplet middle", seed, i)
				}
				a, c := bars[i-1], bars[i+1]
				if !(a.High < c.Low || a.Low > c.High) {
					t.Fatalf("seed %d: gap at %d without imbalance", seed, i)
				}
			case model.KindBullishOrderBlock, model.KindBearishOrderBlock:
				seenOB = true
				if i > len(bars)-2 {
					t.Fatalf("seed %d: order block at last bar", seed)
				}
				cand, move := bars[i], bars[i+1]
				if z.Kind == model.KindBullishOrderBlock && !(cand.Bearish() && move.Bullish() && move.Close > cand.High) {
					t.Fatalf("seed %d: invalid bullish OB at %d", seed, i)
				}
				if z.Kind == model.KindBearishOrderBlock && !(cand.Bullish() && move.Bearish() && move.Close < cand.Low) {
					t.Fatalf("seed %d: invalid bearish OB at %d", seed, i)
				}
			default:
				t.Fatalf("seed %d: unknown kind %q", seed, z.Kind)
			}
		}
	}
}

func TestScan_Idempotent(t *testing.T) {
	bars := randomWalk(7, 300)
	first := Scan(bars)
	second := Scan(bars)
	if len(first) == 0 {
		t.Fatal("expected the walk to produce zones")
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical output for identical input")
	}
}

func TestScan_ConcurrentCallers(t *testing.T) {
	bars := randomWalk(11, 200)
	want := Scan(bars)

	var wg sync.WaitGroup
	results := make([][]model.Zone, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Scan(bars)
		}(i)
	}
	wg.Wait()
	for i, got := range results {
		if !reflect.DeepEqual(want, got) {
			t.Errorf("caller %d: result differs", i)
		}
	}
}
