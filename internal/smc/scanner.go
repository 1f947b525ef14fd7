package smc

import "ZoneSentinel/internal/model"

// minWindow is the smallest bar count any pattern needs (a gap spans three bars).
const minWindow = 3

// Scan detects Smart Money zones in a chronologically ordered bar sequence.
// Fair value gaps come first, then order blocks, each family in ascending
// bar order. Fewer than three bars yields an empty result.
//
// Scan is pure: it reads bars without retaining or modifying them and
// copies every zone price straight from a bar field.
func Scan(bars []model.OHLCV) []model.Zone {
	if len(bars) < minWindow {
		return []model.Zone{}
	}
	zones := FairValueGaps(bars)
	return append(zones, OrderBlocks(bars)...)
}

// FairValueGaps returns the three-bar imbalances in bars, anchored at the
// middle bar of each triplet. Overlapping gaps are all kept.
func FairValueGaps(bars []model.OHLCV) []model.Zone {
	gaps := []model.Zone{}
	for i := 2; i < len(bars); i++ {
		a, b, c := bars[i-2], bars[i-1], bars[i]

		// Bullish: the third bar's low sits entirely above the first bar's high.
		if a.High < c.Low {
			gaps = append(gaps, model.Zone{
				Kind:       model.KindFairValueGap,
				AnchorTime: b.Time,
				PriceStart: a.High,
				PriceEnd:   c.Low,
			})
		}

		// Bearish: the third bar's high sits entirely below the first bar's low.
		if a.Low > c.High {
			gaps = append(gaps, model.Zone{
				Kind:       model.KindFairValueGap,
				AnchorTime: b.Time,
				PriceStart: a.Low,
				PriceEnd:   c.High,
			})
		}
	}
	return gaps
}

// OrderBlocks returns the last counter-trend bars that were broken by the
// following bar's close, anchored at the counter-trend bar.
//
// Both directions span the candidate's full high/low range.
func OrderBlocks(bars []model.OHLCV) []model.Zone {
	blocks := []model.Zone{}
	for i := 1; i < len(bars); i++ {
		candidate, move := bars[i-1], bars[i]

		if candidate.Bearish() && move.Bullish() && move.Close > candidate.High {
			blocks = append(blocks, model.Zone{
				Kind:       model.KindBullishOrderBlock,
				AnchorTime: candidate.Time,
				PriceStart: candidate.High,
				PriceEnd:   candidate.Low,
			})
		}

		if candidate.Bullish() && move.Bearish() && move.Close < candidate.Low {
			blocks = append(blocks, model.Zone{
				Kind:       model.KindBearishOrderBlock,
				AnchorTime: candidate.Time,
				PriceStart: candidate.High,
				PriceEnd:   candidate.Low,
			})
		}
	}
	return blocks
}
