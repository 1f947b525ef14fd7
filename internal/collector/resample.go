package collector

import (
	"time"

	"ZoneSentinel/internal/model"
)

// Resample merges chronologically sorted bars into buckets of width d,
// aligned with time.Truncate. Each bucket keeps the first open, the last
// close, the extreme high/low and the summed volume.
func Resample(bars []model.OHLCV, d time.Duration) []model.OHLCV {
	if len(bars) == 0 || d <= 0 {
		return nil
	}
	var out []model.OHLCV
	var cur model.OHLCV
	var bucket time.Time
	started := false

	for _, b := range bars {
		key := b.Time.Truncate(d)
		if !started || !key.Equal(bucket) {
			if started {
				out = append(out, cur)
			}
			bucket = key
			cur = model.OHLCV{Time: key, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			started = true
			continue
		}
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	if started {
		out = append(out, cur)
	}
	return out
}
