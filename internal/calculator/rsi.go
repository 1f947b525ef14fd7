package calculator

import (
	"errors"

	"ZoneSentinel/internal/model"
)

// CalculateRSI computes the Wilder-smoothed RSI of bar closes.
// It needs period+1 bars and returns a neutral 50 below that.
func CalculateRSI(bars []model.OHLCV, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(bars) < period+1 {
		return 50.0, nil
	}

	var avgGain, avgLoss float64
	for i := 1; i < len(bars); i++ {
		gain, loss := 0.0, 0.0
		if change := bars[i].Close - bars[i-1].Close; change > 0 {
			gain = change
		} else {
			loss = -change
		}

		if i <= period {
			// seed with a plain average of the first period changes
			avgGain += gain / float64(period)
			avgLoss += loss / float64(period)
			continue
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0, nil
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs), nil
}
