package calculator

import (
	"log"

	"ZoneSentinel/internal/model"
)

const (
	rsiPeriod     = 14
	smaPeriod     = 20
	rangeLookback = 20
)

// Indicators computes the technical indicators shown next to a chart.
// Indicators that lack enough bars are left out.
func Indicators(bars []model.OHLCV) []model.TechnicalIndicator {
	out := []model.TechnicalIndicator{}
	if len(bars) == 0 {
		return out
	}
	last := bars[len(bars)-1].Close

	if len(bars) > rsiPeriod {
		if rsi, err := CalculateRSI(bars, rsiPeriod); err != nil {
			log.Printf("[WARN] RSI calculation failed: %v", err)
		} else {
			out = append(out, model.TechnicalIndicator{
				Name:        "RSI (14)",
				Value:       rsi,
				Signal:      rsiSignal(rsi),
				Description: "Relative Strength Index",
			})
		}
	}

	if sma, err := CalculateCloseSMA(bars, smaPeriod); err == nil {
		sig := model.SignalHold
		switch {
		case last > sma:
			sig = model.SignalBuy
		case last < sma:
			sig = model.SignalSell
		}
		out = append(out, model.TechnicalIndicator{
			Name:        "SMA (20)",
			Value:       sma,
			Signal:      sig,
			Description: "Simple moving average of the last 20 closes",
		})
	}

	if len(bars) >= rangeLookback {
		high, low, err := CalculateRange(bars, rangeLookback)
		if err == nil {
			if pos, err := CalculateRangePosition(last, high, low); err != nil {
				log.Printf("[WARN] range position calculation failed: %v", err)
			} else {
				out = append(out, model.TechnicalIndicator{
					Name:        "Range position (20)",
					Value:       pos,
					Signal:      rangeSignal(pos),
					Description: "Close relative to the 20-bar high/low range",
				})
			}
		}
	}
	return out
}

func rsiSignal(rsi float64) model.Signal {
	switch {
	case rsi < 30:
		return model.SignalBuy
	case rsi > 70:
		return model.SignalSell
	default:
		return model.SignalHold
	}
}

func rangeSignal(pos float64) model.Signal {
	switch {
	case pos < 0.2:
		return model.SignalBuy
	case pos > 0.8:
		return model.SignalSell
	default:
		return model.SignalHold
	}
}
