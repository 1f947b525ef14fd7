package model

// Signal is the bias suggested by a technical indicator.
type Signal string

const (
	SignalBuy  Signal = "buy"
	SignalSell Signal = "sell"
	SignalHold Signal = "hold"
)

// TechnicalIndicator is one computed indicator shown next to the chart.
type TechnicalIndicator struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Signal      Signal  `json:"signal"`
	Description string  `json:"description"`
}
