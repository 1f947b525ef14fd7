package model

import "time"

// OHLCV represents a single candlestick bar. Time is the bar identifier.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Bullish reports whether the bar closed above its open.
func (b OHLCV) Bullish() bool { return b.Close > b.Open }

// Bearish reports whether the bar closed below its open.
func (b OHLCV) Bearish() bool { return b.Close < b.Open }

// DataSource tells consumers whether bars came from the live backend.
type DataSource string

const (
	SourceReal      DataSource = "real"
	SourceSimulated DataSource = "simulated"
)

// BarSeries holds one fetched, chronologically sorted bar window.
type BarSeries struct {
	Symbol    string
	Timeframe Timeframe
	Bars      []OHLCV
	Source    DataSource
	FetchedAt time.Time
}

// BackendHealth is the last known state of the pricing backend.
type BackendHealth struct {
	Status    string    `json:"status"`
	Connected bool      `json:"backend_connected"`
	Fetcher   string    `json:"fetcher"`
	CheckedAt time.Time `json:"backend_checked_at"`
}
