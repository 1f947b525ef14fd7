package model

import (
	"strings"
	"time"
)

// Timeframe is the bar interval requested from the pricing backend.
type Timeframe string

const (
	TimeframeM1  Timeframe = "M1"
	TimeframeM5  Timeframe = "M5"
	TimeframeM15 Timeframe = "M15"
	TimeframeM30 Timeframe = "M30"
	TimeframeH1  Timeframe = "H1"
	TimeframeH4  Timeframe = "H4"
	TimeframeD1  Timeframe = "D1"
)

var timeframeDurations = map[Timeframe]time.Duration{
	TimeframeM1:  time.Minute,
	TimeframeM5:  5 * time.Minute,
	TimeframeM15: 15 * time.Minute,
	TimeframeM30: 30 * time.Minute,
	TimeframeH1:  time.Hour,
	TimeframeH4:  4 * time.Hour,
	TimeframeD1:  24 * time.Hour,
}

// ParseTimeframe parses a case-insensitive timeframe code.
// Unknown codes fall back to D1 and ok is false.
func ParseTimeframe(s string) (tf Timeframe, ok bool) {
	tf = Timeframe(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := timeframeDurations[tf]; ok {
		return tf, true
	}
	return TimeframeD1, false
}

// Duration returns the length of one bar.
func (tf Timeframe) Duration() time.Duration {
	if d, ok := timeframeDurations[tf]; ok {
		return d
	}
	return timeframeDurations[TimeframeD1]
}

// WatchTarget is one symbol/timeframe pair refreshed by the scheduler.
type WatchTarget struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
}

// Key identifies the target in stores and logs.
func (w WatchTarget) Key() string {
	return w.Symbol + "/" + string(w.Timeframe)
}
