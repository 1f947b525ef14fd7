package model

import "time"

// Snapshot is the immutable result of one refresh for a watch target.
// A new refresh replaces it wholesale.
type Snapshot struct {
	Symbol      string               `json:"symbol"`
	Timeframe   Timeframe            `json:"timeframe"`
	Source      DataSource           `json:"source"`
	Bars        []OHLCV              `json:"bars"`
	Zones       []Zone               `json:"zones"`
	Overlays    []Overlay            `json:"overlays"`
	Indicators  []TechnicalIndicator `json:"indicators"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// Target returns the watch target the snapshot belongs to.
func (s *Snapshot) Target() WatchTarget {
	return WatchTarget{Symbol: s.Symbol, Timeframe: s.Timeframe}
}
