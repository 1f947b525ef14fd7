package model

import (
	"math"
	"time"
)

// ZoneKind identifies the structure a zone was detected from.
type ZoneKind string

const (
	KindFairValueGap      ZoneKind = "FVG"
	KindBullishOrderBlock ZoneKind = "Bullish OB"
	KindBearishOrderBlock ZoneKind = "Bearish OB"
)

// Zone is a detected Smart Money structure anchored at a bar.
//
// PriceStart and PriceEnd are copied verbatim from the bars that formed the
// zone and are not ordered: a bullish gap starts at the first bar's high and
// ends at the third bar's low. Use High and Low for the ordered bounds.
type Zone struct {
	Kind       ZoneKind  `json:"kind"`
	AnchorTime time.Time `json:"anchor_time"`
	PriceStart float64   `json:"price_start"`
	PriceEnd   float64   `json:"price_end"`
}

// High returns the upper bound of the zone.
func (z Zone) High() float64 { return math.Max(z.PriceStart, z.PriceEnd) }

// Low returns the lower bound of the zone.
func (z Zone) Low() float64 { return math.Min(z.PriceStart, z.PriceEnd) }

// Equal reports whether two zones carry the same content.
func (z Zone) Equal(o Zone) bool {
	return z.Kind == o.Kind && z.AnchorTime.Equal(o.AnchorTime) &&
		z.PriceStart == o.PriceStart && z.PriceEnd == o.PriceEnd
}

// Overlay is a zone resolved against a bar sequence into a drawable
// rectangle between two real bar times.
type Overlay struct {
	Kind       ZoneKind  `json:"kind"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	PriceHigh  float64   `json:"price_high"`
	PriceLow   float64   `json:"price_low"`
	Label      string    `json:"label"`
	FillColor  string    `json:"fill_color"`
	LabelColor string    `json:"label_color"`
}
