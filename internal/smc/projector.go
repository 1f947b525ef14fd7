package smc

import (
	"math"
	"regexp"
	"time"

	"ZoneSentinel/internal/model"
)

// Style is the fill and label background used to draw one zone kind.
type Style struct {
	Fill  string
	Label string
}

var alphaPattern = regexp.MustCompile(`0\.\d+`)

// labelAlpha makes the label background more opaque than the zone fill.
const labelAlpha = "0.7"

// Styles maps each zone kind to its chart colours.
var Styles = map[model.ZoneKind]Style{
	model.KindFairValueGap:      newStyle("rgba(139, 92, 246, 0.2)"),
	model.KindBullishOrderBlock: newStyle("rgba(34, 197, 94, 0.15)"),
	model.KindBearishOrderBlock: newStyle("rgba(239, 68, 68, 0.15)"),
}

// newStyle derives the label colour from fill by swapping its first alpha
// component for labelAlpha.
func newStyle(fill string) Style {
	label := fill
	if loc := alphaPattern.FindStringIndex(fill); loc != nil {
		label = fill[:loc[0]] + labelAlpha + fill[loc[1]:]
	}
	return Style{Fill: fill, Label: label}
}

// Project resolves zones against the bars they were detected in.
//
// Each overlay spans from the zone's anchor bar to the bar right after it.
// A zone whose anchor is missing from bars, or is the last bar, has no
// closing bar yet and is dropped without error. It reappears one bar
// earlier once a later scan sees more bars.
func Project(zones []model.Zone, bars []model.OHLCV) []model.Overlay {
	overlays := make([]model.Overlay, 0, len(zones))
	if len(zones) == 0 || len(bars) < 2 {
		return overlays
	}

	index := anchorIndex(bars)
	for _, z := range zones {
		i, ok := index[z.AnchorTime.UTC()]
		if !ok || i >= len(bars)-1 {
			continue
		}
		style := Styles[z.Kind]
		overlays = append(overlays, model.Overlay{
			Kind:       z.Kind,
			StartTime:  z.AnchorTime,
			EndTime:    bars[i+1].Time,
			PriceHigh:  math.Max(z.PriceStart, z.PriceEnd),
			PriceLow:   math.Min(z.PriceStart, z.PriceEnd),
			Label:      string(z.Kind),
			FillColor:  style.Fill,
			LabelColor: style.Label,
		})
	}
	return overlays
}

// anchorIndex maps each bar instant to the first index holding it.
// Keys are UTC with the monotonic reading stripped, so map equality is
// instant equality for every representable time.
func anchorIndex(bars []model.OHLCV) map[time.Time]int {
	index := make(map[time.Time]int, len(bars))
	for i, b := range bars {
		key := b.Time.UTC()
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	return index
}

// Analysis is the outcome of one scan-and-project pass.
type Analysis struct {
	Zones    []model.Zone
	Overlays []model.Overlay
}

// Analyze scans bars and, when overlays is true, projects the zones onto
// them. With overlays disabled the overlay set is empty, never stale.
func Analyze(bars []model.OHLCV, overlays bool) Analysis {
	zones := Scan(bars)
	if !overlays {
		return Analysis{Zones: zones, Overlays: []model.Overlay{}}
	}
	return Analysis{Zones: zones, Overlays: Project(zones, bars)}
}
