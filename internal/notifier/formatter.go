package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ZoneSentinel/internal/model"
)

// price renders a quote with two fixed decimals, free of float artefacts.
func price(p float64) string {
	return decimal.NewFromFloat(p).StringFixed(2)
}

func formatTime(t time.Time, tf model.Timeframe) string {
	if tf == model.TimeframeD1 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04")
}

// FormatNewZones formats the zones that appeared since the previous refresh.
func FormatNewZones(snap *model.Snapshot, zones []model.Zone) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧭 <b>%s %s</b> | %d new zone(s)\n\n", snap.Symbol, snap.Timeframe, len(zones)))
	for _, z := range zones {
		b.WriteString(fmt.Sprintf("• %s @ %s: %s – %s\n",
			z.Kind, formatTime(z.AnchorTime, snap.Timeframe), price(z.Low()), price(z.High())))
	}
	if n := len(snap.Bars); n > 0 {
		b.WriteString(fmt.Sprintf("\nLast close: %s", price(snap.Bars[n-1].Close)))
	}
	if snap.Source == model.SourceSimulated {
		b.WriteString(" (simulated)")
	}
	return b.String()
}

// FormatSnapshot formats the drawable zones of a snapshot.
func FormatSnapshot(snap *model.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s %s</b> | %s\n\n", snap.Symbol, snap.Timeframe, snap.GeneratedAt.Format("2006-01-02 15:04:05")))
	if len(snap.Overlays) == 0 {
		b.WriteString("No active zones.\n")
	}
	for _, o := range snap.Overlays {
		b.WriteString(fmt.Sprintf("• %s %s → %s: %s – %s\n", o.Label,
			formatTime(o.StartTime, snap.Timeframe), formatTime(o.EndTime, snap.Timeframe),
			price(o.PriceLow), price(o.PriceHigh)))
	}
	if len(snap.Indicators) > 0 {
		b.WriteString("\n📈 <b>Indicators:</b>\n")
		for _, i := range snap.Indicators {
			b.WriteString(fmt.Sprintf("  %s: %s (%s)\n", i.Name, price(i.Value), i.Signal))
		}
	}
	return b.String()
}

// FormatStatus formats backend health and the number of watched targets.
func FormatStatus(h model.BackendHealth, snapshots int) string {
	state := "disconnected"
	if h.Connected {
		state = "connected"
	}
	checked := "never"
	if !h.CheckedAt.IsZero() {
		checked = h.CheckedAt.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprintf("🔌 <b>Backend</b>: %s (%s, %s)\nLast check: %s\nSnapshots: %d",
		state, h.Status, h.Fetcher, checked, snapshots)
}
