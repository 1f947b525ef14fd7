package recorder

import (
	"time"

	"ZoneSentinel/internal/model"
)

// SnapshotRecord summarises one refresh for historical analysis.
type SnapshotRecord struct {
	Symbol       string
	Timeframe    model.Timeframe
	Source       model.DataSource
	BarCount     int
	ZoneCount    int
	OverlayCount int
	LastClose    float64
	LastBarTime  time.Time
	GeneratedAt  time.Time
}

// NewSnapshotRecord builds the record for a published snapshot.
func NewSnapshotRecord(snap *model.Snapshot) *SnapshotRecord {
	rec := &SnapshotRecord{
		Symbol:       snap.Symbol,
		Timeframe:    snap.Timeframe,
		Source:       snap.Source,
		BarCount:     len(snap.Bars),
		ZoneCount:    len(snap.Zones),
		OverlayCount: len(snap.Overlays),
		GeneratedAt:  snap.GeneratedAt,
	}
	if n := len(snap.Bars); n > 0 {
		rec.LastClose = snap.Bars[n-1].Close
		rec.LastBarTime = snap.Bars[n-1].Time
	}
	return rec
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordSnapshot(rec *SnapshotRecord) error
	RecordZones(symbol string, tf model.Timeframe, zones []model.Zone) error
	Close() error
}
