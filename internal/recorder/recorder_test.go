package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"ZoneSentinel/internal/model"
)

func TestDialect_Rebind(t *testing.T) {
	q := "INSERT INTO t (a, b) VALUES (?,?)"
	if got := sqliteDialect.rebind(q); got != q {
		t.Errorf("expected sqlite query unchanged, got %q", got)
	}
	if got := postgresDialect.rebind(q); got != "INSERT INTO t (a, b) VALUES ($1,$2)" {
		t.Errorf("unexpected postgres query %q", got)
	}
}

func TestSQLiteRecorder(t *testing.T) {
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "zones.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer r.Close()

	at := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	snap := &model.Snapshot{
		Symbol:    "PETR4",
		Timeframe: model.TimeframeD1,
		Source:    model.SourceReal,
		Bars: []model.OHLCV{
			{Time: at, Open: 1, High: 2, Low: 0.5, Close: 1.5},
			{Time: at.Add(time.Hour), Open: 1.5, High: 2, Low: 1, Close: 1.8},
		},
		Zones:       []model.Zone{{Kind: model.KindFairValueGap, AnchorTime: at, PriceStart: 1, PriceEnd: 2}},
		GeneratedAt: at.Add(2 * time.Hour),
	}
	rec := NewSnapshotRecord(snap)
	if rec.BarCount != 2 || rec.LastClose != 1.8 || rec.ZoneCount != 1 {
		t.Errorf("unexpected record %+v", rec)
	}
	if err := r.RecordSnapshot(rec); err != nil {
		t.Fatalf("record snapshot: %v", err)
	}
	if err := r.RecordZones(snap.Symbol, snap.Timeframe, snap.Zones); err != nil {
		t.Fatalf("record zones: %v", err)
	}
	if err := r.RecordZones(snap.Symbol, snap.Timeframe, nil); err != nil {
		t.Fatalf("record no zones: %v", err)
	}

	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM snapshots WHERE symbol = ?`, "PETR4").Scan(&n); err != nil || n != 1 {
		t.Errorf("expected 1 snapshot row, got %d (err %v)", n, err)
	}
	var kind string
	var anchor int64
	if err := r.db.QueryRow(`SELECT kind, anchor_time FROM zones`).Scan(&kind, &anchor); err != nil {
		t.Fatalf("query zones: %v", err)
	}
	if kind != "FVG" || anchor != at.Unix() {
		t.Errorf("unexpected zone row %s@%d", kind, anchor)
	}
}
