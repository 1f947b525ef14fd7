package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"ZoneSentinel/internal/model"
)

// dialect covers the few statements that differ between SQL engines.
type dialect struct {
	name       string
	idColumn   string
	rebindArgs bool // use $1..$n instead of ?
}

var (
	sqliteDialect   = dialect{name: "sqlite", idColumn: "INTEGER PRIMARY KEY AUTOINCREMENT"}
	postgresDialect = dialect{name: "postgres", idColumn: "BIGSERIAL PRIMARY KEY", rebindArgs: true}
)

// rebind rewrites ? placeholders for dialects that number their arguments.
func (d dialect) rebind(query string) string {
	if !d.rebindArgs {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqlRecorder persists snapshots and zones through database/sql.
type sqlRecorder struct {
	db      *sql.DB
	dialect dialect
	mu      sync.Mutex
}

func (r *sqlRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id            ` + r.dialect.idColumn + `,
			timestamp     BIGINT NOT NULL,
			symbol        TEXT NOT NULL,
			timeframe     TEXT NOT NULL,
			source        TEXT,
			bar_count     INTEGER,
			zone_count    INTEGER,
			overlay_count INTEGER,
			last_close    REAL,
			last_bar_time BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_symbol ON snapshots(symbol, timeframe)`,

		`CREATE TABLE IF NOT EXISTS zones (
			id          ` + r.dialect.idColumn + `,
			detected_at BIGINT NOT NULL,
			symbol      TEXT NOT NULL,
			timeframe   TEXT NOT NULL,
			kind        TEXT NOT NULL,
			anchor_time BIGINT NOT NULL,
			price_start REAL,
			price_end   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_zones_ts ON zones(detected_at)`,
		`CREATE INDEX IF NOT EXISTS idx_zones_anchor ON zones(symbol, timeframe, anchor_time)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *sqlRecorder) RecordSnapshot(rec *SnapshotRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastBar int64
	if !rec.LastBarTime.IsZero() {
		lastBar = rec.LastBarTime.Unix()
	}
	_, err := r.db.Exec(r.dialect.rebind(`INSERT INTO snapshots
		(timestamp, symbol, timeframe, source, bar_count, zone_count, overlay_count, last_close, last_bar_time)
		VALUES (?,?,?,?,?,?,?,?,?)`),
		rec.GeneratedAt.Unix(), rec.Symbol, string(rec.Timeframe), string(rec.Source),
		rec.BarCount, rec.ZoneCount, rec.OverlayCount, rec.LastClose, lastBar,
	)
	return err
}

func (r *sqlRecorder) RecordZones(symbol string, tf model.Timeframe, zones []model.Zone) error {
	if len(zones) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(r.dialect.rebind(`INSERT INTO zones
		(detected_at, symbol, timeframe, kind, anchor_time, price_start, price_end)
		VALUES (?,?,?,?,?,?,?)`))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, z := range zones {
		if _, err := stmt.Exec(now, symbol, string(tf), string(z.Kind), z.AnchorTime.Unix(), z.PriceStart, z.PriceEnd); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert zone: %w", err)
		}
	}
	return tx.Commit()
}

func (r *sqlRecorder) Close() error {
	log.Printf("[INFO] closing %s recorder", r.dialect.name)
	return r.db.Close()
}
