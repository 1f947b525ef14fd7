package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ZoneSentinel/internal/calculator"
	"ZoneSentinel/internal/collector"
	"ZoneSentinel/internal/model"
	"ZoneSentinel/internal/notifier"
	"ZoneSentinel/internal/recorder"
	"ZoneSentinel/internal/smc"
	"ZoneSentinel/internal/snapshot"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the refresh and health cron tasks.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Store      *snapshot.Store
	Notifier   *notifier.TelegramNotifier
	Recorder   recorder.Recorder
	Targets    []model.WatchTarget
	SMCEnabled bool
	Ctx        context.Context
}

// NewScheduler creates a new Scheduler. Overlapping runs of the same job
// are skipped.
func NewScheduler(ctx context.Context, col *collector.Collector, store *snapshot.Store, tn *notifier.TelegramNotifier, rec recorder.Recorder, targets []model.WatchTarget, smcEnabled bool) *Scheduler {
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		Collector:  col,
		Store:      store,
		Notifier:   tn,
		Recorder:   rec,
		Targets:    targets,
		SMCEnabled: smcEnabled,
		Ctx:        ctx,
	}
}

// RegisterAll registers one refresh task per target and the health probe.
func (s *Scheduler) RegisterAll(refreshCron, healthCron string) error {
	for _, target := range s.Targets {
		target := target
		if _, err := s.Cron.AddFunc(refreshCron, func() { s.refreshTask(target) }); err != nil {
			return fmt.Errorf("register refresh task %s: %w", target.Key(), err)
		}
	}
	if _, err := s.Cron.AddFunc(healthCron, s.healthTask); err != nil {
		return fmt.Errorf("register health task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Printf("[INFO] scheduler started with %d targets", len(s.Targets))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunAllNow refreshes every target and probes health once.
func (s *Scheduler) RunAllNow() {
	s.healthTask()
	for _, target := range s.Targets {
		s.refreshTask(target)
	}
}

func (s *Scheduler) refreshTask(target model.WatchTarget) {
	if _, err := s.RefreshNow(s.Ctx, target.Symbol, target.Timeframe); err != nil {
		log.Printf("[ERROR] refresh %s: %v", target.Key(), err)
	}
}

func (s *Scheduler) healthTask() {
	h := s.Collector.Health(s.Ctx)
	prev := s.Store.Health()
	s.Store.SetHealth(h)
	if !prev.CheckedAt.IsZero() && prev.Connected != h.Connected {
		log.Printf("[WARN] backend connection changed: connected=%v status=%s", h.Connected, h.Status)
	}
}

// RefreshNow collects bars for one target, rebuilds its snapshot, stores
// and records it, and notifies about zones that were not in the previous
// snapshot. The first snapshot of a target, and the first after its data
// source changed, only set the baseline and never alert.
func (s *Scheduler) RefreshNow(ctx context.Context, symbol string, tf model.Timeframe) (*model.Snapshot, error) {
	series, err := s.Collector.Collect(ctx, symbol, tf)
	if err != nil {
		return nil, err
	}

	analysis := smc.Analyze(series.Bars, s.SMCEnabled)
	snap := &model.Snapshot{
		Symbol:      series.Symbol,
		Timeframe:   series.Timeframe,
		Source:      series.Source,
		Bars:        series.Bars,
		Zones:       analysis.Zones,
		Overlays:    analysis.Overlays,
		Indicators:  calculator.Indicators(series.Bars),
		GeneratedAt: time.Now(),
	}
	prev := s.Store.Put(snap)

	if err := s.Recorder.RecordSnapshot(recorder.NewSnapshotRecord(snap)); err != nil {
		log.Printf("[ERROR] record snapshot %s: %v", snap.Target().Key(), err)
	}

	key := snap.Target().Key()
	switch {
	case prev == nil:
		s.recordZones(snap, snap.Zones)
	case prev.Source != snap.Source:
		// Zones from different sources are not comparable; start over.
		log.Printf("[INFO] %s: source changed from %s to %s, zone baseline reset", key, prev.Source, snap.Source)
	default:
		fresh := NewZones(prev.Zones, snap.Zones)
		if len(fresh) == 0 {
			break
		}
		s.recordZones(snap, fresh)
		if s.SMCEnabled && s.Notifier.Enabled() {
			log.Printf("[INFO] %s: %d new zones", key, len(fresh))
			s.trySend(ctx, notifier.FormatNewZones(snap, fresh))
		}
	}
	return snap, nil
}

func (s *Scheduler) recordZones(snap *model.Snapshot, zones []model.Zone) {
	if len(zones) == 0 {
		return
	}
	if err := s.Recorder.RecordZones(snap.Symbol, snap.Timeframe, zones); err != nil {
		log.Printf("[ERROR] record zones %s: %v", snap.Target().Key(), err)
	}
}

// NewZones returns the zones in next that have no equal zone in prev.
func NewZones(prev, next []model.Zone) []model.Zone {
	var out []model.Zone
	for _, z := range next {
		seen := false
		for _, p := range prev {
			if z.Equal(p) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, z)
		}
	}
	return out
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch strings.ToLower(fields[0]) {
	case "/zones":
		if len(fields) < 2 {
			return "Usage: /zones SYMBOL [TF]"
		}
		symbol := strings.ToUpper(fields[1])
		tf := s.defaultTimeframe()
		if len(fields) > 2 {
			parsed, ok := model.ParseTimeframe(fields[2])
			if !ok {
				return fmt.Sprintf("Unknown timeframe %q", fields[2])
			}
			tf = parsed
		}
		snap, ok := s.Store.Get(symbol, tf)
		if !ok {
			return fmt.Sprintf("No data for %s %s yet", symbol, tf)
		}
		return notifier.FormatSnapshot(snap)
	case "/status":
		return notifier.FormatStatus(s.Store.Health(), len(s.Store.List()))
	default:
		return helpText
	}
}

const helpText = "Available commands:\n• /zones SYMBOL [TF]\n• /status"

func (s *Scheduler) defaultTimeframe() model.Timeframe {
	if len(s.Targets) > 0 {
		return s.Targets[0].Timeframe
	}
	return model.TimeframeD1
}

func (s *Scheduler) trySend(ctx context.Context, text string) {
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
