package recorder

import "ZoneSentinel/internal/model"

// NoopRecorder is a no-op implementation used when no database is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(_ *SnapshotRecord) error                      { return nil }
func (n *NoopRecorder) RecordZones(_ string, _ model.Timeframe, _ []model.Zone) error { return nil }
func (n *NoopRecorder) Close() error                                                 { return nil }
