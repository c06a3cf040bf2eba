package recorder

import "KeyStatsLab/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordBacktest(_ RunMeta, _ model.Report) error  { return nil }
func (n *NoopRecorder) RecordPicks(_ string, _ []model.Pick) error      { return nil }
func (n *NoopRecorder) RecentBacktests(_ int) ([]BacktestRun, error)   { return nil, nil }
func (n *NoopRecorder) Close() error                                    { return nil }
