package recorder

import "PullbackLens/internal/model"

// NoopRecorder is a no-op implementation used when no store is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *model.Report) error         { return nil }
func (n *NoopRecorder) LastRun(_ string) (*model.Report, error) { return nil, ErrNotFound }
func (n *NoopRecorder) Close() error                            { return nil }
