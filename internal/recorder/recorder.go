package recorder

import (
	"errors"

	"PullbackLens/internal/model"
)

// ErrNotFound is returned when no run has been recorded for a symbol.
var ErrNotFound = errors.New("no recorded run")

// Recorder keeps the most recent report per symbol for re-display.
type Recorder interface {
	RecordRun(report *model.Report) error
	LastRun(symbol string) (*model.Report, error)
	Close() error
}
