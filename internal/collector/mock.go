package collector

import (
	"context"
	"time"

	"PullbackLens/internal/model"
)

// MockFetcher returns fixed data for development and testing.
type MockFetcher struct {
	Bars  []model.DailyBar
	Err   error
	Calls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDaily(_ context.Context, _ string, start time.Time) ([]model.DailyBar, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	bars := normalizeBars(cloneBars(m.Bars), start)
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return bars, nil
}
