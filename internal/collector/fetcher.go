package collector

import (
	"context"
	"errors"
	"sort"
	"time"

	"PullbackLens/internal/model"
)

// ErrNoData is returned when a source has no bars for the request: an unknown
// symbol, no trading history since start, or an empty upstream response.
var ErrNoData = errors.New("no data")

// Fetcher defines the interface for fetching daily market data.
// FetchDaily returns bars from start through the latest available day, ascending.
type Fetcher interface {
	FetchDaily(ctx context.Context, symbol string, start time.Time) ([]model.DailyBar, error)
	Name() string
}

// normalizeBars sorts by date, drops bars before start and keeps the last
// observation for any repeated calendar day.
func normalizeBars(bars []model.DailyBar, start time.Time) []model.DailyBar {
	start = model.CalendarDate(start)
	for i := range bars {
		bars[i].Date = model.CalendarDate(bars[i].Date)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	out := bars[:0]
	for _, b := range bars {
		if b.Date.Before(start) {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
