package calculator

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"PullbackLens/internal/model"
)

// DefaultLookbackDays is the calendar-day length of the trailing window.
const DefaultLookbackDays = 8

// ErrInvalidLookback is returned for a lookback shorter than one day.
var ErrInvalidLookback = errors.New("lookback days must be at least 1")

// Window is the trailing calendar-day range [T-L, T-1] and the bars inside it.
type Window struct {
	Start time.Time
	End   time.Time
	Bars  []model.DailyBar
}

// TrailingWindow returns the bars dated within [t-lookbackDays, t-1], both ends
// inclusive. Boundaries are calendar days, so weekends and holidays shrink the
// window's bar count but never move its edges.
func TrailingWindow(series *model.DailySeries, t time.Time, lookbackDays int) (Window, error) {
	if lookbackDays < 1 {
		return Window{}, fmt.Errorf("%w: got %d", ErrInvalidLookback, lookbackDays)
	}
	t = model.CalendarDate(t)
	w := Window{
		Start: t.AddDate(0, 0, -lookbackDays),
		End:   t.AddDate(0, 0, -1),
	}

	n := series.Len()
	lo := sort.Search(n, func(i int) bool { return !series.At(i).Date.Before(w.Start) })
	hi := sort.Search(n, func(i int) bool { return series.At(i).Date.After(w.End) })
	for i := lo; i < hi; i++ {
		w.Bars = append(w.Bars, series.At(i))
	}
	return w, nil
}
