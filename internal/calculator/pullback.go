package calculator

import (
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"PullbackLens/internal/model"
)

// WindowHigh returns the highest high in bars and the date it first occurs.
// On ties the earliest bar wins. ok is false for an empty window.
func WindowHigh(bars []model.DailyBar) (high model.DailyBar, ok bool) {
	if len(bars) == 0 {
		return model.DailyBar{}, false
	}
	high = bars[0]
	for _, b := range bars[1:] {
		if b.High.GreaterThan(high.High) {
			high = b
		}
	}
	return high, true
}

// CalculatePullback builds the result row for one reference day.
// ratio = (close - high) / high; it is absent when the window is empty or the high is zero.
func CalculatePullback(ref model.DailyBar, w Window) model.PullbackResult {
	res := model.PullbackResult{
		WeekEnding:  ref.Date,
		Close:       ref.Close,
		WindowStart: w.Start,
		WindowEnd:   w.End,
	}
	top, ok := WindowHigh(w.Bars)
	if !ok {
		log.Debug().Str("week_ending", model.FormatDate(ref.Date)).Msg("empty lookback window")
		return res
	}
	res.WindowHigh = decimal.NewNullDecimal(top.High)
	res.WindowHighDate = null.TimeFrom(top.Date)
	if top.High.IsZero() {
		log.Debug().Str("week_ending", model.FormatDate(ref.Date)).Msg("zero window high, ratio skipped")
		return res
	}
	res.PullbackRatio = decimal.NewNullDecimal(ref.Close.Sub(top.High).Div(top.High))
	return res
}

// BuildPullbackTable produces one row per calendar week in the series, without
// dropping an in-progress final week.
func BuildPullbackTable(series *model.DailySeries, lookbackDays int) (model.ResultTable, error) {
	if lookbackDays < 1 {
		return nil, ErrInvalidLookback
	}
	buckets := GroupByWeek(series)
	table := make(model.ResultTable, 0, len(buckets))
	for _, wb := range buckets {
		ref := wb.ReferenceDay()
		w, err := TrailingWindow(series, ref.Date, lookbackDays)
		if err != nil {
			return nil, err
		}
		table = append(table, CalculatePullback(ref, w))
	}
	return table, nil
}

// ComputePullbackTable runs the weekly backtest and drops a trailing week that
// is still in progress relative to now. An empty series yields an empty table.
func ComputePullbackTable(series *model.DailySeries, lookbackDays int, now time.Time) (model.ResultTable, error) {
	table, err := BuildPullbackTable(series, lookbackDays)
	if err != nil {
		return nil, err
	}
	table, _ = DropIncompleteWeek(table, now)
	return table, nil
}
