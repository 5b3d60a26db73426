package calculator

import (
	"time"

	"PullbackLens/internal/model"
)

// weekEnd returns the Sunday on or after d, which closes d's week.
func weekEnd(d time.Time) time.Time {
	return d.AddDate(0, 0, (7-int(d.Weekday()))%7)
}

// GroupByWeek partitions the series into Sunday-anchored calendar weeks.
// Weeks without bars are never emitted.
func GroupByWeek(series *model.DailySeries) []model.WeekBucket {
	var buckets []model.WeekBucket
	for _, b := range series.Bars() {
		end := weekEnd(b.Date)
		if n := len(buckets); n > 0 && buckets[n-1].WeekEnd.Equal(end) {
			buckets[n-1].Bars = append(buckets[n-1].Bars, b)
			continue
		}
		buckets = append(buckets, model.WeekBucket{WeekEnd: end, Bars: []model.DailyBar{b}})
	}
	return buckets
}

// ResampleWeekly collapses each week into one bar dated at its reference day.
func ResampleWeekly(series *model.DailySeries) []model.DailyBar {
	buckets := GroupByWeek(series)
	weekly := make([]model.DailyBar, 0, len(buckets))
	for _, wb := range buckets {
		week := wb.Bars[0]
		for _, d := range wb.Bars[1:] {
			if d.High.GreaterThan(week.High) {
				week.High = d.High
			}
			if d.Low.LessThan(week.Low) {
				week.Low = d.Low
			}
			week.Volume = week.Volume.Add(d.Volume)
		}
		ref := wb.ReferenceDay()
		week.Date = ref.Date
		week.Close = ref.Close
		weekly = append(weekly, week)
	}
	return weekly
}
