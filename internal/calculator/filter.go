package calculator

import (
	"time"

	"PullbackLens/internal/model"
)

// DropIncompleteWeek removes the final row when its week may still receive
// trading days: it shares now's ISO week, or it is a Monday-Thursday reference
// day less than seven days before now. At most one row is removed.
func DropIncompleteWeek(table model.ResultTable, now time.Time) (model.ResultTable, bool) {
	if len(table) == 0 {
		return table, false
	}
	last := table[len(table)-1].WeekEnding
	if !weekInProgress(last, now) {
		return table, false
	}
	return table[:len(table)-1], true
}

func weekInProgress(weekEnding, now time.Time) bool {
	now = model.CalendarDate(now)
	ly, lw := weekEnding.ISOWeek()
	ny, nw := now.ISOWeek()
	if ly == ny && lw == nw {
		return true
	}
	recent := model.DaysBetween(weekEnding, now) < 7
	return recent && mondayIndex(weekEnding.Weekday()) < 4
}

// mondayIndex maps Monday..Sunday to 0..6.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
