package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnorderedSeries is returned when daily bars are not strictly ascending by date.
var ErrUnorderedSeries = errors.New("daily bars must have unique, ascending dates")

// DailyBar represents a single trading day.
type DailyBar struct {
	Date   time.Time // calendar day, UTC midnight
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// DailySeries is an immutable, date-ordered run of daily bars for one symbol.
type DailySeries struct {
	symbol string
	bars   []DailyBar
}

// NewDailySeries copies bars into a new series. Dates are truncated to the
// calendar day; any repeated or out-of-order date is rejected.
func NewDailySeries(symbol string, bars []DailyBar) (*DailySeries, error) {
	out := make([]DailyBar, len(bars))
	for i, b := range bars {
		b.Date = CalendarDate(b.Date)
		if i > 0 && !b.Date.After(out[i-1].Date) {
			return nil, fmt.Errorf("%w: %s follows %s at index %d",
				ErrUnorderedSeries, FormatDate(b.Date), FormatDate(out[i-1].Date), i)
		}
		out[i] = b
	}
	return &DailySeries{symbol: symbol, bars: out}, nil
}

func (s *DailySeries) Symbol() string { return s.symbol }

// Len returns the number of bars. A nil series is empty.
func (s *DailySeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.bars)
}

// At returns the i-th bar.
func (s *DailySeries) At(i int) DailyBar { return s.bars[i] }

// Bars returns a copy of the underlying bars.
func (s *DailySeries) Bars() []DailyBar {
	if s == nil {
		return nil
	}
	out := make([]DailyBar, len(s.bars))
	copy(out, s.bars)
	return out
}

// Closes returns the close of every bar in order.
func (s *DailySeries) Closes() []decimal.Decimal {
	return closes(s.Bars())
}

// Volumes returns the volume of every bar in order.
func (s *DailySeries) Volumes() []decimal.Decimal {
	return volumes(s.Bars())
}

// CloseVolumes splits bars into parallel close and volume slices.
func CloseVolumes(bars []DailyBar) (prices, vols []decimal.Decimal) {
	return closes(bars), volumes(bars)
}

func closes(bars []DailyBar) []decimal.Decimal {
	out := make([]decimal.Decimal, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

func volumes(bars []DailyBar) []decimal.Decimal {
	out := make([]decimal.Decimal, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// WeekBucket holds the bars of one Sunday-anchored calendar week.
type WeekBucket struct {
	WeekEnd time.Time // the Sunday closing the week
	Bars    []DailyBar
}

// ReferenceDay returns the last trading day in the bucket.
func (w WeekBucket) ReferenceDay() DailyBar {
	return w.Bars[len(w.Bars)-1]
}
