package model

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func barOn(y int, m time.Month, d, hour int) DailyBar {
	return DailyBar{
		Date:   time.Date(y, m, d, hour, 30, 0, 0, time.UTC),
		Close:  decimal.NewFromInt(int64(d)),
		Volume: decimal.NewFromInt(100),
	}
}

func TestNewDailySeries_NormalizesDates(t *testing.T) {
	s, err := NewDailySeries("SPY", []DailyBar{barOn(2023, 10, 26, 13), barOn(2023, 10, 27, 20)})
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 || s.Symbol() != "SPY" {
		t.Fatalf("len=%d symbol=%q", s.Len(), s.Symbol())
	}
	want := time.Date(2023, 10, 27, 0, 0, 0, 0, time.UTC)
	if !s.At(1).Date.Equal(want) {
		t.Errorf("date = %v, want %v", s.At(1).Date, want)
	}
}

func TestNewDailySeries_RejectsDisorder(t *testing.T) {
	tests := []struct {
		name string
		bars []DailyBar
	}{
		{"descending", []DailyBar{barOn(2023, 10, 27, 13), barOn(2023, 10, 26, 13)}},
		{"duplicate day", []DailyBar{barOn(2023, 10, 26, 9), barOn(2023, 10, 26, 16)}},
	}
	for _, tt := range tests {
		if _, err := NewDailySeries("SPY", tt.bars); !errors.Is(err, ErrUnorderedSeries) {
			t.Errorf("%s: expected ErrUnorderedSeries, got %v", tt.name, err)
		}
	}
}

func TestDailySeries_BarsIsACopy(t *testing.T) {
	s, err := NewDailySeries("SPY", []DailyBar{barOn(2023, 10, 26, 13)})
	if err != nil {
		t.Fatal(err)
	}
	bars := s.Bars()
	bars[0].Close = decimal.NewFromInt(-1)
	if s.At(0).Close.IsNegative() {
		t.Error("mutating Bars() leaked into the series")
	}
}

func TestDailySeries_NilIsEmpty(t *testing.T) {
	var s *DailySeries
	if s.Len() != 0 || s.Bars() != nil {
		t.Error("nil series should be empty")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2023, 10, 26, 0, 0, 0, 0, time.UTC)
	b := time.Date(2023, 11, 2, 22, 0, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 7 {
		t.Errorf("DaysBetween = %d, want 7", got)
	}
	if got := DaysBetween(b, a); got != -7 {
		t.Errorf("DaysBetween reversed = %d, want -7", got)
	}
}

func TestVolumeProfile_TotalVolume(t *testing.T) {
	p := VolumeProfile{Volumes: []decimal.Decimal{decimal.NewFromInt(2), decimal.RequireFromString("0.5")}}
	if !p.TotalVolume().Equal(decimal.RequireFromString("2.5")) || p.Bins() != 2 {
		t.Errorf("total=%s bins=%d", p.TotalVolume(), p.Bins())
	}
}
