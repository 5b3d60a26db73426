package calculator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"PullbackLens/internal/model"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// hc builds a bar with the given high and close; open/low follow close.
func hc(t *testing.T, date, high, close string) model.DailyBar {
	t.Helper()
	return model.DailyBar{
		Date:   day(t, date),
		Open:   dec(close),
		High:   dec(high),
		Low:    dec(close),
		Close:  dec(close),
		Volume: dec("1000"),
	}
}

func mustSeries(t *testing.T, bars ...model.DailyBar) *model.DailySeries {
	t.Helper()
	s, err := model.NewDailySeries("TEST", bars)
	if err != nil {
		t.Fatalf("new series: %v", err)
	}
	return s
}

// octoberSeries covers 2023-10-16 .. 2023-10-27 on weekdays.
func octoberSeries(t *testing.T) *model.DailySeries {
	t.Helper()
	return mustSeries(t,
		hc(t, "2023-10-16", "436", "435"),
		hc(t, "2023-10-17", "437", "436"),
		hc(t, "2023-10-18", "434", "430"),
		hc(t, "2023-10-19", "433", "427"),
		hc(t, "2023-10-20", "429", "421"),
		hc(t, "2023-10-23", "430", "422"),
		hc(t, "2023-10-24", "432", "426"),
		hc(t, "2023-10-25", "428", "418"),
		hc(t, "2023-10-26", "431", "412"),
		hc(t, "2023-10-27", "429", "425"),
	)
}
