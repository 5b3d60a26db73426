package calculator

import (
	"errors"
	"testing"

	"PullbackLens/internal/model"
)

func TestTrailingWindow_CalendarBounds(t *testing.T) {
	w, err := TrailingWindow(octoberSeries(t), day(t, "2023-10-27"), 8)
	if err != nil {
		t.Fatal(err)
	}
	if model.FormatDate(w.Start) != "2023-10-19" || model.FormatDate(w.End) != "2023-10-26" {
		t.Fatalf("window = [%s, %s], want [2023-10-19, 2023-10-26]",
			model.FormatDate(w.Start), model.FormatDate(w.End))
	}
	var got []string
	for _, b := range w.Bars {
		got = append(got, model.FormatDate(b.Date))
	}
	want := []string{"2023-10-19", "2023-10-20", "2023-10-23", "2023-10-24", "2023-10-25", "2023-10-26"}
	if len(got) != len(want) {
		t.Fatalf("window bars = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bar %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTrailingWindow_WeekendShrinksBarsNotBounds(t *testing.T) {
	// Monday reference: [T-2, T-1] is Saturday..Sunday, no trading days.
	w, err := TrailingWindow(octoberSeries(t), day(t, "2023-10-23"), 2)
	if err != nil {
		t.Fatal(err)
	}
	if model.FormatDate(w.Start) != "2023-10-21" || model.FormatDate(w.End) != "2023-10-22" {
		t.Errorf("window = [%s, %s], want [2023-10-21, 2023-10-22]",
			model.FormatDate(w.Start), model.FormatDate(w.End))
	}
	if len(w.Bars) != 0 {
		t.Errorf("expected empty window, got %d bars", len(w.Bars))
	}
}

func TestTrailingWindow_StartOfHistory(t *testing.T) {
	w, err := TrailingWindow(octoberSeries(t), day(t, "2023-10-16"), 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(w.Bars) != 0 {
		t.Errorf("expected no bars before history starts, got %d", len(w.Bars))
	}
}

func TestTrailingWindow_InvalidLookback(t *testing.T) {
	for _, l := range []int{0, -3} {
		if _, err := TrailingWindow(octoberSeries(t), day(t, "2023-10-27"), l); !errors.Is(err, ErrInvalidLookback) {
			t.Errorf("lookback %d: expected ErrInvalidLookback, got %v", l, err)
		}
	}
}
