package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"PullbackLens/internal/collector"
	"PullbackLens/internal/model"
	"PullbackLens/internal/recorder"
)

// symbolFetcher serves bars per symbol and fails for unknown ones.
type symbolFetcher map[string][]model.DailyBar

func (f symbolFetcher) Name() string { return "fixture" }

func (f symbolFetcher) FetchDaily(_ context.Context, symbol string, _ time.Time) ([]model.DailyBar, error) {
	bars, ok := f[symbol]
	if !ok {
		return nil, collector.ErrNoData
	}
	return bars, nil
}

func bar(date string, high, close int64) model.DailyBar {
	d, _ := model.ParseDate(date)
	return model.DailyBar{
		Date:   d,
		Open:   decimal.NewFromInt(close),
		High:   decimal.NewFromInt(high),
		Low:    decimal.NewFromInt(close),
		Close:  decimal.NewFromInt(close),
		Volume: decimal.NewFromInt(100),
	}
}

func fixture() []model.DailyBar {
	return []model.DailyBar{
		bar("2023-10-16", 436, 435),
		bar("2023-10-20", 429, 421),
		bar("2023-10-24", 432, 426),
		bar("2023-10-27", 429, 425),
	}
}

func newTestScheduler(t *testing.T, f symbolFetcher, watchlist []string) (*Scheduler, *recorder.SQLiteRecorder) {
	t.Helper()
	rec, err := recorder.NewSQLiteRecorder(recorder.MemoryDSN)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { rec.Close() })

	start, _ := model.ParseDate("2023-10-01")
	s := NewScheduler(context.Background(), collector.NewCollector(f), rec, watchlist,
		collector.Request{Start: start, LookbackDays: 8, BinCount: 5})
	s.Now = func() time.Time { return time.Date(2023, 11, 4, 8, 0, 0, 0, time.UTC) }
	return s, rec
}

func TestRunWeeklyNow_RecordsEverySymbol(t *testing.T) {
	s, rec := newTestScheduler(t, symbolFetcher{"SPY": fixture(), "QQQ": fixture()}, []string{"SPY", "QQQ"})
	if err := s.RunWeeklyNow(); err != nil {
		t.Fatal(err)
	}
	for _, sym := range []string{"SPY", "QQQ"} {
		rep, err := rec.LastRun(sym)
		if err != nil {
			t.Fatalf("%s: %v", sym, err)
		}
		if len(rep.Table) != 2 || rep.BinCount != 5 {
			t.Errorf("%s: weeks=%d bins=%d", sym, len(rep.Table), rep.BinCount)
		}
	}
}

func TestRunWeeklyNow_FailureIsolated(t *testing.T) {
	s, rec := newTestScheduler(t, symbolFetcher{"SPY": fixture()}, []string{"BAD", "SPY"})
	err := s.RunWeeklyNow()
	if err == nil || !errors.Is(err, collector.ErrNoData) || !strings.Contains(err.Error(), "BAD") {
		t.Fatalf("expected BAD to fail with ErrNoData, got %v", err)
	}
	if _, err := rec.LastRun("SPY"); err != nil {
		t.Errorf("SPY should still be recorded: %v", err)
	}
	if _, err := rec.LastRun("BAD"); !errors.Is(err, recorder.ErrNotFound) {
		t.Errorf("BAD should not be recorded, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	s, _ := newTestScheduler(t, symbolFetcher{}, nil)
	if err := s.Register("0 0 8 * * 6"); err != nil {
		t.Fatalf("valid cron rejected: %v", err)
	}
	if len(s.Cron.Entries()) != 1 {
		t.Errorf("entries = %d", len(s.Cron.Entries()))
	}
	if err := s.Register("every saturday"); err == nil {
		t.Error("expected invalid cron error")
	}
}

func TestStartStop(t *testing.T) {
	s, _ := newTestScheduler(t, symbolFetcher{}, nil)
	if err := s.Register("0 0 8 * * 6"); err != nil {
		t.Fatal(err)
	}
	s.Start()
	s.Stop()
}

type captureNotifier struct {
	messages []string
}

func (c *captureNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	c.messages = append(c.messages, text)
	return nil
}

func TestRunWeeklyNow_SendsDigest(t *testing.T) {
	s, _ := newTestScheduler(t, symbolFetcher{"SPY": fixture()}, []string{"SPY", "BAD"})
	n := &captureNotifier{}
	s.Notifier = n

	_ = s.RunWeeklyNow()
	if len(n.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(n.messages))
	}
	msg := n.messages[0]
	if !strings.Contains(msg, "SPY pullback") || !strings.Contains(msg, "Failed: BAD") {
		t.Errorf("digest = %q", msg)
	}
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(t, symbolFetcher{"SPY": fixture()}, []string{"SPY"})

	if got := s.HandleCommand("/last spy"); !strings.HasPrefix(got, "no recorded run for SPY") {
		t.Errorf("before run: %q", got)
	}
	if got := s.HandleCommand("/weekly"); got != "" {
		t.Errorf("/weekly reply = %q", got)
	}
	if got := s.HandleCommand("/last spy"); !strings.Contains(got, "<b>SPY pullback</b>") {
		t.Errorf("after run: %q", got)
	}
	if got := s.HandleCommand("/last"); got != "usage: /last SYMBOL" {
		t.Errorf("missing symbol: %q", got)
	}
	if got := s.HandleCommand("hello"); got != helpText {
		t.Errorf("unknown command: %q", got)
	}
}
