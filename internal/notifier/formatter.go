package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"PullbackLens/internal/model"
)

// FormatRunSummary formats one backtest report into a Telegram message.
func FormatRunSummary(rep *model.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📉 <b>%s pullback</b> | since %s\n", html.EscapeString(rep.Symbol), model.FormatDate(rep.Start)))
	b.WriteString(fmt.Sprintf("Lookback: %d days | Weeks: %d (rated %d)\n",
		rep.LookbackDays, rep.Summary.Weeks, rep.Summary.RatedWeeks))

	if n := len(rep.Table); n > 0 {
		last := rep.Table[n-1]
		b.WriteString(fmt.Sprintf("\nLatest week %s: close %s", model.FormatDate(last.WeekEnding), last.Close.StringFixed(2)))
		if last.PullbackRatio.Valid {
			b.WriteString(fmt.Sprintf(", high %s on %s, <b>%s</b>",
				last.WindowHigh.Decimal.StringFixed(2),
				model.FormatDate(last.WindowHighDate.Time),
				percent(last.PullbackRatio.Decimal)))
		} else {
			b.WriteString(", no ratio")
		}
		b.WriteString("\n")
	}

	s := rep.Summary
	if s.MeanRatio.Valid {
		b.WriteString(fmt.Sprintf("Avg: %s | Deepest: %s (%s) | Best: %s (%s)\n",
			percent(s.MeanRatio.Decimal),
			percent(s.MinRatio.Decimal), model.FormatDate(s.MinWeek.Time),
			percent(s.MaxRatio.Decimal), model.FormatDate(s.MaxWeek.Time)))
	}
	if rep.DroppedIncomplete {
		b.WriteString("(current week in progress, excluded)\n")
	}
	return b.String()
}

// FormatWeeklyDigest joins the run summaries of a scheduled pass and lists
// the symbols that failed.
func FormatWeeklyDigest(now time.Time, reports []*model.Report, failed []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>PullbackLens weekly</b> | %s\n", model.FormatDate(now)))
	for _, rep := range reports {
		b.WriteString("\n")
		b.WriteString(FormatRunSummary(rep))
	}
	if len(failed) > 0 {
		b.WriteString(fmt.Sprintf("\n❌ Failed: %s\n", html.EscapeString(strings.Join(failed, ", "))))
	}
	return b.String()
}

func percent(d decimal.Decimal) string {
	return d.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}
