package calculator

import (
	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"PullbackLens/internal/model"
)

// Summarize reports the mean, minimum and maximum of the present ratios.
func Summarize(table model.ResultTable) model.Summary {
	s := model.Summary{Weeks: len(table)}
	sum := decimal.Zero
	for _, r := range table {
		if !r.PullbackRatio.Valid {
			continue
		}
		ratio := r.PullbackRatio.Decimal
		s.RatedWeeks++
		sum = sum.Add(ratio)
		if !s.MinRatio.Valid || ratio.LessThan(s.MinRatio.Decimal) {
			s.MinRatio = decimal.NewNullDecimal(ratio)
			s.MinWeek = null.TimeFrom(r.WeekEnding)
		}
		if !s.MaxRatio.Valid || ratio.GreaterThan(s.MaxRatio.Decimal) {
			s.MaxRatio = decimal.NewNullDecimal(ratio)
			s.MaxWeek = null.TimeFrom(r.WeekEnding)
		}
	}
	if s.RatedWeeks > 0 {
		s.MeanRatio = decimal.NewNullDecimal(sum.Div(decimal.NewFromInt(int64(s.RatedWeeks))))
	}
	return s
}
