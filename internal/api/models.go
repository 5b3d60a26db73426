package api

import (
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"PullbackLens/internal/model"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BacktestResponse is the JSON form of a model.Report.
type BacktestResponse struct {
	ID                string          `json:"id"`
	Symbol            string          `json:"symbol"`
	Start             string          `json:"start"`
	LookbackDays      int             `json:"lookback_days"`
	BinCount          int             `json:"bin_count"`
	ProfileSource     string          `json:"profile_source"`
	GeneratedAt       time.Time       `json:"generated_at"`
	Bars              int             `json:"bars"`
	DroppedIncomplete bool            `json:"dropped_incomplete"`
	Summary           SummaryResponse `json:"summary"`
	Weeks             []WeekRow       `json:"weeks"`
	Profile           ProfileResponse `json:"profile"`
}

// WeekRow is one row of the pullback table. Absent values are null.
type WeekRow struct {
	WeekEnding     string              `json:"week_ending"`
	Close          decimal.Decimal     `json:"close"`
	WindowHigh     decimal.NullDecimal `json:"window_high"`
	WindowHighDate *string             `json:"window_high_date"`
	WindowStart    string              `json:"window_start"`
	WindowEnd      string              `json:"window_end"`
	PullbackRatio  decimal.NullDecimal `json:"pullback_ratio"`
}

type SummaryResponse struct {
	Weeks      int                 `json:"weeks"`
	RatedWeeks int                 `json:"rated_weeks"`
	MeanRatio  decimal.NullDecimal `json:"mean_ratio"`
	MinRatio   decimal.NullDecimal `json:"min_ratio"`
	MinWeek    *string             `json:"min_week"`
	MaxRatio   decimal.NullDecimal `json:"max_ratio"`
	MaxWeek    *string             `json:"max_week"`
}

// ProfileResponse carries len(Volumes)+1 edges.
type ProfileResponse struct {
	Edges   []decimal.Decimal `json:"edges"`
	Volumes []decimal.Decimal `json:"volumes"`
}

// NewBacktestResponse converts a report for the wire.
func NewBacktestResponse(rep *model.Report) BacktestResponse {
	resp := BacktestResponse{
		ID:                rep.ID,
		Symbol:            rep.Symbol,
		Start:             model.FormatDate(rep.Start),
		LookbackDays:      rep.LookbackDays,
		BinCount:          rep.BinCount,
		ProfileSource:     string(rep.ProfileSource),
		GeneratedAt:       rep.GeneratedAt,
		Bars:              rep.Series.Len(),
		DroppedIncomplete: rep.DroppedIncomplete,
		Summary: SummaryResponse{
			Weeks:      rep.Summary.Weeks,
			RatedWeeks: rep.Summary.RatedWeeks,
			MeanRatio:  rep.Summary.MeanRatio,
			MinRatio:   rep.Summary.MinRatio,
			MinWeek:    nullDate(rep.Summary.MinWeek),
			MaxRatio:   rep.Summary.MaxRatio,
			MaxWeek:    nullDate(rep.Summary.MaxWeek),
		},
		Weeks: make([]WeekRow, 0, len(rep.Table)),
		Profile: ProfileResponse{
			Edges:   append([]decimal.Decimal{}, rep.Profile.Edges...),
			Volumes: append([]decimal.Decimal{}, rep.Profile.Volumes...),
		},
	}
	for _, r := range rep.Table {
		resp.Weeks = append(resp.Weeks, WeekRow{
			WeekEnding:     model.FormatDate(r.WeekEnding),
			Close:          r.Close,
			WindowHigh:     r.WindowHigh,
			WindowHighDate: nullDate(r.WindowHighDate),
			WindowStart:    model.FormatDate(r.WindowStart),
			WindowEnd:      model.FormatDate(r.WindowEnd),
			PullbackRatio:  r.PullbackRatio,
		})
	}
	return resp
}

func nullDate(t null.Time) *string {
	if !t.Valid {
		return nil
	}
	s := model.FormatDate(t.Time)
	return &s
}
