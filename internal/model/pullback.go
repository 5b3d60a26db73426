package model

import (
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// PullbackResult is one week's row of the backtest.
// WindowHigh, WindowHighDate and PullbackRatio are absent together when the
// lookback window held no bars; PullbackRatio alone is absent when WindowHigh is zero.
type PullbackResult struct {
	WeekEnding     time.Time
	Close          decimal.Decimal
	WindowHigh     decimal.NullDecimal
	WindowHighDate null.Time
	WindowStart    time.Time
	WindowEnd      time.Time
	PullbackRatio  decimal.NullDecimal
}

// ResultTable is ordered by ascending WeekEnding.
type ResultTable []PullbackResult

// Summary aggregates the present ratios of a ResultTable.
type Summary struct {
	Weeks      int
	RatedWeeks int
	MeanRatio  decimal.NullDecimal
	MinRatio   decimal.NullDecimal
	MinWeek    null.Time
	MaxRatio   decimal.NullDecimal
	MaxWeek    null.Time
}

// ProfileSource selects which bars feed the volume profile.
type ProfileSource string

const (
	ProfileDaily  ProfileSource = "daily"
	ProfileWeekly ProfileSource = "weekly"
)

// Valid reports whether p is a known source.
func (p ProfileSource) Valid() bool {
	return p == ProfileDaily || p == ProfileWeekly
}

// Report is the full output of one pipeline run for a symbol.
type Report struct {
	ID                string
	Symbol            string
	Start             time.Time
	LookbackDays      int
	BinCount          int
	ProfileSource     ProfileSource
	GeneratedAt       time.Time
	Series            *DailySeries
	Table             ResultTable
	DroppedIncomplete bool
	Summary           Summary
	Profile           VolumeProfile
}
