package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"PullbackLens/internal/calculator"
	"PullbackLens/internal/model"
)

// Request describes one backtest run.
type Request struct {
	Symbol        string
	Start         time.Time
	LookbackDays  int
	BinCount      int
	ProfileSource model.ProfileSource
}

// Validate fills zero values with defaults and rejects malformed requests.
func (r *Request) Validate() error {
	r.Symbol = strings.ToUpper(strings.TrimSpace(r.Symbol))
	if r.Symbol == "" {
		return errors.New("symbol is required")
	}
	if r.Start.IsZero() {
		return errors.New("start date is required")
	}
	if r.LookbackDays == 0 {
		r.LookbackDays = calculator.DefaultLookbackDays
	}
	if r.BinCount == 0 {
		r.BinCount = calculator.DefaultBinCount
	}
	if r.ProfileSource == "" {
		r.ProfileSource = model.ProfileDaily
	}
	if r.LookbackDays < 1 {
		return calculator.ErrInvalidLookback
	}
	if r.BinCount < 2 {
		return calculator.ErrInvalidBinCount
	}
	if !r.ProfileSource.Valid() {
		return fmt.Errorf("unknown profile source %q", r.ProfileSource)
	}
	return nil
}

// Collector orchestrates data fetching and the pullback pipeline.
type Collector struct {
	Fetcher Fetcher
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher) *Collector {
	return &Collector{Fetcher: fetcher}
}

// Run fetches daily bars for the request and computes the weekly pullback
// table, its summary and the volume profile. now anchors the in-progress week check.
func (c *Collector) Run(ctx context.Context, req Request, now time.Time) (*model.Report, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	bars, err := c.Fetcher.FetchDaily(ctx, req.Symbol, req.Start)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fetch daily bars: %w", ErrNoData)
	}
	series, err := model.NewDailySeries(req.Symbol, bars)
	if err != nil {
		return nil, fmt.Errorf("build series: %w", err)
	}

	table, err := calculator.BuildPullbackTable(series, req.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("pullback table: %w", err)
	}
	table, dropped := calculator.DropIncompleteWeek(table, now)

	profileBars := series.Bars()
	if req.ProfileSource == model.ProfileWeekly {
		profileBars = calculator.ResampleWeekly(series)
	}
	profile, err := calculator.ProfileFromBars(profileBars, req.BinCount)
	if err != nil {
		return nil, fmt.Errorf("volume profile: %w", err)
	}

	log.Info().
		Str("symbol", req.Symbol).
		Str("source", c.Fetcher.Name()).
		Int("bars", series.Len()).
		Int("weeks", len(table)).
		Bool("dropped_incomplete", dropped).
		Msg("pullback backtest complete")

	return &model.Report{
		ID:                uuid.NewString(),
		Symbol:            req.Symbol,
		Start:             model.CalendarDate(req.Start),
		LookbackDays:      req.LookbackDays,
		BinCount:          req.BinCount,
		ProfileSource:     req.ProfileSource,
		GeneratedAt:       now,
		Series:            series,
		Table:             table,
		DroppedIncomplete: dropped,
		Summary:           calculator.Summarize(table),
		Profile:           profile,
	}, nil
}
