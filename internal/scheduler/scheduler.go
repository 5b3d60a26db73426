package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"PullbackLens/internal/collector"
	"PullbackLens/internal/model"
	"PullbackLens/internal/notifier"
	"PullbackLens/internal/recorder"
)

// Notifier delivers the weekly digest. *notifier.TelegramNotifier implements it.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler re-runs the pullback backtest for a watchlist on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Watchlist []string
	// Template supplies every field of the per-symbol request except Symbol.
	Template collector.Request
	// Notifier is optional; nil disables the digest.
	Notifier Notifier
	Ctx      context.Context
	Now      func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, rec recorder.Recorder, watchlist []string, tmpl collector.Request) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Recorder:  rec,
		Watchlist: watchlist,
		Template:  tmpl,
		Ctx:       ctx,
		Now:       time.Now,
	}
}

// Register adds the weekly watchlist task.
func (s *Scheduler) Register(weeklyCron string) error {
	if _, err := s.Cron.AddFunc(weeklyCron, s.weeklyTask); err != nil {
		return fmt.Errorf("register weekly task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("entries", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunWeeklyNow executes the weekly task immediately. Each symbol runs
// independently; the returned error joins every per-symbol failure.
func (s *Scheduler) RunWeeklyNow() error {
	now := s.Now()
	var (
		errs    []error
		reports []*model.Report
		failed  []string
	)
	for _, symbol := range s.Watchlist {
		rep, err := s.runSymbol(symbol, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", symbol, err))
			failed = append(failed, symbol)
			continue
		}
		reports = append(reports, rep)
	}
	if len(s.Watchlist) > 0 {
		s.trySend(notifier.FormatWeeklyDigest(now, reports, failed))
	}
	return errors.Join(errs...)
}

func (s *Scheduler) weeklyTask() {
	log.Info().Strs("watchlist", s.Watchlist).Msg("running weekly task")
	if err := s.RunWeeklyNow(); err != nil {
		log.Error().Err(err).Msg("weekly task finished with errors")
	}
}

func (s *Scheduler) runSymbol(symbol string, now time.Time) (*model.Report, error) {
	req := s.Template
	req.Symbol = symbol
	rep, err := s.Collector.Run(s.Ctx, req, now)
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.RecordRun(rep); err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	log.Info().
		Str("symbol", rep.Symbol).
		Int("rated_weeks", rep.Summary.RatedWeeks).
		Msg("weekly run recorded")
	return rep, nil
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	switch fields[0] {
	case "/weekly":
		if err := s.RunWeeklyNow(); err != nil {
			log.Error().Err(err).Msg("weekly task from command")
		}
		return ""
	case "/last":
		if len(fields) < 2 {
			return "usage: /last SYMBOL"
		}
		rep, err := s.Recorder.LastRun(fields[1])
		if errors.Is(err, recorder.ErrNotFound) {
			return "no recorded run for " + strings.ToUpper(fields[1])
		}
		if err != nil {
			log.Error().Err(err).Msg("load last run")
			return "failed to load last run"
		}
		return notifier.FormatRunSummary(rep)
	default:
		return helpText
	}
}

const helpText = "Commands:\n• /weekly: rerun the watchlist now\n• /last SYMBOL: latest recorded run"

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
