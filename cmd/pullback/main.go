package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"PullbackLens/internal/api"
	"PullbackLens/internal/collector"
	"PullbackLens/internal/config"
	"PullbackLens/internal/logger"
	"PullbackLens/internal/model"
	"PullbackLens/internal/notifier"
	"PullbackLens/internal/recorder"
	"PullbackLens/internal/report"
	"PullbackLens/internal/scheduler"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "serve":
		os.Exit(cmdServe(os.Args[2:]))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  pullback run --symbol SPY --start 2023-01-01 [--lookback 8] [--bins 50] [--profile daily|weekly] [--out results]")
	fmt.Println("  pullback serve")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - run prints the weekly pullback table as CSV, or writes table and profile CSVs into --out")
	fmt.Println("  - serve starts the HTTP API and the weekly watchlist schedule")
	fmt.Println("  - configuration is read from configs/config.yaml (override with CONFIG_PATH)")
}

func loadConfig() (*config.Config, error) {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func newFetcher(cfg *config.Config) collector.Fetcher {
	var fetcher collector.Fetcher
	if cfg.DataSource.Provider == "rest" {
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Timeout)
	} else {
		fetcher = collector.NewYahooFetcher(cfg.DataSource.BaseURL, cfg.Proxy, cfg.DataSource.Timeout)
	}
	fetcher = collector.NewCachedFetcher(fetcher, cfg.DataSource.CacheTTL)
	log.Info().Str("source", fetcher.Name()).Msg("data source ready")
	return fetcher
}

func defaultRequest(cfg *config.Config) (collector.Request, error) {
	start, err := cfg.StartDate()
	if err != nil {
		return collector.Request{}, err
	}
	return collector.Request{
		Symbol:        cfg.Backtest.Symbol,
		Start:         start,
		LookbackDays:  cfg.Backtest.LookbackDays,
		BinCount:      cfg.Backtest.BinCount,
		ProfileSource: cfg.Backtest.ProfileSource,
	}, nil
}

func cmdRun(args []string) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	req, err := defaultRequest(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fs := flag.NewFlagSet("run", flag.ExitOnError)
	symbol := fs.String("symbol", req.Symbol, "Ticker symbol")
	start := fs.String("start", model.FormatDate(req.Start), "First day to fetch (YYYY-MM-DD)")
	lookback := fs.Int("lookback", req.LookbackDays, "Trailing window length in calendar days")
	bins := fs.Int("bins", req.BinCount, "Number of volume profile bin edges")
	profile := fs.String("profile", string(req.ProfileSource), "Volume profile input: daily or weekly")
	outDir := fs.String("out", "", "Directory for table and profile CSVs (empty prints the table)")
	_ = fs.Parse(args)

	req.Symbol = *symbol
	req.LookbackDays = *lookback
	req.BinCount = *bins
	req.ProfileSource = model.ProfileSource(*profile)
	if req.Start, err = model.ParseDate(*start); err != nil {
		fmt.Fprintln(os.Stderr, "--start must be YYYY-MM-DD")
		return 2
	}

	col := collector.NewCollector(newFetcher(cfg))
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rep, err := col.Run(ctx, req, time.Now())
	if errors.Is(err, collector.ErrNoData) {
		fmt.Fprintf(os.Stderr, "no data for %s since %s\n", req.Symbol, *start)
		return 1
	}
	if err != nil {
		log.Error().Err(err).Msg("backtest failed")
		return 1
	}

	if *outDir == "" {
		if err := report.WriteTableCSV(os.Stdout, rep.Table); err != nil {
			log.Error().Err(err).Msg("write table")
			return 1
		}
	} else if err := writeOutputs(*outDir, rep); err != nil {
		log.Error().Err(err).Msg("write outputs")
		return 1
	}

	s := rep.Summary
	ev := log.Info().Str("symbol", rep.Symbol).Int("weeks", s.Weeks).Int("rated_weeks", s.RatedWeeks)
	if s.MeanRatio.Valid {
		ev = ev.Str("mean_ratio", s.MeanRatio.Decimal.StringFixed(4)).
			Str("min_ratio", s.MinRatio.Decimal.StringFixed(4)).
			Str("max_ratio", s.MaxRatio.Decimal.StringFixed(4))
	}
	ev.Msg("summary")
	return 0
}

func writeOutputs(dir string, rep *model.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tablePath := filepath.Join(dir, rep.Symbol+"_pullback.csv")
	if err := writeFile(tablePath, func(f *os.File) error { return report.WriteTableCSV(f, rep.Table) }); err != nil {
		return err
	}
	profilePath := filepath.Join(dir, rep.Symbol+"_profile.csv")
	if err := writeFile(profilePath, func(f *os.File) error { return report.WriteProfileCSV(f, rep.Profile) }); err != nil {
		return err
	}
	log.Info().Str("table", tablePath).Str("profile", profilePath).Msg("csv written")
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func cmdServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	runOnStart := fs.Bool("run-on-start", os.Getenv("RUN_ON_START") == "true", "Run the weekly watchlist task immediately")
	_ = fs.Parse(args)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	tmpl, err := defaultRequest(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log.Info().Msg("PullbackLens starting")

	col := collector.NewCollector(newFetcher(cfg))

	var rec recorder.Recorder
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLiteDSN)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		rec = recorder.NewNoopRecorder()
	} else {
		rec = sr
		defer sr.Close()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, col, rec, cfg.Schedule.Watchlist, tmpl)
	if err := sched.Register(cfg.Schedule.WeeklyCron); err != nil {
		log.Error().Err(err).Msg("register cron task")
		return 1
	}
	if cfg.TelegramEnabled() {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sched.Notifier = tn
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}
	sched.Start()
	defer sched.Stop()

	if *runOnStart {
		log.Info().Msg("run-on-start enabled, executing weekly task now")
		go func() {
			if err := sched.RunWeeklyNow(); err != nil {
				log.Error().Err(err).Msg("startup run finished with errors")
			}
		}()
	}

	router := api.NewRouter(api.NewHandler(col, rec, tmpl), api.RouterOptions{
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
	})
	srv := api.NewServer(cfg.Server.Addr, router, cfg.Server.AllowedOrigins)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping")
	case err := <-errCh:
		log.Error().Err(err).Msg("http server failed")
		return 1
	}

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("PullbackLens stopped")
	return 0
}
