package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/guregu/null/v6"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"PullbackLens/internal/calculator"
	"PullbackLens/internal/model"
)

// MemoryDSN keeps the database in process memory; it disappears on Close.
const MemoryDSN = ":memory:"

// SQLiteRecorder stores the latest report per symbol in a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens the database and runs migrations.
func NewSQLiteRecorder(dsn string) (*SQLiteRecorder, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to :memory: is a separate database, so pin one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("dsn", dsn).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			run_uuid           TEXT NOT NULL,
			symbol             TEXT NOT NULL,
			start_date         TEXT NOT NULL,
			lookback_days      INTEGER NOT NULL,
			bin_count          INTEGER NOT NULL,
			profile_source     TEXT NOT NULL,
			generated_at       INTEGER NOT NULL,
			dropped_incomplete INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_symbol ON runs(symbol)`,

		`CREATE TABLE IF NOT EXISTS daily_bars (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			date   TEXT NOT NULL,
			open   TEXT NOT NULL,
			high   TEXT NOT NULL,
			low    TEXT NOT NULL,
			close  TEXT NOT NULL,
			volume TEXT NOT NULL,
			PRIMARY KEY (run_id, date)
		)`,

		`CREATE TABLE IF NOT EXISTS pullback_rows (
			run_id           INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			week_ending      TEXT NOT NULL,
			close            TEXT NOT NULL,
			window_high      TEXT,
			window_high_date TEXT,
			window_start     TEXT NOT NULL,
			window_end       TEXT NOT NULL,
			pullback_ratio   TEXT,
			PRIMARY KEY (run_id, week_ending)
		)`,

		`CREATE TABLE IF NOT EXISTS profile_bins (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			idx    INTEGER NOT NULL,
			lower  TEXT NOT NULL,
			upper  TEXT NOT NULL,
			volume TEXT NOT NULL,
			PRIMARY KEY (run_id, idx)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", firstLine(s), err)
		}
	}
	return nil
}

// RecordRun replaces any earlier run for the report's symbol.
func (r *SQLiteRecorder) RecordRun(rep *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM runs WHERE symbol = ?`, rep.Symbol); err != nil {
		return fmt.Errorf("clear previous run: %w", err)
	}
	res, err := tx.Exec(`INSERT INTO runs
		(run_uuid, symbol, start_date, lookback_days, bin_count, profile_source, generated_at, dropped_incomplete)
		VALUES (?,?,?,?,?,?,?,?)`,
		rep.ID, rep.Symbol, model.FormatDate(rep.Start), rep.LookbackDays, rep.BinCount,
		string(rep.ProfileSource), rep.GeneratedAt.Unix(), rep.DroppedIncomplete,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, b := range rep.Series.Bars() {
		if _, err := tx.Exec(`INSERT INTO daily_bars (run_id, date, open, high, low, close, volume)
			VALUES (?,?,?,?,?,?,?)`,
			runID, model.FormatDate(b.Date), b.Open, b.High, b.Low, b.Close, b.Volume,
		); err != nil {
			return fmt.Errorf("insert bar %s: %w", model.FormatDate(b.Date), err)
		}
	}

	for _, row := range rep.Table {
		if _, err := tx.Exec(`INSERT INTO pullback_rows
			(run_id, week_ending, close, window_high, window_high_date, window_start, window_end, pullback_ratio)
			VALUES (?,?,?,?,?,?,?,?)`,
			runID, model.FormatDate(row.WeekEnding), row.Close, row.WindowHigh,
			dateOrNull(row.WindowHighDate), model.FormatDate(row.WindowStart),
			model.FormatDate(row.WindowEnd), row.PullbackRatio,
		); err != nil {
			return fmt.Errorf("insert row %s: %w", model.FormatDate(row.WeekEnding), err)
		}
	}

	for i, v := range rep.Profile.Volumes {
		if _, err := tx.Exec(`INSERT INTO profile_bins (run_id, idx, lower, upper, volume) VALUES (?,?,?,?,?)`,
			runID, i, rep.Profile.Edges[i], rep.Profile.Edges[i+1], v,
		); err != nil {
			return fmt.Errorf("insert bin %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// LastRun loads the recorded report for symbol.
func (r *SQLiteRecorder) LastRun(symbol string) (*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	rep := &model.Report{Symbol: symbol}
	var (
		runID     int64
		start     string
		source    string
		generated int64
	)
	err := r.db.QueryRow(`SELECT id, run_uuid, start_date, lookback_days, bin_count, profile_source, generated_at, dropped_incomplete
		FROM runs WHERE symbol = ? ORDER BY id DESC LIMIT 1`, symbol).
		Scan(&runID, &rep.ID, &start, &rep.LookbackDays, &rep.BinCount, &source, &generated, &rep.DroppedIncomplete)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for %s", ErrNotFound, symbol)
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	if rep.Start, err = model.ParseDate(start); err != nil {
		return nil, fmt.Errorf("load run start: %w", err)
	}
	rep.ProfileSource = model.ProfileSource(source)
	rep.GeneratedAt = time.Unix(generated, 0)

	bars, err := r.loadBars(runID)
	if err != nil {
		return nil, err
	}
	if rep.Series, err = model.NewDailySeries(symbol, bars); err != nil {
		return nil, fmt.Errorf("rebuild series: %w", err)
	}
	if rep.Table, err = r.loadRows(runID); err != nil {
		return nil, err
	}
	if rep.Profile, err = r.loadProfile(runID); err != nil {
		return nil, err
	}
	rep.Summary = calculator.Summarize(rep.Table)
	return rep, nil
}

func (r *SQLiteRecorder) loadBars(runID int64) ([]model.DailyBar, error) {
	rows, err := r.db.Query(`SELECT date, open, high, low, close, volume
		FROM daily_bars WHERE run_id = ? ORDER BY date`, runID)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	defer rows.Close()

	var bars []model.DailyBar
	for rows.Next() {
		var (
			b    model.DailyBar
			date string
		)
		if err := rows.Scan(&date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		if b.Date, err = model.ParseDate(date); err != nil {
			return nil, fmt.Errorf("scan bar date: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (r *SQLiteRecorder) loadRows(runID int64) (model.ResultTable, error) {
	rows, err := r.db.Query(`SELECT week_ending, close, window_high, window_high_date, window_start, window_end, pullback_ratio
		FROM pullback_rows WHERE run_id = ? ORDER BY week_ending`, runID)
	if err != nil {
		return nil, fmt.Errorf("load rows: %w", err)
	}
	defer rows.Close()

	table := model.ResultTable{}
	for rows.Next() {
		var (
			row                model.PullbackResult
			week, wStart, wEnd string
			highDate           null.String
		)
		if err := rows.Scan(&week, &row.Close, &row.WindowHigh, &highDate, &wStart, &wEnd, &row.PullbackRatio); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if row.WeekEnding, err = model.ParseDate(week); err != nil {
			return nil, err
		}
		if row.WindowStart, err = model.ParseDate(wStart); err != nil {
			return nil, err
		}
		if row.WindowEnd, err = model.ParseDate(wEnd); err != nil {
			return nil, err
		}
		if highDate.Valid {
			d, err := model.ParseDate(highDate.String)
			if err != nil {
				return nil, err
			}
			row.WindowHighDate = null.TimeFrom(d)
		}
		table = append(table, row)
	}
	return table, rows.Err()
}

func (r *SQLiteRecorder) loadProfile(runID int64) (model.VolumeProfile, error) {
	rows, err := r.db.Query(`SELECT lower, upper, volume FROM profile_bins WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return model.VolumeProfile{}, fmt.Errorf("load profile: %w", err)
	}
	defer rows.Close()

	var p model.VolumeProfile
	for rows.Next() {
		var lower, upper, vol decimal.Decimal
		if err := rows.Scan(&lower, &upper, &vol); err != nil {
			return model.VolumeProfile{}, fmt.Errorf("scan bin: %w", err)
		}
		if len(p.Edges) == 0 {
			p.Edges = append(p.Edges, lower)
		}
		p.Edges = append(p.Edges, upper)
		p.Volumes = append(p.Volumes, vol)
	}
	return p, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func dateOrNull(t null.Time) null.String {
	if !t.Valid {
		return null.String{}
	}
	return null.StringFrom(model.FormatDate(t.Time))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
