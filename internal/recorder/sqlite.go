package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"KeyStatsLab/internal/model"
)

// SQLiteRecorder persists backtest runs and picks to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL UNIQUE,
			timestamp         INTEGER NOT NULL,
			dataset_path      TEXT,
			threshold_pct     REAL,
			test_fraction     REAL,
			seed              INTEGER,
			train_rows        INTEGER,
			test_rows         INTEGER,
			dropped_rows      INTEGER,
			accuracy          REAL,
			precision_score   REAL,
			trades            INTEGER,
			strategy_return   REAL,
			benchmark_return  REAL,
			outperformance    REAL,
			no_trades         INTEGER,
			warnings          TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_backtest_ts ON backtest_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS picks (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id         TEXT NOT NULL,
			timestamp      INTEGER NOT NULL,
			ticker         TEXT NOT NULL,
			missing_fields INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_picks_run ON picks(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordBacktest(meta RunMeta, rep model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := rep.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO backtest_runs
		(run_id, timestamp, dataset_path, threshold_pct, test_fraction, seed,
		 train_rows, test_rows, dropped_rows, accuracy, precision_score, trades,
		 strategy_return, benchmark_return, outperformance, no_trades, warnings)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		rep.RunID, ts.Unix(), meta.DatasetPath, meta.ThresholdPct, meta.TestFraction, int64(meta.Seed),
		rep.TrainRows, rep.TestRows, rep.DroppedRows, rep.Accuracy, rep.Precision, rep.NumPositivePredictions,
		nullable(rep.AvgStrategyReturnPct), nullable(rep.AvgBenchmarkReturnPct), nullable(rep.OutperformancePct),
		rep.NoTrades, strings.Join(rep.Warnings, "; "),
	)
	return err
}

func (r *SQLiteRecorder) RecordPicks(runID string, picks []model.Pick) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	for _, p := range picks {
		if _, err := tx.Exec(`INSERT INTO picks (run_id, timestamp, ticker, missing_fields) VALUES (?,?,?,?)`,
			runID, now, p.Ticker, p.Features.MissingCount()); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecentBacktests returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentBacktests(limit int) ([]BacktestRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, timestamp, dataset_path, threshold_pct, test_fraction, seed,
		train_rows, test_rows, dropped_rows, accuracy, precision_score, trades, outperformance, no_trades
		FROM backtest_runs ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BacktestRun
	for rows.Next() {
		var (
			run  BacktestRun
			ts   int64
			seed int64
			outp sql.NullFloat64
		)
		if err := rows.Scan(&run.RunID, &ts, &run.Meta.DatasetPath, &run.Meta.ThresholdPct, &run.Meta.TestFraction, &seed,
			&run.TrainRows, &run.TestRows, &run.DroppedRows, &run.Accuracy, &run.Precision, &run.Trades,
			&outp, &run.NoTrades); err != nil {
			return nil, err
		}
		run.CreatedAt = time.Unix(ts, 0).UTC()
		run.Meta.Seed = uint64(seed)
		if outp.Valid {
			v := outp.Float64
			run.OutperformancePct = &v
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
