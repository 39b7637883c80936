// Package history pre-loads and serves per-instrument bars for one trading
// session, backed by a local SQLite cache with the external source as a
// timeout-bounded fallback.
package history

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"MacroPulse/internal/metrics"
	"MacroPulse/internal/model"
)

// Store persists historical bars and daily opens. Writes are idempotent
// (duplicate keys are skipped) so repeated partial loads are safe to retry.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens (or creates) the bar cache database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so replay reads don't contend with loader writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bars (
			instrument TEXT NOT NULL,
			timeframe  TEXT NOT NULL,
			ts         INTEGER NOT NULL,
			open       REAL,
			high       REAL,
			low        REAL,
			close      REAL,
			volume     REAL,
			PRIMARY KEY (instrument, timeframe, ts)
		)`,
		`CREATE TABLE IF NOT EXISTS daily_opens (
			instrument TEXT NOT NULL,
			day        TEXT NOT NULL,
			ts         INTEGER NOT NULL,
			open       REAL,
			high       REAL,
			low        REAL,
			close      REAL,
			PRIMARY KEY (instrument, day)
		)`,
	}
	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

// SaveBars inserts bars, skipping rows whose key already exists. Returns the
// number of newly persisted bars.
func (s *Store) SaveBars(instrument string, bars []model.Candle) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO bars
		(instrument, timeframe, ts, open, high, low, close, volume)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, b := range bars {
		res, err := stmt.Exec(instrument, string(b.Timeframe), b.Time.Unix(),
			b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert bar: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	metrics.BarsCachedTotal.Add(float64(inserted))
	return inserted, nil
}

// Bars returns cached bars within [from, to], ascending by timestamp.
func (s *Store) Bars(instrument string, tf model.Timeframe, from, to time.Time) ([]model.Candle, error) {
	rows, err := s.db.Query(`SELECT ts, open, high, low, close, volume FROM bars
		WHERE instrument = ? AND timeframe = ? AND ts BETWEEN ? AND ?
		ORDER BY ts ASC`,
		instrument, string(tf), from.Unix(), to.Unix())
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var out []model.Candle
	for rows.Next() {
		var ts int64
		c := model.Candle{Timeframe: tf}
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		c.Time = time.Unix(ts, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// SaveDailyOpen upserts the daily candle for one instrument and day.
func (s *Store) SaveDailyOpen(instrument string, day time.Time, c model.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR REPLACE INTO daily_opens
		(instrument, day, ts, open, high, low, close)
		VALUES (?,?,?,?,?,?,?)`,
		instrument, day.Format("2006-01-02"), c.Time.Unix(),
		c.Open, c.High, c.Low, c.Close)
	if err != nil {
		return fmt.Errorf("save daily open: %w", err)
	}
	return nil
}

// DailyOpen returns the cached daily candle, or false if absent.
func (s *Store) DailyOpen(instrument string, day time.Time) (model.Candle, bool, error) {
	var ts int64
	c := model.Candle{Timeframe: model.TimeframeD1}
	err := s.db.QueryRow(`SELECT ts, open, high, low, close FROM daily_opens
		WHERE instrument = ? AND day = ?`,
		instrument, day.Format("2006-01-02")).
		Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close)
	if err == sql.ErrNoRows {
		return model.Candle{}, false, nil
	}
	if err != nil {
		return model.Candle{}, false, fmt.Errorf("query daily open: %w", err)
	}
	c.Time = time.Unix(ts, 0).UTC()
	return c, true, nil
}

func (s *Store) Close() error { return s.db.Close() }
