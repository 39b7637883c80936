package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"MacroPulse/internal/model"
)

// SQLite persists results to a SQLite database.
type SQLite struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLite opens (or creates) the results database and runs migrations.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS aggregates (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session     TEXT NOT NULL,
			ts          INTEGER NOT NULL,
			signal      TEXT,
			score       REAL,
			confidence  REAL,
			ref_price   REAL,
			total       INTEGER,
			available   INTEGER,
			unavailable INTEGER,
			bullish     REAL,
			bearish     REAL,
			summary     TEXT,
			UNIQUE (session, ts)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_aggregates_ts ON aggregates(ts)`,

		`CREATE TABLE IF NOT EXISTS item_scores (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session    TEXT NOT NULL,
			ts         INTEGER NOT NULL,
			item_id    INTEGER NOT NULL,
			symbol     TEXT,
			instrument TEXT,
			raw        INTEGER,
			final      INTEGER,
			weight     REAL,
			weighted   REAL,
			available  INTEGER,
			detail     TEXT,
			UNIQUE (session, ts, item_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_item_scores_item ON item_scores(item_id)`,

		`CREATE TABLE IF NOT EXISTS feedback (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			session        TEXT NOT NULL,
			signal         TEXT,
			score          REAL,
			confidence     REAL,
			ref_price      REAL,
			decided_at     INTEGER NOT NULL,
			realized_price REAL,
			direction      TEXT,
			correct        INTEGER,
			evaluated      INTEGER NOT NULL DEFAULT 0,
			evaluated_at   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_open ON feedback(evaluated, decided_at)`,
	}
	for _, st := range stmts {
		if _, err := s.db.Exec(st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

func (s *SQLite) SaveAggregate(res *model.AggregateResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	_, err = tx.Exec(`INSERT OR IGNORE INTO aggregates
		(session, ts, signal, score, confidence, ref_price, total, available, unavailable, bullish, bearish, summary)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.SessionID, res.At.Unix(), string(res.Signal), res.FinalScore, res.Confidence,
		res.RefPrice, res.Total, res.Available, res.Unavailable,
		res.BullishSum, res.BearishSum, res.Summary)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert aggregate: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO item_scores
		(session, ts, item_id, symbol, instrument, raw, final, weight, weighted, available, detail)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare item scores: %w", err)
	}
	defer stmt.Close()
	for _, it := range res.Items {
		avail := 0
		if it.Available {
			avail = 1
		}
		if _, err := stmt.Exec(res.SessionID, res.At.Unix(), it.ItemID, it.Symbol, it.Instrument,
			it.RawScore.Int(), it.FinalScore.Int(), it.Weight.Float(), it.Weighted, avail, it.Detail); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert item score: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) RecordDecision(rec *model.FeedbackRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT INTO feedback
		(session, signal, score, confidence, ref_price, decided_at)
		VALUES (?,?,?,?,?,?)`,
		rec.SessionID, string(rec.Signal), rec.Score, rec.Confidence, rec.RefPrice, rec.DecidedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("insert feedback: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLite) PendingDecisions(before time.Time) ([]model.FeedbackRecord, error) {
	rows, err := s.db.Query(`SELECT id, session, signal, score, confidence, ref_price, decided_at
		FROM feedback WHERE evaluated = 0 AND decided_at <= ? ORDER BY decided_at ASC`,
		before.Unix())
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()

	var out []model.FeedbackRecord
	for rows.Next() {
		var rec model.FeedbackRecord
		var sig string
		var decided int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &sig, &rec.Score, &rec.Confidence, &rec.RefPrice, &decided); err != nil {
			return nil, fmt.Errorf("scan pending: %w", err)
		}
		rec.Signal = model.Signal(sig)
		rec.DecidedAt = time.Unix(decided, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) MarkEvaluated(id int64, realizedPrice float64, dir model.Direction, correct bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := 0
	if correct {
		c = 1
	}
	// evaluated = 0 in the predicate keeps the mutation exactly-once.
	res, err := s.db.Exec(`UPDATE feedback
		SET realized_price = ?, direction = ?, correct = ?, evaluated = 1, evaluated_at = ?
		WHERE id = ? AND evaluated = 0`,
		realizedPrice, string(dir), c, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("mark evaluated: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("feedback %d already evaluated or missing", id)
	}
	return nil
}

func (s *SQLite) ItemOutcomes(itemID int, limit int) ([]ItemOutcome, error) {
	rows, err := s.db.Query(`SELECT i.final, f.direction
		FROM item_scores i
		JOIN feedback f ON f.session = i.session
		WHERE i.item_id = ? AND i.available = 1 AND i.final != 0
		  AND f.evaluated = 1 AND f.direction != ?
		ORDER BY f.evaluated_at DESC LIMIT ?`,
		itemID, string(model.DirectionFlat), limit)
	if err != nil {
		return nil, fmt.Errorf("query item outcomes: %w", err)
	}
	defer rows.Close()

	var out []ItemOutcome
	for rows.Next() {
		var o ItemOutcome
		var dir string
		if err := rows.Scan(&o.FinalScore, &dir); err != nil {
			return nil, fmt.Errorf("scan item outcome: %w", err)
		}
		o.Realized = model.Direction(dir)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error { return s.db.Close() }
