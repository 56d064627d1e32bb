package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/Alepazz/flight-monitor/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    TEXT,
	error      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS notified_deals (
	origin      TEXT NOT NULL,
	destination TEXT NOT NULL,
	depart_date TEXT NOT NULL,
	return_date TEXT NOT NULL,
	price_pp    REAL NOT NULL,
	notified_at DATETIME NOT NULL,
	PRIMARY KEY (origin, destination, depart_date, return_date)
);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, summary = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), string(summaryJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, summary, error, created_at, updated_at FROM runs
		 ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var summaryJSON, errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.Status, &summaryJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if summaryJSON.Valid {
			r.Summary = &model.RunSummary{}
			if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal summary")
			}
		}
		r.Error = errMsg.String
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) LoadNotifiedDeals(ctx context.Context) (map[model.DealKey]float64, error) {
	keys := make(map[model.DealKey]float64)

	rows, err := s.db.QueryContext(ctx,
		`SELECT origin, destination, depart_date, return_date, price_pp FROM notified_deals`,
	)
	if err != nil {
		// Fail open: duplicate notifications beat silent suppression.
		return keys, eris.Wrap(err, "sqlite: load notified deals")
	}
	defer rows.Close()

	for rows.Next() {
		var key model.DealKey
		var price float64
		if err := rows.Scan(&key.Origin, &key.Destination, &key.DepartDate, &key.ReturnDate, &price); err != nil {
			return keys, eris.Wrap(err, "sqlite: scan notified deal")
		}
		keys[key] = price
	}
	return keys, eris.Wrap(rows.Err(), "sqlite: notified deals iterate")
}

func (s *SQLiteStore) RecordNotifiedDeals(ctx context.Context, deals []model.Itinerary, at time.Time) error {
	for _, d := range deals {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO notified_deals (origin, destination, depart_date, return_date, price_pp, notified_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (origin, destination, depart_date, return_date)
			 DO UPDATE SET price_pp = MIN(price_pp, excluded.price_pp), notified_at = excluded.notified_at`,
			d.Origin, d.Destination, d.DepartDate, d.ReturnDate, d.PricePP, at.UTC(),
		)
		if err != nil {
			return eris.Wrap(err, "sqlite: record notified deal")
		}
	}
	return nil
}

func (s *SQLiteStore) LastAlertAt(ctx context.Context) (time.Time, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = 'last_alert_at'`,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, eris.Wrap(err, "sqlite: last alert at")
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, eris.Wrap(err, "sqlite: parse last alert at")
	}
	return t, nil
}

func (s *SQLiteStore) SetLastAlertAt(ctx context.Context, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('last_alert_at', ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		at.UTC().Format(time.RFC3339),
	)
	return eris.Wrap(err, "sqlite: set last alert at")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
