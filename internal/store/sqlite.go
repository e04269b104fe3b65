package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/pitchscore/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
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
	return &SQLiteStore{db: db, now: utcNow}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS founder_records (
	id               TEXT PRIMARY KEY,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	title            TEXT NOT NULL DEFAULT '',
	company_name     TEXT NOT NULL DEFAULT '',
	industry         TEXT NOT NULL DEFAULT '',
	phase            TEXT NOT NULL DEFAULT '',
	summary          TEXT NOT NULL DEFAULT '',
	revenue          REAL,
	cogs             REAL,
	fixed_cost       REAL,
	ad_cost          REAL,
	cv               REAL,
	cvr              REAL,
	price            REAL,
	cpa              REAL,
	ltv              REAL,
	churn            REAL,
	gross_profit     REAL,
	operating_income REAL,
	ai_score         INTEGER CHECK (ai_score BETWEEN 0 AND 100),
	tags             TEXT NOT NULL DEFAULT '[]',
	status           TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'current', 'review', 'public')),
	submitted_at     DATETIME
);

CREATE INDEX IF NOT EXISTS idx_founder_records_created_at ON founder_records(created_at);
CREATE INDEX IF NOT EXISTS idx_founder_records_ai_score ON founder_records(ai_score);
CREATE INDEX IF NOT EXISTS idx_founder_records_status ON founder_records(status);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) clock() time.Time {
	if s.now == nil {
		return utcNow()
	}
	return s.now()
}

func (s *SQLiteStore) CreateRecord(ctx context.Context, in model.RecordInput) (*model.Record, error) {
	r, err := newRecord(in, uuid.New().String(), s.clock())
	if err != nil {
		return nil, err
	}

	query, args, err := sqliteDialect.insertQuery(r)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build insert")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, eris.Wrap(err, "sqlite: insert record")
	}
	return r, nil
}

func (s *SQLiteStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	query, args, err := sqliteDialect.getQuery(id)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build get")
	}
	r, err := scanSQLiteRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) ListRecords(ctx context.Context, filter RecordFilter) (*RecordPage, error) {
	filter = filter.Normalize()

	countSQL, countArgs, err := sqliteDialect.countQuery(filter)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build count")
	}
	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, eris.Wrap(err, "sqlite: count records")
	}

	query, args, err := sqliteDialect.listQuery(filter)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build list")
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list records")
	}
	defer rows.Close() //nolint:errcheck

	var records []model.Record
	for rows.Next() {
		r, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate records")
	}
	return newPage(filter, records, total), nil
}

func (s *SQLiteStore) UpdateRecord(ctx context.Context, id string, patch RecordPatch) (*model.Record, error) {
	query, args, err := sqliteDialect.updateQuery(id, patch, s.clock())
	if errors.Is(err, ErrNoFields) {
		return nil, ErrNoFields
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build update")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update record %s", id)
	}
	if err := checkRowsAffected(res); err != nil {
		return nil, err
	}
	return s.GetRecord(ctx, id)
}

func (s *SQLiteStore) RequestPublish(ctx context.Context, id string, at time.Time) (*model.Record, error) {
	query, args, err := sqliteDialect.publishQuery(id, at.UTC())
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: build publish")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: publish record %s", id)
	}
	if err := checkRowsAffected(res); errors.Is(err, ErrNotFound) {
		return nil, s.publishFailure(ctx, id)
	} else if err != nil {
		return nil, err
	}
	return s.GetRecord(ctx, id)
}

// publishFailure explains a publish that matched no row.
func (s *SQLiteStore) publishFailure(ctx context.Context, id string) error {
	query, args, err := sqliteDialect.statusQuery(id)
	if err != nil {
		return eris.Wrap(err, "sqlite: build status")
	}
	var status string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: get status %s", id)
	}
	return ErrInvalidTransition
}

// ImportRecords inserts every record in one transaction.
func (s *SQLiteStore) ImportRecords(ctx context.Context, ins []model.RecordInput) (int64, error) {
	if len(ins) == 0 {
		return 0, nil
	}
	now := s.clock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: import: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for i, in := range ins {
		r, err := newRecord(in, uuid.New().String(), now)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: import record %d", i)
		}
		query, args, err := sqliteDialect.insertQuery(r)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: import record %d", i)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: import record %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: import: commit tx")
	}
	return int64(len(ins)), nil
}

// helpers

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSQLiteRecord(row scannable) (*model.Record, error) {
	var tags string
	return scanRecord(row, &tags, func(r *model.Record) error {
		if tags == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
			return eris.Wrap(err, "sqlite: unmarshal tags")
		}
		return nil
	})
}
