package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pitchscore/internal/db"
	"github.com/sells-group/pitchscore/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	now     func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, now: utcNow}, nil
}

func utcNow() time.Time { return time.Now().UTC() }

const postgresMigration = `
CREATE TABLE IF NOT EXISTS founder_records (
	id               TEXT PRIMARY KEY,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	title            TEXT NOT NULL DEFAULT '',
	company_name     TEXT NOT NULL DEFAULT '',
	industry         TEXT NOT NULL DEFAULT '',
	phase            TEXT NOT NULL DEFAULT '',
	summary          TEXT NOT NULL DEFAULT '',
	revenue          DOUBLE PRECISION,
	cogs             DOUBLE PRECISION,
	fixed_cost       DOUBLE PRECISION,
	ad_cost          DOUBLE PRECISION,
	cv               DOUBLE PRECISION,
	cvr              DOUBLE PRECISION,
	price            DOUBLE PRECISION,
	cpa              DOUBLE PRECISION,
	ltv              DOUBLE PRECISION,
	churn            DOUBLE PRECISION,
	gross_profit     DOUBLE PRECISION,
	operating_income DOUBLE PRECISION,
	ai_score         INTEGER CHECK (ai_score BETWEEN 0 AND 100),
	tags             TEXT[] NOT NULL DEFAULT '{}',
	status           TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'current', 'review', 'public')),
	submitted_at     TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_founder_records_created_at ON founder_records(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_founder_records_ai_score ON founder_records(ai_score DESC NULLS LAST);
CREATE INDEX IF NOT EXISTS idx_founder_records_status ON founder_records(status);
CREATE INDEX IF NOT EXISTS idx_founder_records_tags ON founder_records USING GIN (tags);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) clock() time.Time {
	if s.now == nil {
		return utcNow()
	}
	return s.now()
}

func (s *PostgresStore) CreateRecord(ctx context.Context, in model.RecordInput) (*model.Record, error) {
	r, err := newRecord(in, uuid.New().String(), s.clock())
	if err != nil {
		return nil, err
	}

	query, args, err := postgresDialect.insertQuery(r)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build insert")
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return nil, eris.Wrap(err, "postgres: insert record")
	}
	return r, nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	query, args, err := postgresDialect.getQuery(id)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build get")
	}
	r, err := scanPostgresRecord(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}
	return r, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter RecordFilter) (*RecordPage, error) {
	filter = filter.Normalize()

	countSQL, countArgs, err := postgresDialect.countQuery(filter)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build count")
	}
	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, eris.Wrap(err, "postgres: count records")
	}

	query, args, err := postgresDialect.listQuery(filter)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build list")
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		r, err := scanPostgresRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		records = append(records, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate records")
	}
	return newPage(filter, records, total), nil
}

func (s *PostgresStore) UpdateRecord(ctx context.Context, id string, patch RecordPatch) (*model.Record, error) {
	query, args, err := postgresDialect.updateQuery(id, patch, s.clock())
	if errors.Is(err, ErrNoFields) {
		return nil, ErrNoFields
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build update")
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update record %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetRecord(ctx, id)
}

func (s *PostgresStore) RequestPublish(ctx context.Context, id string, at time.Time) (*model.Record, error) {
	query, args, err := postgresDialect.publishQuery(id, at.UTC())
	if err != nil {
		return nil, eris.Wrap(err, "postgres: build publish")
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: publish record %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, s.publishFailure(ctx, id)
	}
	return s.GetRecord(ctx, id)
}

// publishFailure explains a publish that matched no row.
func (s *PostgresStore) publishFailure(ctx context.Context, id string) error {
	query, args, err := postgresDialect.statusQuery(id)
	if err != nil {
		return eris.Wrap(err, "postgres: build status")
	}
	var status string
	err = s.pool.QueryRow(ctx, query, args...).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrapf(err, "postgres: get status %s", id)
	}
	return ErrInvalidTransition
}

// ImportRecords bulk-loads records with the COPY protocol.
func (s *PostgresStore) ImportRecords(ctx context.Context, ins []model.RecordInput) (int64, error) {
	now := s.clock()
	rows := make([][]any, 0, len(ins))
	for i, in := range ins {
		r, err := newRecord(in, uuid.New().String(), now)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: import record %d", i)
		}
		vals, err := postgresDialect.values(r)
		if err != nil {
			return 0, eris.Wrapf(err, "postgres: import record %d", i)
		}
		rows = append(rows, vals)
	}
	return db.CopyFrom(ctx, s.pool, recordsTable, recordColumns, rows)
}

func scanPostgresRecord(row scannable) (*model.Record, error) {
	var tags []string
	return scanRecord(row, &tags, func(r *model.Record) error {
		r.Tags = tags
		return nil
	})
}
