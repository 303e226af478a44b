package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:examplatform.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/examplatform?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS banks (
  id TEXT PRIMARY KEY,
  subject_name TEXT NOT NULL,
  questions_json TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS exam_config (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  config_json TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS app_settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS roster (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  roster_json TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  login TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  university TEXT NOT NULL DEFAULT '',
  program TEXT NOT NULL,
  program_id TEXT NOT NULL,
  group_name TEXT NOT NULL,
  exam_date TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
  token TEXT PRIMARY KEY,
  account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
  created_at INTEGER NOT NULL,
  expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  program_id TEXT NOT NULL,
  program_name TEXT NOT NULL,
  group_name TEXT NOT NULL,
  student_fullname TEXT NOT NULL,
  exam_date TEXT NOT NULL,
  university TEXT NOT NULL DEFAULT '',
  started_at INTEGER NOT NULL,
  finished_at INTEGER,
  updated_at INTEGER NOT NULL,
  duration_minutes INTEGER NOT NULL,
  total_questions INTEGER NOT NULL,
  points_per_question INTEGER NOT NULL,
  questions_json TEXT NOT NULL,
  answers_json TEXT NOT NULL,
  correct_count INTEGER,
  score_points INTEGER
);

CREATE UNIQUE INDEX IF NOT EXISTS attempts_one_active
  ON attempts(program_id, group_name, student_fullname, exam_date)
  WHERE finished_at IS NULL;

CREATE INDEX IF NOT EXISTS attempts_student
  ON attempts(program_id, group_name, student_fullname, exam_date);

CREATE TABLE IF NOT EXISTS results (
  offset INTEGER PRIMARY KEY AUTOINCREMENT, -- BIGSERIAL in Postgres
  test_id TEXT NOT NULL,
  fullname TEXT NOT NULL,
  group_name TEXT NOT NULL,
  university TEXT NOT NULL,
  faculty TEXT NOT NULL,
  correct INTEGER NOT NULL,
  total INTEGER NOT NULL,
  score INTEGER NOT NULL,
  started_at INTEGER,
  finished_at INTEGER,
  time_spent_seconds INTEGER,
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS banks (
  id TEXT PRIMARY KEY,
  subject_name TEXT NOT NULL,
  questions_json TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS exam_config (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  config_json TEXT NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS app_settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS roster (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  roster_json TEXT NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  login TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  university TEXT NOT NULL DEFAULT '',
  program TEXT NOT NULL,
  program_id TEXT NOT NULL,
  group_name TEXT NOT NULL,
  exam_date TEXT NOT NULL,
  active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
  token TEXT PRIMARY KEY,
  account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
  created_at BIGINT NOT NULL,
  expires_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
  id TEXT PRIMARY KEY,
  program_id TEXT NOT NULL,
  program_name TEXT NOT NULL,
  group_name TEXT NOT NULL,
  student_fullname TEXT NOT NULL,
  exam_date TEXT NOT NULL,
  university TEXT NOT NULL DEFAULT '',
  started_at BIGINT NOT NULL,
  finished_at BIGINT,
  updated_at BIGINT NOT NULL,
  duration_minutes INTEGER NOT NULL,
  total_questions INTEGER NOT NULL,
  points_per_question INTEGER NOT NULL,
  questions_json TEXT NOT NULL,
  answers_json TEXT NOT NULL,
  correct_count INTEGER,
  score_points INTEGER
);

CREATE UNIQUE INDEX IF NOT EXISTS attempts_one_active
  ON attempts(program_id, group_name, student_fullname, exam_date)
  WHERE finished_at IS NULL;

CREATE INDEX IF NOT EXISTS attempts_student
  ON attempts(program_id, group_name, student_fullname, exam_date);

CREATE TABLE IF NOT EXISTS results (
  "offset" BIGSERIAL PRIMARY KEY,
  test_id TEXT NOT NULL,
  fullname TEXT NOT NULL,
  group_name TEXT NOT NULL,
  university TEXT NOT NULL,
  faculty TEXT NOT NULL,
  correct INTEGER NOT NULL,
  total INTEGER NOT NULL,
  score INTEGER NOT NULL,
  started_at BIGINT,
  finished_at BIGINT,
  time_spent_seconds BIGINT,
  created_at BIGINT NOT NULL
);
`
