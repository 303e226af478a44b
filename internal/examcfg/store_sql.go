package examcfg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Store persists the single exam configuration row and the global exam-mode
// switch.
type Store interface {
	Get(ctx context.Context) (Config, error)
	Set(ctx context.Context, c Config) error
	RemoveBankID(ctx context.Context, bankID string) error

	ExamMode(ctx context.Context) (bool, error)
	SetExamMode(ctx context.Context, enabled bool) error
}

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context) (Config, error) {
	row := s.db.QueryRowContext(ctx, `SELECT config_json FROM exam_config WHERE id=1`)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Default(), nil
		}
		return Config{}, err
	}
	var c Config
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Config{}, err
	}
	if c.BankIDs == nil {
		c.BankIDs = []string{}
	}
	return c, nil
}

func (s *SQLStore) Set(ctx context.Context, c Config) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exam_config (id, config_json, updated_at) VALUES (1,$1,$2)
		 ON CONFLICT (id) DO UPDATE SET config_json=EXCLUDED.config_json, updated_at=EXCLUDED.updated_at`,
		string(raw), time.Now().Unix())
	return err
}

// RemoveBankID drops a deleted bank from the configured set. The resulting
// config may violate the product invariant until the teacher saves a
// consistent one; attempt starts re-check it anyway.
func (s *SQLStore) RemoveBankID(ctx context.Context, bankID string) error {
	c, err := s.Get(ctx)
	if err != nil {
		return err
	}
	next := c.BankIDs[:0]
	for _, id := range c.BankIDs {
		if id != bankID {
			next = append(next, id)
		}
	}
	if len(next) == len(c.BankIDs) {
		return nil
	}
	c.BankIDs = next
	return s.Set(ctx, c)
}

func (s *SQLStore) ExamMode(ctx context.Context) (bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key='exam_mode'`)
	var v string
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return v == "1", nil
}

func (s *SQLStore) SetExamMode(ctx context.Context, enabled bool) error {
	v := "0"
	if enabled {
		v = "1"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_settings (key, value) VALUES ('exam_mode',$1)
		 ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value`, v)
	return err
}
