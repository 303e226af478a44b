package bank

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type Store interface {
	Put(ctx context.Context, b Bank) error
	Get(ctx context.Context, id string) (Bank, error)
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Put(ctx context.Context, b Bank) error {
	qj, err := json.Marshal(b.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO banks (id, subject_name, questions_json, created_at)
		 VALUES ($1,$2,$3,$4)`,
		b.ID, b.SubjectName, string(qj), b.CreatedAt.Unix())
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Bank, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, subject_name, questions_json, created_at FROM banks WHERE id=$1`, id)
	var b Bank
	var qjson string
	var created int64
	if err := row.Scan(&b.ID, &b.SubjectName, &qjson, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Bank{}, ErrNotFound
		}
		return Bank{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &b.Questions); err != nil {
		return Bank{}, err
	}
	b.CreatedAt = time.Unix(created, 0).UTC()
	return b, nil
}

func (s *SQLStore) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject_name, questions_json, created_at FROM banks ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var id, subject, qjson string
		var created int64
		if err := rows.Scan(&id, &subject, &qjson, &created); err != nil {
			return nil, err
		}
		var qs []Question
		if err := json.Unmarshal([]byte(qjson), &qs); err != nil {
			return nil, err
		}
		out = append(out, Summary{
			ID:             id,
			SubjectName:    subject,
			QuestionsCount: len(qs),
			CreatedAt:      time.Unix(created, 0).UTC(),
		})
	}
	return out, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM banks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
