// Package results is the append-only sink finished attempts are reported
// to. Writes are best-effort: the attempt's own score fields remain the
// source of truth.
package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/MrErgashev/quiz-app/internal/storage"
)

type Result struct {
	TestID           string    `json:"test_id"`
	Fullname         string    `json:"fullname"`
	Group            string    `json:"group"`
	University       string    `json:"university"`
	Faculty          string    `json:"faculty"`
	Correct          int       `json:"correct"`
	Total            int       `json:"total"`
	Score            int       `json:"score"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	TimeSpentSeconds int64     `json:"time_spent_seconds"`
}

type Sink interface {
	Append(ctx context.Context, r Result) error
}

type SQLSink struct{ db *sql.DB }

func NewSQLSink(db *sql.DB) *SQLSink { return &SQLSink{db: db} }

func (s *SQLSink) Append(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (test_id, fullname, group_name, university, faculty,
		   correct, total, score, started_at, finished_at, time_spent_seconds, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		r.TestID, r.Fullname, r.Group, r.University, r.Faculty,
		r.Correct, r.Total, r.Score,
		r.StartedAt.Unix(), r.FinishedAt.Unix(), r.TimeSpentSeconds,
		time.Now().Unix())
	return err
}

// FileSink writes one JSON document per result.
type FileSink struct{ dir *storage.Dir }

func NewFileSink(dir *storage.Dir) *FileSink { return &FileSink{dir: dir} }

func (s *FileSink) Append(ctx context.Context, r Result) error {
	key := fmt.Sprintf("results/result_%s_%d", r.TestID, time.Now().UnixNano())
	return s.dir.Store(key, r)
}
