package attempt

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const attemptCols = `id, program_id, program_name, group_name, student_fullname, exam_date,
	university, started_at, finished_at, updated_at,
	duration_minutes, total_questions, points_per_question,
	questions_json, answers_json, correct_count, score_points`

// Create inserts a new attempt. A partial unique index keeps at most one
// unfinished attempt per student key; when the insert loses that race the
// existing unfinished attempt is returned instead.
func (s *SQLStore) Create(ctx context.Context, a Attempt) (Attempt, error) {
	qj, err := json.Marshal(a.Questions)
	if err != nil {
		return Attempt{}, err
	}
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return Attempt{}, err
	}
	_, insErr := s.db.ExecContext(ctx,
		`INSERT INTO attempts (`+attemptCols+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULL,$9,$10,$11,$12,$13,$14,NULL,NULL)`,
		a.ID, a.ProgramID, a.ProgramName, a.GroupName, a.StudentFullname, a.ExamDate,
		a.University, a.StartedAt.Unix(), a.UpdatedAt.Unix(),
		a.DurationMinutes, a.TotalQuestions, a.PointsPerQuestion,
		string(qj), string(aj))
	if insErr == nil {
		return a, nil
	}
	// Whatever the driver said, an existing unfinished attempt for the key
	// explains it; otherwise propagate the original failure.
	existing, err := s.getActive(ctx, a.Key())
	if err == nil {
		return existing, nil
	}
	return Attempt{}, insErr
}

func (s *SQLStore) getActive(ctx context.Context, k Key) (Attempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attemptCols+` FROM attempts
		 WHERE program_id=$1 AND group_name=$2 AND student_fullname=$3 AND exam_date=$4
		   AND finished_at IS NULL`,
		k.ProgramID, k.GroupName, k.StudentFullname, k.ExamDate)
	return scanAttempt(row)
}

func (s *SQLStore) Get(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attemptCols+` FROM attempts WHERE id=$1`, id)
	return scanAttempt(row)
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanAttempt(row rowScanner) (Attempt, error) {
	var a Attempt
	var started, updated int64
	var finished, correct, score sql.NullInt64
	var qjson, ajson string
	err := row.Scan(&a.ID, &a.ProgramID, &a.ProgramName, &a.GroupName, &a.StudentFullname,
		&a.ExamDate, &a.University, &started, &finished, &updated,
		&a.DurationMinutes, &a.TotalQuestions, &a.PointsPerQuestion,
		&qjson, &ajson, &correct, &score)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrNotFound
		}
		return Attempt{}, err
	}
	a.StartedAt = time.Unix(started, 0).UTC()
	a.UpdatedAt = time.Unix(updated, 0).UTC()
	if finished.Valid {
		t := time.Unix(finished.Int64, 0).UTC()
		a.FinishedAt = &t
	}
	if correct.Valid {
		v := int(correct.Int64)
		a.CorrectCount = &v
	}
	if score.Valid {
		v := int(score.Int64)
		a.ScorePoints = &v
	}
	if err := json.Unmarshal([]byte(qjson), &a.Questions); err != nil {
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(ajson), &a.Answers); err != nil {
		return Attempt{}, err
	}
	if a.Answers == nil {
		a.Answers = map[int]int{}
	}
	return a, nil
}

// SaveAnswer overwrites the choice for one question index, conditional on
// the attempt still being unfinished. The whole answers map lives in one
// JSON column, so the write is a compare-and-swap against the value that
// was read: concurrent submissions for different indexes retry instead of
// clobbering each other. json.Marshal sorts map keys, so equal maps always
// produce the same string and the guard is exact.
func (s *SQLStore) SaveAnswer(ctx context.Context, id string, questionIndex, chosenOption int, at time.Time) error {
	for {
		a, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if a.Finished() {
			return ErrFinished
		}
		prev, err := json.Marshal(a.Answers)
		if err != nil {
			return err
		}
		a.Answers[questionIndex] = chosenOption
		next, err := json.Marshal(a.Answers)
		if err != nil {
			return err
		}
		res, err := s.db.ExecContext(ctx,
			`UPDATE attempts SET answers_json=$1, updated_at=$2
			 WHERE id=$3 AND finished_at IS NULL AND answers_json=$4`,
			string(next), at.Unix(), id, string(prev))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		// Lost to a concurrent answer or a finish; reload and decide again.
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Finish performs the single unfinished->finished transition. won reports
// whether this call made the transition; a loser gets the stored record.
func (s *SQLStore) Finish(ctx context.Context, id string, correctCount, scorePoints int, at time.Time) (Attempt, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET finished_at=$1, updated_at=$1, correct_count=$2, score_points=$3
		 WHERE id=$4 AND finished_at IS NULL`,
		at.Unix(), correctCount, scorePoints, id)
	if err != nil {
		return Attempt{}, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Attempt{}, false, err
	}
	a, err := s.Get(ctx, id)
	if err != nil {
		return Attempt{}, false, err
	}
	return a, n > 0, nil
}

func (s *SQLStore) CountFinished(ctx context.Context, k Key) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts
		 WHERE program_id=$1 AND group_name=$2 AND student_fullname=$3 AND exam_date=$4
		   AND finished_at IS NOT NULL`,
		k.ProgramID, k.GroupName, k.StudentFullname, k.ExamDate)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
