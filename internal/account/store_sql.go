package account

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Filter struct {
	GroupName string
	ExamDate  string
}

type Store interface {
	Upsert(ctx context.Context, a Account) error
	GetByLogin(ctx context.Context, login string) (Account, error)
	GetByID(ctx context.Context, id string) (Account, error)
	// FindByStudent matches the roster identity an account was minted for.
	FindByStudent(ctx context.Context, groupName, fullName, examDate string) (Account, error)
	List(ctx context.Context, f Filter) ([]Account, error)
}

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

const accountCols = `id, login, password_hash, full_name, university, program, program_id, group_name, exam_date, active, created_at`

func (s *SQLStore) Upsert(ctx context.Context, a Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (`+accountCols+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT (login) DO UPDATE SET
		   password_hash=EXCLUDED.password_hash,
		   full_name=EXCLUDED.full_name,
		   university=EXCLUDED.university,
		   program=EXCLUDED.program,
		   program_id=EXCLUDED.program_id,
		   group_name=EXCLUDED.group_name,
		   exam_date=EXCLUDED.exam_date,
		   active=EXCLUDED.active`,
		a.ID, a.Login, a.PasswordHash, a.FullName, a.University, a.Program, a.ProgramID,
		a.GroupName, a.ExamDate, a.Active, a.CreatedAt.Unix())
	return err
}

func (s *SQLStore) scanOne(row *sql.Row) (Account, error) {
	var a Account
	var created int64
	err := row.Scan(&a.ID, &a.Login, &a.PasswordHash, &a.FullName, &a.University, &a.Program,
		&a.ProgramID, &a.GroupName, &a.ExamDate, &a.Active, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	a.CreatedAt = time.Unix(created, 0).UTC()
	return a, nil
}

func (s *SQLStore) GetByLogin(ctx context.Context, login string) (Account, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE login=$1`, login))
}

func (s *SQLStore) GetByID(ctx context.Context, id string) (Account, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE id=$1`, id))
}

func (s *SQLStore) FindByStudent(ctx context.Context, groupName, fullName, examDate string) (Account, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts
		 WHERE group_name=$1 AND full_name=$2 AND exam_date=$3`,
		groupName, fullName, examDate))
}

func (s *SQLStore) List(ctx context.Context, f Filter) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountCols+` FROM accounts
		 WHERE ($1 = '' OR group_name=$1) AND ($2 = '' OR exam_date=$2)
		 ORDER BY login`, f.GroupName, f.ExamDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Account{}
	for rows.Next() {
		var a Account
		var created int64
		if err := rows.Scan(&a.ID, &a.Login, &a.PasswordHash, &a.FullName, &a.University, &a.Program,
			&a.ProgramID, &a.GroupName, &a.ExamDate, &a.Active, &created); err != nil {
			return nil, err
		}
		a.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
