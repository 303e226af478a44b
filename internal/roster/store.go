package roster

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/MrErgashev/quiz-app/internal/storage"
)

type Store interface {
	Get(ctx context.Context) (Roster, error)
	Set(ctx context.Context, r Roster) error
}

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context) (Roster, error) {
	row := s.db.QueryRowContext(ctx, `SELECT roster_json FROM roster WHERE id=1`)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Roster{Programs: []Program{}}, nil
		}
		return Roster{}, err
	}
	var r Roster
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Roster{}, err
	}
	if r.Programs == nil {
		r.Programs = []Program{}
	}
	return r, nil
}

func (s *SQLStore) Set(ctx context.Context, r Roster) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO roster (id, roster_json, updated_at) VALUES (1,$1,$2)
		 ON CONFLICT (id) DO UPDATE SET roster_json=EXCLUDED.roster_json, updated_at=EXCLUDED.updated_at`,
		string(raw), time.Now().Unix())
	return err
}

type FileStore struct {
	mu  sync.RWMutex
	dir *storage.Dir
}

func NewFileStore(dir *storage.Dir) *FileStore { return &FileStore{dir: dir} }

const rosterKey = "roster"

func (s *FileStore) Get(ctx context.Context) (Roster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := Roster{Programs: []Program{}}
	if _, err := s.dir.Load(rosterKey, &r); err != nil {
		return Roster{}, err
	}
	if r.Programs == nil {
		r.Programs = []Program{}
	}
	return r, nil
}

func (s *FileStore) Set(ctx context.Context, r Roster) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.Store(rosterKey, r)
}
