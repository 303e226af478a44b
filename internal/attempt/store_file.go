package attempt

import (
	"context"
	"sync"
	"time"

	"github.com/MrErgashev/quiz-app/internal/storage"
)

// FileStore keeps one JSON document per attempt. A single in-process mutex
// stands in for the SQL store's conditional writes, which is enough for the
// single-node deployments the file driver exists for.
type FileStore struct {
	mu  sync.Mutex
	dir *storage.Dir
}

func NewFileStore(dir *storage.Dir) *FileStore { return &FileStore{dir: dir} }

func attemptKey(id string) string { return "attempts/" + id }

func (s *FileStore) load(id string) (Attempt, error) {
	var a Attempt
	ok, err := s.dir.Load(attemptKey(id), &a)
	if err != nil {
		return Attempt{}, err
	}
	if !ok {
		return Attempt{}, ErrNotFound
	}
	if a.Answers == nil {
		a.Answers = map[int]int{}
	}
	return a, nil
}

func (s *FileStore) all() ([]Attempt, error) {
	keys, err := s.dir.List("attempts")
	if err != nil {
		return nil, err
	}
	out := make([]Attempt, 0, len(keys))
	for _, k := range keys {
		var a Attempt
		ok, err := s.dir.Load(k, &a)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *FileStore) Create(ctx context.Context, a Attempt) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.all()
	if err != nil {
		return Attempt{}, err
	}
	for _, e := range existing {
		if !e.Finished() && e.Key() == a.Key() {
			return e, nil
		}
	}
	if err := s.dir.Store(attemptKey(a.ID), a); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

func (s *FileStore) SaveAnswer(ctx context.Context, id string, questionIndex, chosenOption int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.load(id)
	if err != nil {
		return err
	}
	if a.Finished() {
		return ErrFinished
	}
	a.Answers[questionIndex] = chosenOption
	a.UpdatedAt = at
	return s.dir.Store(attemptKey(id), a)
}

func (s *FileStore) Finish(ctx context.Context, id string, correctCount, scorePoints int, at time.Time) (Attempt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.load(id)
	if err != nil {
		return Attempt{}, false, err
	}
	if a.Finished() {
		return a, false, nil
	}
	t := at
	a.FinishedAt = &t
	a.UpdatedAt = at
	a.CorrectCount = &correctCount
	a.ScorePoints = &scorePoints
	if err := s.dir.Store(attemptKey(id), a); err != nil {
		return Attempt{}, false, err
	}
	return a, true, nil
}

func (s *FileStore) CountFinished(ctx context.Context, k Key) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempts, err := s.all()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, a := range attempts {
		if a.Finished() && a.Key() == k {
			n++
		}
	}
	return n, nil
}
