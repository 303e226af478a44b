package bank

import (
	"context"
	"sort"
	"sync"

	"github.com/MrErgashev/quiz-app/internal/storage"
)

// FileStore keeps all banks in a single JSON document, mirroring the layout
// the platform used before it grew a relational backend.
type FileStore struct {
	mu  sync.RWMutex
	dir *storage.Dir
}

func NewFileStore(dir *storage.Dir) *FileStore { return &FileStore{dir: dir} }

const banksKey = "banks"

func (s *FileStore) load() ([]Bank, error) {
	var banks []Bank
	if _, err := s.dir.Load(banksKey, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

func (s *FileStore) Put(ctx context.Context, b Bank) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	banks, err := s.load()
	if err != nil {
		return err
	}
	banks = append(banks, b)
	return s.dir.Store(banksKey, banks)
}

func (s *FileStore) Get(ctx context.Context, id string) (Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	banks, err := s.load()
	if err != nil {
		return Bank{}, err
	}
	for _, b := range banks {
		if b.ID == id {
			return b, nil
		}
	}
	return Bank{}, ErrNotFound
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	banks, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(banks))
	for _, b := range banks {
		out = append(out, Summary{
			ID:             b.ID,
			SubjectName:    b.SubjectName,
			QuestionsCount: len(b.Questions),
			CreatedAt:      b.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	banks, err := s.load()
	if err != nil {
		return err
	}
	next := banks[:0]
	for _, b := range banks {
		if b.ID != id {
			next = append(next, b)
		}
	}
	if len(next) == len(banks) {
		return ErrNotFound
	}
	return s.dir.Store(banksKey, next)
}
