package account

import (
	"context"
	"sort"
	"sync"

	"github.com/MrErgashev/quiz-app/internal/storage"
)

type FileStore struct {
	mu  sync.RWMutex
	dir *storage.Dir
}

func NewFileStore(dir *storage.Dir) *FileStore { return &FileStore{dir: dir} }

const accountsKey = "accounts"

func (s *FileStore) load() ([]Account, error) {
	var accounts []Account
	if _, err := s.dir.Load(accountsKey, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *FileStore) Upsert(ctx context.Context, a Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts, err := s.load()
	if err != nil {
		return err
	}
	replaced := false
	for i := range accounts {
		if accounts[i].Login == a.Login {
			a.CreatedAt = accounts[i].CreatedAt
			a.ID = accounts[i].ID
			accounts[i] = a
			replaced = true
			break
		}
	}
	if !replaced {
		accounts = append(accounts, a)
	}
	return s.dir.Store(accountsKey, accounts)
}

func (s *FileStore) find(match func(Account) bool) (Account, error) {
	accounts, err := s.load()
	if err != nil {
		return Account{}, err
	}
	for _, a := range accounts {
		if match(a) {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

func (s *FileStore) GetByLogin(ctx context.Context, login string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(func(a Account) bool { return a.Login == login })
}

func (s *FileStore) GetByID(ctx context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(func(a Account) bool { return a.ID == id })
}

func (s *FileStore) FindByStudent(ctx context.Context, groupName, fullName, examDate string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.find(func(a Account) bool {
		return a.GroupName == groupName && a.FullName == fullName && a.ExamDate == examDate
	})
}

func (s *FileStore) List(ctx context.Context, f Filter) ([]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts, err := s.load()
	if err != nil {
		return nil, err
	}
	out := []Account{}
	for _, a := range accounts {
		if f.GroupName != "" && a.GroupName != f.GroupName {
			continue
		}
		if f.ExamDate != "" && a.ExamDate != f.ExamDate {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Login < out[j].Login })
	return out, nil
}
