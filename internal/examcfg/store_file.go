package examcfg

import (
	"context"
	"sync"

	"github.com/MrErgashev/quiz-app/internal/storage"
)

type FileStore struct {
	mu  sync.RWMutex
	dir *storage.Dir
}

func NewFileStore(dir *storage.Dir) *FileStore { return &FileStore{dir: dir} }

const (
	configKey   = "exam_config"
	settingsKey = "app_settings"
)

type appSettings struct {
	ExamMode bool `json:"exam_mode"`
}

func (s *FileStore) Get(ctx context.Context) (Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := Default()
	if _, err := s.dir.Load(configKey, &c); err != nil {
		return Config{}, err
	}
	if c.BankIDs == nil {
		c.BankIDs = []string{}
	}
	return c, nil
}

func (s *FileStore) Set(ctx context.Context, c Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir.Store(configKey, c)
}

func (s *FileStore) RemoveBankID(ctx context.Context, bankID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := Default()
	if _, err := s.dir.Load(configKey, &c); err != nil {
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
	return s.dir.Store(configKey, c)
}

func (s *FileStore) ExamMode(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var set appSettings
	if _, err := s.dir.Load(settingsKey, &set); err != nil {
		return false, err
	}
	return set.ExamMode, nil
}

func (s *FileStore) SetExamMode(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var set appSettings
	if _, err := s.dir.Load(settingsKey, &set); err != nil {
		return err
	}
	set.ExamMode = enabled
	return s.dir.Store(settingsKey, set)
}
