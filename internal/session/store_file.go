package session

import (
	"context"
	"sync"
	"time"

	"github.com/MrErgashev/quiz-app/internal/storage"
)

type FileStore struct {
	mu  sync.Mutex
	dir *storage.Dir
}

func NewFileStore(dir *storage.Dir) *FileStore { return &FileStore{dir: dir} }

const sessionsKey = "sessions"

func (s *FileStore) load() (map[string]Session, error) {
	sessions := map[string]Session{}
	if _, err := s.dir.Load(sessionsKey, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (s *FileStore) Create(ctx context.Context, accountID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, err := s.load()
	if err != nil {
		return Session{}, err
	}
	tok, err := NewToken()
	if err != nil {
		return Session{}, err
	}
	now := time.Now().UTC()
	sess := Session{Token: tok, AccountID: accountID, CreatedAt: now, ExpiresAt: now.Add(TTL)}
	// drop expired sessions while we hold the file anyway
	for k, v := range sessions {
		if v.Expired(now) {
			delete(sessions, k)
		}
	}
	sessions[tok] = sess
	if err := s.dir.Store(sessionsKey, sessions); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *FileStore) Get(ctx context.Context, token string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, err := s.load()
	if err != nil {
		return Session{}, err
	}
	sess, ok := sessions[token]
	if !ok || sess.Expired(time.Now()) {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *FileStore) Delete(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sessions, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := sessions[token]; !ok {
		return nil
	}
	delete(sessions, token)
	return s.dir.Store(sessionsKey, sessions)
}
