package session

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Create(ctx context.Context, accountID string) (Session, error) {
	tok, err := NewToken()
	if err != nil {
		return Session{}, err
	}
	now := time.Now().UTC()
	sess := Session{Token: tok, AccountID: accountID, CreatedAt: now, ExpiresAt: now.Add(TTL)}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, account_id, created_at, expires_at) VALUES ($1,$2,$3,$4)`,
		sess.Token, sess.AccountID, sess.CreatedAt.Unix(), sess.ExpiresAt.Unix())
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *SQLStore) Get(ctx context.Context, token string) (Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT token, account_id, created_at, expires_at FROM sessions WHERE token=$1`, token)
	var sess Session
	var created, expires int64
	if err := row.Scan(&sess.Token, &sess.AccountID, &created, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	sess.CreatedAt = time.Unix(created, 0).UTC()
	sess.ExpiresAt = time.Unix(expires, 0).UTC()
	if sess.Expired(time.Now()) {
		// lazy cleanup; failure just leaves a dead row behind
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token=$1`, token)
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *SQLStore) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token=$1`, token)
	return err
}
