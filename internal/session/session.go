package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found or expired")

// TTL is the fixed session lifetime.
const TTL = 6 * time.Hour

const CookieName = "exam_session"

type Session struct {
	Token     string    `json:"token"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }

type Store interface {
	Create(ctx context.Context, accountID string) (Session, error)
	// Get returns the session for token; expired sessions behave as absent.
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}

// NewToken returns a 256-bit random bearer token.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
