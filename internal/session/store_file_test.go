package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrErgashev/quiz-app/internal/storage"
)

func newStore(t *testing.T) (*FileStore, *storage.Dir) {
	t.Helper()
	dir, err := storage.NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewFileStore(dir), dir
}

func TestCreateGetDelete(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, "acct-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.Token == "" || sess.AccountID != "acct-1" {
		t.Fatalf("session = %+v", sess)
	}
	if got := sess.ExpiresAt.Sub(sess.CreatedAt); got != TTL {
		t.Fatalf("lifetime = %v, want %v", got, TTL)
	}

	got, err := store.Get(ctx, sess.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AccountID != "acct-1" {
		t.Fatalf("got %+v", got)
	}

	if err := store.Delete(ctx, sess.Token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, sess.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err after delete = %v, want ErrNotFound", err)
	}
	// Deleting an unknown token is not an error.
	if err := store.Delete(ctx, "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestGetUnknownToken(t *testing.T) {
	store, _ := newStore(t)
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestExpiredSessionBehavesAsAbsent(t *testing.T) {
	store, dir := newStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	expired := Session{
		Token:     "stale-token",
		AccountID: "acct-1",
		CreatedAt: now.Add(-TTL - time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	if err := dir.Store("sessions", map[string]Session{expired.Token: expired}); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Get(ctx, expired.Token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	// Creating a new session prunes the stale one from the file.
	if _, err := store.Create(ctx, "acct-2"); err != nil {
		t.Fatal(err)
	}
	sessions := map[string]Session{}
	if _, err := dir.Load("sessions", &sessions); err != nil {
		t.Fatal(err)
	}
	if _, ok := sessions[expired.Token]; ok {
		t.Fatal("expired session survived pruning")
	}
}

func TestNewTokenUnique(t *testing.T) {
	a, err := NewToken()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewToken()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 64 || len(b) != 64 {
		t.Fatalf("token lengths %d/%d, want 64 hex chars", len(a), len(b))
	}
	if a == b {
		t.Fatal("tokens collide")
	}
}
