package account

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrErgashev/quiz-app/internal/db"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "accounts.db") +
		"?cache=shared&mode=rwc&_pragma=busy_timeout(10000)"
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return NewSQLStore(dbh)
}

func TestSQLStoreRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	acct := Account{
		ID:           "id-1",
		Login:        "IQT-101-001",
		PasswordHash: "hash-1",
		FullName:     "Aliyev Ali",
		University:   "Oriental Universiteti",
		Program:      "Iqtisodiyot",
		ProgramID:    "iqt",
		GroupName:    "IQT-101",
		ExamDate:     "2026-06-15",
		Active:       true,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Upsert(ctx, acct); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := store.GetByLogin(ctx, "IQT-101-001")
	if err != nil {
		t.Fatalf("get by login: %v", err)
	}
	// Every column must survive the trip; the login/me responses are built
	// straight from this record.
	if got != acct {
		t.Fatalf("got %+v, want %+v", got, acct)
	}
	if got.Meta().University != "Oriental Universiteti" {
		t.Fatalf("meta university = %q", got.Meta().University)
	}

	got, err = store.GetByID(ctx, "id-1")
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.University != acct.University {
		t.Fatalf("university by id = %q", got.University)
	}

	got, err = store.FindByStudent(ctx, "IQT-101", "Aliyev Ali", "2026-06-15")
	if err != nil {
		t.Fatalf("find by student: %v", err)
	}
	if got.Login != acct.Login {
		t.Fatalf("found %+v", got)
	}

	list, err := store.List(ctx, Filter{GroupName: "IQT-101"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0] != acct {
		t.Fatalf("list = %+v", list)
	}

	if _, err := store.GetByLogin(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSQLStoreUpsertReplacesByLogin(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	first := Account{
		ID: "id-1", Login: "IQT-101-001", PasswordHash: "hash-1",
		FullName: "Aliyev Ali", University: "Oriental Universiteti",
		Program: "Iqtisodiyot", ProgramID: "iqt",
		GroupName: "IQT-101", ExamDate: "2026-06-15",
		Active: true, CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Upsert(ctx, first); err != nil {
		t.Fatal(err)
	}

	second := first
	second.ID = "id-2"
	second.PasswordHash = "hash-2"
	second.University = "Renamed Universiteti"
	if err := store.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := store.GetByLogin(ctx, "IQT-101-001")
	if err != nil {
		t.Fatal(err)
	}
	if got.PasswordHash != "hash-2" || got.University != "Renamed Universiteti" {
		t.Fatalf("upsert did not replace: %+v", got)
	}
	// The conflict target is login; the original row id stays.
	if got.ID != "id-1" {
		t.Fatalf("id = %q, want id-1", got.ID)
	}
}
