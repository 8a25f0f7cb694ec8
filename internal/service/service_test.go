package service

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/crypto/bcrypt"

	"bookshelf/internal/domain"
	"bookshelf/internal/repository"
	"bookshelf/internal/repository/sqlite"
)

type testRepos struct {
	users repository.UserRepository
	books repository.BookRepository
	views repository.AdViewRepository
}

func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	r := testRepos{
		users: sqlite.NewUserRepository(db),
		books: sqlite.NewBookRepository(db),
		views: sqlite.NewAdViewRepository(db),
	}
	if err := sqlite.InitAll(context.Background(), r.users, r.books, r.views); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	return r
}

func newTestUserService(t *testing.T, users repository.UserRepository, now time.Time) *userService {
	t.Helper()
	svc := NewUserService(users).(*userService)
	svc.cost = bcrypt.MinCost
	svc.now = func() time.Time { return now }
	return svc
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	svc := newTestUserService(t, repos.users, time.Now())

	if _, err := svc.Register(ctx, SignupInput{Username: "bob", Email: "bob@x.com", Password: "pw1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	testCases := []struct {
		name string
		in   SignupInput
	}{
		{name: "username", in: SignupInput{Username: "bob", Email: "new@x.com", Password: "pw"}},
		{name: "email", in: SignupInput{Username: "bobby", Email: "bob@x.com", Password: "pw"}},
		{name: "both", in: SignupInput{Username: "bob", Email: "bob@x.com", Password: "pw"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.in); !errors.Is(err, ErrUserAlreadyExists) {
				t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
			}
		})
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 1 || users[0].Email != "bob@x.com" {
		t.Fatalf("identity store mutated: %+v", users)
	}
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(t, newTestRepos(t).users, time.Now())

	for _, in := range []SignupInput{
		{Email: "a@x.com", Password: "pw"},
		{Username: "a", Password: "pw"},
		{Username: "a", Email: "a@x.com"},
		{Username: "   ", Email: "a@x.com", Password: "pw"},
		{Username: "a", Email: "a@x.com", Password: strings.Repeat("p", 80)},
	} {
		if _, err := svc.Register(ctx, in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("Register(%+v): expected ErrInvalidInput, got %v", in, err)
		}
	}
}

func TestRegisterStoresHashAndRole(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	svc := newTestUserService(t, repos.users, time.Now())

	user, err := svc.Register(ctx, SignupInput{Username: "admin", Email: "a@x.com", Password: "secret", Picture: "me.png"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatalf("password hash leaked from service")
	}
	if user.IsAdmin() {
		t.Fatalf("signup must never grant admin, even for username %q", user.Username)
	}

	stored, err := repos.users.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.PasswordHash == "secret" || bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret")) != nil {
		t.Fatalf("password not stored as bcrypt hash")
	}
	if stored.Picture != "me.png" {
		t.Fatalf("picture = %q", stored.Picture)
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos(t)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := newTestUserService(t, repos.users, now)

	if _, err := svc.Register(ctx, SignupInput{Username: "bob", Email: "bob@x.com", Password: "pw1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "ghost", "pw1"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "bob", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users[0].Logins) != 0 {
		t.Fatalf("failed login appended history: %v", users[0].Logins)
	}

	user, err := svc.Authenticate(ctx, "bob", "pw1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Username != "bob" || user.PasswordHash != "" {
		t.Fatalf("unexpected user %+v", user)
	}

	users, err = svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]time.Time{now}, users[0].Logins); diff != "" {
		t.Fatalf("logins mismatch (-want +got):\n%s", diff)
	}
}

func TestProfileAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(t, newTestRepos(t).users, time.Now())

	if _, err := svc.Register(ctx, SignupInput{Username: "carol", Email: "c@x.com", Password: "pw", Picture: "c.png"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	profile, err := svc.Profile(ctx, "carol")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Email != "c@x.com" || profile.Picture != "c.png" || profile.PasswordHash != "" {
		t.Fatalf("unexpected profile %+v", profile)
	}

	deleted, err := svc.DeleteUser(ctx, "carol")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted == nil || deleted.Picture != "c.png" {
		t.Fatalf("unexpected deleted user %+v", deleted)
	}

	if _, err := svc.Profile(ctx, "carol"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound after delete, got %v", err)
	}

	deleted, err = svc.DeleteUser(ctx, "carol")
	if err != nil || deleted != nil {
		t.Fatalf("deleting a missing user must be a silent no-op, got %+v %v", deleted, err)
	}
}

func TestCreateAdminAndIsAdmin(t *testing.T) {
	ctx := context.Background()
	svc := newTestUserService(t, newTestRepos(t).users, time.Now())

	if ok, err := svc.IsAdmin(ctx, "nobody"); err != nil || ok {
		t.Fatalf("IsAdmin(nobody) = %v, %v", ok, err)
	}

	admin, err := svc.CreateAdmin(ctx, "librarian", "lib@x.com", "pw")
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if !admin.IsAdmin() {
		t.Fatalf("expected admin role")
	}
	if _, err := svc.Authenticate(ctx, "librarian", "pw"); err != nil {
		t.Fatalf("admin cannot log in: %v", err)
	}

	if _, err := svc.Register(ctx, SignupInput{Username: "dave", Email: "d@x.com", Password: "pw"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if ok, _ := svc.IsAdmin(ctx, "dave"); ok {
		t.Fatalf("regular user reported as admin")
	}
	if _, err := svc.CreateAdmin(ctx, "dave", "", ""); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if ok, err := svc.IsAdmin(ctx, "dave"); err != nil || !ok {
		t.Fatalf("IsAdmin(dave) after promote = %v, %v", ok, err)
	}
}

func TestBookService(t *testing.T) {
	ctx := context.Background()
	svc := NewBookService(newTestRepos(t).books)

	book, err := svc.AddBook(ctx, "Dune", "Herbert", "dune.epub", "dune.jpg")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AddBook(ctx, "Dune", "Herbert", "", ""); err != nil {
		t.Fatalf("duplicate add: %v", err)
	}

	books, err := svc.ListBooks(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}

	got, err := svc.ResolveBookFile(ctx, "dune.epub")
	if err != nil || got.ID != book.ID {
		t.Fatalf("resolve file: %+v %v", got, err)
	}
	got, err = svc.ResolveCover(ctx, "dune.jpg")
	if err != nil || got.ID != book.ID {
		t.Fatalf("resolve cover: %+v %v", got, err)
	}

	for _, name := range []string{"", "dune.jpg", "../../server.js"} {
		if _, err := svc.ResolveBookFile(ctx, name); !errors.Is(err, ErrBookNotFound) {
			t.Fatalf("ResolveBookFile(%q): expected ErrBookNotFound, got %v", name, err)
		}
	}
}

func TestAnalyticsExportCSV(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	svc := NewAnalyticsService(newTestRepos(t).views).(*analyticsService)
	svc.now = func() time.Time { return ts }

	if _, err := svc.RecordView(ctx, "alice", "Dune"); err != nil {
		t.Fatalf("record: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	want := "username,book,timestamp\nalice,Dune,2024-06-01T08:00:00Z\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyticsExportCSVEscapes(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	svc := NewAnalyticsService(newTestRepos(t).views).(*analyticsService)
	svc.now = func() time.Time { return ts }

	if _, err := svc.RecordView(ctx, "smith, j", `The "Best" Book`); err != nil {
		t.Fatalf("record: %v", err)
	}

	var buf bytes.Buffer
	if err := svc.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	want := "username,book,timestamp\n\"smith, j\",\"The \"\"Best\"\" Book\",2024-06-01T08:00:00Z\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("csv mismatch (-want +got):\n%s", diff)
	}

	views, err := svc.ListViews(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	wantViews := []domain.AdView{{ID: views[0].ID, Username: "smith, j", Book: `The "Best" Book`, Timestamp: ts}}
	if diff := cmp.Diff(wantViews, views); diff != "" {
		t.Fatalf("views mismatch (-want +got):\n%s", diff)
	}
}
