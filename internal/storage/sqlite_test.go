package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/shahrs5/supernetwork/internal/profile"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsApply(t *testing.T) {
	s := newTestStore(t)

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		t.Fatalf("querying schema_version: %v", err)
	}
	if count == 0 {
		t.Error("expected at least one applied migration")
	}

	// Open is idempotent: reapplying against the same db must not fail.
	if err := s.migrate(); err != nil {
		t.Errorf("second migrate() error = %v", err)
	}
}

func TestCreateUserAndLookup(t *testing.T) {
	s := newTestStore(t)

	u := User{
		ID:           "u1",
		Email:        "amina@example.com",
		PasswordHash: "$2a$10$fakehash",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	got, err := s.GetUserByEmail("amina@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != u.PasswordHash {
		t.Errorf("got user %+v, want %+v", got, u)
	}
	if !got.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, u.CreatedAt)
	}

	byID, err := s.GetUser("u1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if byID.Email != u.Email {
		t.Errorf("GetUser().Email = %q, want %q", byID.Email, u.Email)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)

	u := User{ID: "u1", Email: "dup@example.com", PasswordHash: "h", CreatedAt: time.Now()}
	if err := s.CreateUser(u); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	u.ID = "u2"
	if err := s.CreateUser(u); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email error = %v, want ErrEmailTaken", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetUserByEmail("ghost@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUserByEmail() error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUser("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetUser() error = %v, want ErrNotFound", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	sess := Session{
		Token:     "tok-abc",
		UserID:    "u1",
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
	if err := s.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	got, err := s.GetSession("tok-abc")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", got.UserID)
	}
	if !got.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, sess.ExpiresAt)
	}

	if err := s.DeleteSession("tok-abc"); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := s.GetSession("tok-abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession() after delete error = %v, want ErrNotFound", err)
	}
}

func TestUpsertProfileRoundTrip(t *testing.T) {
	s := newTestStore(t)

	p := Profile{
		UserID: "u1",
		Record: profile.Record{
			Name:              "Amina Osei",
			Headline:          "Backend Engineer",
			Skills:            []string{"Go", "SQL"},
			ExperienceSummary: "Five years building services.",
			Interests:         []string{"distributed systems"},
			LinkedInLink:      "https://linkedin.com/in/aminaosei",
		},
		Quiz:      profile.QuizAnswers{"working_style": "deep focus", "goal": "find a cofounder"},
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.UpsertProfile(p); err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}

	got, err := s.GetProfile("u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.Record.Name != p.Record.Name || got.Record.LinkedInLink != p.Record.LinkedInLink {
		t.Errorf("got record %+v, want %+v", got.Record, p.Record)
	}
	if len(got.Record.Skills) != 2 || got.Record.Skills[0] != "Go" {
		t.Errorf("Skills = %v, want %v", got.Record.Skills, p.Record.Skills)
	}
	if got.Quiz["working_style"] != "deep focus" {
		t.Errorf("Quiz = %v, want %v", got.Quiz, p.Quiz)
	}
}

func TestUpsertProfileReplacesExisting(t *testing.T) {
	s := newTestStore(t)

	p := Profile{
		UserID:    "u1",
		Record:    profile.Record{Name: "First", Skills: []string{"Go"}},
		UpdatedAt: time.Now(),
	}
	if err := s.UpsertProfile(p); err != nil {
		t.Fatalf("first UpsertProfile() error = %v", err)
	}

	p.Record.Name = "Second"
	p.Record.Skills = []string{"Go", "Rust"}
	if err := s.UpsertProfile(p); err != nil {
		t.Fatalf("second UpsertProfile() error = %v", err)
	}

	got, err := s.GetProfile("u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.Record.Name != "Second" || len(got.Record.Skills) != 2 {
		t.Errorf("profile not replaced: %+v", got.Record)
	}
}

func TestUpsertProfileNilSlices(t *testing.T) {
	s := newTestStore(t)

	p := Profile{UserID: "u1", Record: profile.Record{Name: "Nil"}, UpdatedAt: time.Now()}
	if err := s.UpsertProfile(p); err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}

	got, err := s.GetProfile("u1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.Record.Skills == nil || got.Record.Interests == nil || got.Quiz == nil {
		t.Errorf("expected non-nil collections, got skills=%v interests=%v quiz=%v",
			got.Record.Skills, got.Record.Interests, got.Quiz)
	}
}

func TestListProfilesExcept(t *testing.T) {
	s := newTestStore(t)

	for _, id := range []string{"u1", "u2", "u3"} {
		p := Profile{
			UserID:    id,
			Record:    profile.Record{Name: "User " + id},
			UpdatedAt: time.Now(),
		}
		if err := s.UpsertProfile(p); err != nil {
			t.Fatalf("UpsertProfile(%s) error = %v", id, err)
		}
	}

	got, err := s.ListProfilesExcept("u2")
	if err != nil {
		t.Fatalf("ListProfilesExcept() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d profiles, want 2", len(got))
	}
	for _, p := range got {
		if p.UserID == "u2" {
			t.Error("ListProfilesExcept returned the excluded user")
		}
	}
}

func TestThreadID(t *testing.T) {
	if got := ThreadID("b", "a"); got != "a_b" {
		t.Errorf("ThreadID(b, a) = %q, want a_b", got)
	}
	if ThreadID("u1", "u2") != ThreadID("u2", "u1") {
		t.Error("thread key must not depend on argument order")
	}
}

func TestMessagesAndThreads(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	send := func(id, from, to, body string, at time.Time) {
		t.Helper()
		m := Message{
			ID: id, ThreadID: ThreadID(from, to),
			SenderID: from, RecipientID: to,
			Body: body, CreatedAt: at,
		}
		if err := s.SaveMessage(m); err != nil {
			t.Fatalf("SaveMessage(%s) error = %v", id, err)
		}
	}

	send("m1", "u1", "u2", "hey", base)
	send("m2", "u2", "u1", "hi back", base.Add(time.Minute))
	send("m3", "u1", "u3", "intro", base.Add(2*time.Minute))

	msgs, err := s.ListMessagesByThread(ThreadID("u1", "u2"), 50)
	if err != nil {
		t.Fatalf("ListMessagesByThread() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[1].ID != "m2" {
		t.Errorf("messages out of order: %s, %s", msgs[0].ID, msgs[1].ID)
	}

	threads, err := s.ListThreadsForUser("u1")
	if err != nil {
		t.Fatalf("ListThreadsForUser() error = %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(threads))
	}
	// Most recent activity first.
	if threads[0].OtherUserID != "u3" {
		t.Errorf("threads[0].OtherUserID = %q, want u3", threads[0].OtherUserID)
	}
	if threads[1].OtherUserID != "u2" {
		t.Errorf("threads[1].OtherUserID = %q, want u2", threads[1].OtherUserID)
	}
	if threads[1].MessageCount != 2 {
		t.Errorf("threads[1].MessageCount = %d, want 2", threads[1].MessageCount)
	}
	if threads[1].Latest.ID != "m2" {
		t.Errorf("threads[1].Latest.ID = %q, want m2", threads[1].Latest.ID)
	}
}

func TestListMessagesLimit(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		m := Message{
			ID: string(rune('a' + i)), ThreadID: ThreadID("u1", "u2"),
			SenderID: "u1", RecipientID: "u2",
			Body: "msg", CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.SaveMessage(m); err != nil {
			t.Fatalf("SaveMessage() error = %v", err)
		}
	}

	msgs, err := s.ListMessagesByThread(ThreadID("u1", "u2"), 3)
	if err != nil {
		t.Fatalf("ListMessagesByThread() error = %v", err)
	}
	if len(msgs) != 3 {
		t.Errorf("got %d messages, want 3", len(msgs))
	}
}
