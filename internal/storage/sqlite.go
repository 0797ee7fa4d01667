package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shahrs5/supernetwork/internal/profile"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database with methods for users, sessions,
// profiles, and messages.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database
// (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "supernet.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that
// haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// --- Users ---

func (s *Store) CreateUser(u User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrEmailTaken
	}
	return err
}

func (s *Store) GetUserByEmail(email string) (User, error) {
	var u User
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, parseTime(createdAt, &u.CreatedAt)
}

func (s *Store) GetUser(id string) (User, error) {
	var u User
	var createdAt string
	err := s.db.QueryRow(`
		SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, parseTime(createdAt, &u.CreatedAt)
}

// --- Sessions ---

func (s *Store) CreateSession(sess Session) error {
	_, err := s.db.Exec(`
		INSERT INTO sessions (token, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)`,
		sess.Token, sess.UserID,
		sess.CreatedAt.UTC().Format(time.RFC3339),
		sess.ExpiresAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetSession(token string) (Session, error) {
	var sess Session
	var createdAt, expiresAt string
	err := s.db.QueryRow(`
		SELECT token, user_id, created_at, expires_at FROM sessions WHERE token = ?`, token,
	).Scan(&sess.Token, &sess.UserID, &createdAt, &expiresAt)
	if err == sql.ErrNoRows {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, err
	}
	if err := parseTime(createdAt, &sess.CreatedAt); err != nil {
		return Session{}, err
	}
	return sess, parseTime(expiresAt, &sess.ExpiresAt)
}

func (s *Store) DeleteSession(token string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// --- Profiles ---

func (s *Store) UpsertProfile(p Profile) error {
	skills, err := json.Marshal(emptyIfNil(p.Record.Skills))
	if err != nil {
		return fmt.Errorf("marshalling skills: %w", err)
	}
	interests, err := json.Marshal(emptyIfNil(p.Record.Interests))
	if err != nil {
		return fmt.Errorf("marshalling interests: %w", err)
	}
	quiz := p.Quiz
	if quiz == nil {
		quiz = profile.QuizAnswers{}
	}
	answers, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshalling quiz answers: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO profiles (user_id, name, headline, skills, experience_summary, interests, linkedin_link, quiz_answers, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			name = excluded.name,
			headline = excluded.headline,
			skills = excluded.skills,
			experience_summary = excluded.experience_summary,
			interests = excluded.interests,
			linkedin_link = excluded.linkedin_link,
			quiz_answers = excluded.quiz_answers,
			updated_at = excluded.updated_at`,
		p.UserID, p.Record.Name, p.Record.Headline, string(skills),
		p.Record.ExperienceSummary, string(interests), p.Record.LinkedInLink,
		string(answers), p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetProfile(userID string) (Profile, error) {
	row := s.db.QueryRow(`
		SELECT user_id, name, headline, skills, experience_summary, interests, linkedin_link, quiz_answers, updated_at
		FROM profiles WHERE user_id = ?`, userID)
	p, err := scanProfile(row.Scan)
	if err == sql.ErrNoRows {
		return Profile{}, ErrNotFound
	}
	return p, err
}

// ListProfilesExcept returns every persisted profile other than the
// given user's, in insertion order. These are the match candidates.
func (s *Store) ListProfilesExcept(userID string) ([]Profile, error) {
	rows, err := s.db.Query(`
		SELECT user_id, name, headline, skills, experience_summary, interests, linkedin_link, quiz_answers, updated_at
		FROM profiles WHERE user_id != ? ORDER BY rowid ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Profile
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func scanProfile(scan func(...any) error) (Profile, error) {
	var p Profile
	var skills, interests, answers, updatedAt string
	err := scan(&p.UserID, &p.Record.Name, &p.Record.Headline, &skills,
		&p.Record.ExperienceSummary, &interests, &p.Record.LinkedInLink,
		&answers, &updatedAt)
	if err != nil {
		return Profile{}, err
	}
	if err := json.Unmarshal([]byte(skills), &p.Record.Skills); err != nil {
		return Profile{}, fmt.Errorf("parsing skills: %w", err)
	}
	if err := json.Unmarshal([]byte(interests), &p.Record.Interests); err != nil {
		return Profile{}, fmt.Errorf("parsing interests: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &p.Quiz); err != nil {
		return Profile{}, fmt.Errorf("parsing quiz answers: %w", err)
	}
	p.Record.Normalize()
	return p, parseTime(updatedAt, &p.UpdatedAt)
}

// --- Messages ---

func (s *Store) SaveMessage(m Message) error {
	_, err := s.db.Exec(`
		INSERT INTO messages (id, thread_id, sender_id, recipient_id, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.ThreadID, m.SenderID, m.RecipientID, m.Body,
		m.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// ListMessagesByThread returns a thread's messages oldest first.
func (s *Store) ListMessagesByThread(threadID string, limit int) ([]Message, error) {
	rows, err := s.db.Query(`
		SELECT id, thread_id, sender_id, recipient_id, body, created_at
		FROM messages WHERE thread_id = ? ORDER BY created_at ASC, rowid ASC LIMIT ?`,
		threadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ListThreadsForUser groups the user's messages by thread, newest
// activity first, with the latest message attached to each entry.
func (s *Store) ListThreadsForUser(userID string) ([]Thread, error) {
	rows, err := s.db.Query(`
		SELECT id, thread_id, sender_id, recipient_id, body, created_at
		FROM messages WHERE sender_id = ? OR recipient_id = ?
		ORDER BY created_at DESC, rowid DESC`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	byThread := make(map[string]*Thread)
	var order []string
	for _, m := range msgs {
		t, ok := byThread[m.ThreadID]
		if !ok {
			other := m.RecipientID
			if other == userID {
				other = m.SenderID
			}
			t = &Thread{ID: m.ThreadID, OtherUserID: other, Latest: m}
			byThread[m.ThreadID] = t
			order = append(order, m.ThreadID)
		}
		t.MessageCount++
	}

	threads := make([]Thread, 0, len(order))
	for _, id := range order {
		threads = append(threads, *byThread[id])
	}
	return threads, nil
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var results []Message
	for rows.Next() {
		var m Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.RecipientID, &m.Body, &createdAt); err != nil {
			return nil, err
		}
		if err := parseTime(createdAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

func parseTime(s string, dst *time.Time) error {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("parsing stored timestamp: %w", err)
	}
	*dst = t
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
