// Package auth implements account registration and opaque session
// tokens backed by the storage layer.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/shahrs5/supernetwork/internal/storage"
)

const (
	sessionTTL       = 30 * 24 * time.Hour
	tokenBytes       = 32
	minPasswordChars = 8
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordChars)
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrSessionExpired     = errors.New("session expired")
)

// Store is the subset of the storage layer the service needs.
type Store interface {
	CreateUser(storage.User) error
	GetUserByEmail(email string) (storage.User, error)
	CreateSession(storage.Session) error
	GetSession(token string) (storage.Session, error)
	DeleteSession(token string) error
}

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// SignUp registers a new account and returns the user with a fresh
// session token.
func (s *Service) SignUp(email, password string) (storage.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") || len(email) < 3 {
		return storage.User{}, "", ErrInvalidEmail
	}
	if len(password) < minPasswordChars {
		return storage.User{}, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return storage.User{}, "", fmt.Errorf("hashing password: %w", err)
	}

	u := storage.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.CreateUser(u); err != nil {
		return storage.User{}, "", err
	}

	token, err := s.issueSession(u.ID)
	if err != nil {
		return storage.User{}, "", err
	}
	return u, token, nil
}

// LogIn verifies credentials and returns the user with a fresh session
// token. A missing account and a wrong password produce the same error
// so callers can't probe for registered emails.
func (s *Service) LogIn(email, password string) (storage.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.store.GetUserByEmail(email)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return storage.User{}, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return storage.User{}, "", ErrInvalidCredentials
	}

	token, err := s.issueSession(u.ID)
	if err != nil {
		return storage.User{}, "", err
	}
	return u, token, nil
}

// LogOut invalidates the session token. Unknown tokens are a no-op.
func (s *Service) LogOut(token string) error {
	return s.store.DeleteSession(token)
}

// Authenticate resolves a session token to the owning user id.
func (s *Service) Authenticate(token string) (string, error) {
	sess, err := s.store.GetSession(token)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if s.now().After(sess.ExpiresAt) {
		// Best effort cleanup of the stale row.
		_ = s.store.DeleteSession(token)
		return "", ErrSessionExpired
	}
	return sess.UserID, nil
}

func (s *Service) issueSession(userID string) (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	token := hex.EncodeToString(buf)

	now := s.now().UTC()
	sess := storage.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(sessionTTL),
	}
	if err := s.store.CreateSession(sess); err != nil {
		return "", err
	}
	return token, nil
}
