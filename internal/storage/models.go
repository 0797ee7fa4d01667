package storage

import (
	"errors"
	"sort"
	"time"

	"github.com/shahrs5/supernetwork/internal/profile"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailTaken is returned when signing up with an email that already
// has an account.
var ErrEmailTaken = errors.New("email already registered")

type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Profile is a user's persisted identity: the reviewed profile record
// plus their ikigai quiz answers. Skills, interests, and answers are
// stored as JSON text columns.
type Profile struct {
	UserID    string
	Record    profile.Record
	Quiz      profile.QuizAnswers
	UpdatedAt time.Time
}

type Message struct {
	ID          string    `json:"id"`
	ThreadID    string    `json:"thread_id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// Thread is an inbox entry: one conversation between exactly two users
// with its most recent message.
type Thread struct {
	ID           string  `json:"id"`
	OtherUserID  string  `json:"other_user_id"`
	Latest       Message `json:"latest"`
	MessageCount int     `json:"message_count"`
}

// ThreadID derives the conversation key for a user pair: the two ids
// sorted and joined with an underscore, so both participants compute
// the same key.
func ThreadID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + "_" + ids[1]
}
