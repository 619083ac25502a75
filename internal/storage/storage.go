package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// Roles a user account can hold. The chat subsystem only distinguishes
// coaches from their assigned clients.
const (
	RoleCoach  = "coach"
	RoleClient = "client"
)

// User represents a persisted account record. CoachID is set on clients and
// names the coach they are assigned to; it is empty for coaches.
type User struct {
	ID        string
	Username  string
	Password  string
	Role      string
	CoachID   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one persisted chat message. Records are append-only: nothing in
// the service mutates or deletes them once written.
type Message struct {
	ID        uint
	Sender    string
	Receiver  string
	Content   string
	CreatedAt time.Time
}

// Store defines persistence operations used by the server.
type Store interface {
	Close() error
	Migrate(ctx context.Context) error

	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	ListClientsOfCoach(ctx context.Context, coachID string) ([]User, error)

	// Assigned reports whether the two identities form a coach/client pair,
	// in either order.
	Assigned(ctx context.Context, a, b string) (bool, error)

	// SaveMessage appends a message. The store assigns ID and CreatedAt.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessagesBetween returns both directions of the conversation between
	// a and b, sorted by creation time ascending. A non-positive limit means
	// no limit.
	ListMessagesBetween(ctx context.Context, a, b string, limit int) ([]Message, error)
}
