package authcore

import (
	"context"
	"time"

	"github.com/quizcraft/authcore/token"
)

// User is the identity record owned by the user store. It is created on
// registration, mutated by login/verification/password-change flows, and
// never hard-deleted by this engine; deactivation is a flag.
type User struct {
	ID             string
	Email          string
	Nickname       string
	PasswordHash   string
	Roles          []string
	EmailVerified  bool
	MFAEnabled     bool
	MFASecret      string
	Deactivated    bool
	CreatedAt      time.Time
	LastLoginAt    time.Time
	LastActivityAt time.Time
}

// Sanitize returns a copy safe to hand back to callers: the password hash
// and MFA secret are stripped.
func (u *User) Sanitize() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.PasswordHash = ""
	out.MFASecret = ""
	out.Roles = append([]string(nil), u.Roles...)
	return &out
}

// UserStore is the durable identity store contract. Create must return
// ErrEmailTaken on a normalized-email collision; the Find methods must
// return ErrUserNotFound when no row matches.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	SetEmailVerified(ctx context.Context, id string) error
	UpdateLoginInfo(ctx context.Context, id string, at time.Time) error
}

// Template names a notification kind.
type Template string

const (
	TemplateEmailVerification Template = "email_verification"
	TemplatePasswordReset     Template = "password_reset"
)

// Notification is one outbound email job. The Token field carries the
// single-use token the template embeds in its link.
type Notification struct {
	UserID   string
	Email    string
	Nickname string
	Template Template
	Token    string
}

// Notifier is the notification sink contract. Delivery is fire-and-forget
// from the engine's perspective: failures are the sink's concern.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// RegisterResult is the outcome of a successful registration.
type RegisterResult struct {
	User   *User
	Tokens *token.Pair
}

// LoginResult is the outcome of Login. When RequiresMFA is set the session
// tokens are absent and MFAToken must be exchanged via VerifyMFAAndLogin.
type LoginResult struct {
	User        *User
	Tokens      *token.Pair
	RequiresMFA bool
	MFAToken    string
}
