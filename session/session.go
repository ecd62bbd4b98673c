// Package session tracks whether a workspace holds a live authentication
// grant and which pharmacy account that grant is linked to.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/RxRoster/rxroster/models/account"
)

var (
	ErrAuthentication   = errors.New("authentication failed")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAccountNotLoaded = errors.New("account not loaded")
	ErrSessionChanged   = errors.New("session changed while the request was in flight")
)

// User is the identity behind a session
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is a grant issued by the authentication provider
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past its expiry
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Provider is the external authentication service
type Provider interface {
	// GetCurrentSession returns nil without error when no session exists
	GetCurrentSession(ctx context.Context) (*Session, error)
	// SignInWithPassword may return a nil session without error
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context) error
}

// AccountRows is the external storage holding account records
type AccountRows interface {
	FindOne(ctx context.Context, column, value string) (*account.Account, error)
	Update(ctx context.Context, column, value string, changes account.Changes) (*account.Account, error)
}

// State is a copy of the store's state handed to callers
type State struct {
	Session         *Session         `json:"-"`
	User            *User            `json:"user"`
	Account         *account.Account `json:"account"`
	IsAuthenticated bool             `json:"isAuthenticated"`
}
