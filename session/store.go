package session

import (
	"context"
	"fmt"
	"sync"

	log "github.com/Ptt-Alertor/logrus"

	"github.com/RxRoster/rxroster/models/account"
)

// Store is the source of truth for "is there a live session" and holds
// the account linked to it when one can be found. Authentication never
// depends on the account being found.
//
// No lock is held across provider or storage calls. Each call captures
// the generation it started under; the generation moves whenever the
// session is cleared or its user changes, and results from an older
// generation are dropped.
type Store struct {
	mu       sync.Mutex
	provider Provider
	rows     AccountRows
	lookups  []Lookup

	generation    uint64
	session       *Session
	user          *User
	account       *account.Account
	authenticated bool
}

// Option configures a Store
type Option func(*Store)

// WithLookups replaces the account resolution order
func WithLookups(lookups ...Lookup) Option {
	return func(s *Store) { s.lookups = lookups }
}

// NewStore creates a signed-out store
func NewStore(provider Provider, rows AccountRows, opts ...Option) *Store {
	s := &Store{
		provider: provider,
		rows:     rows,
		lookups:  DefaultLookups(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckSession asks the provider for an existing session, typically one
// persisted by an earlier sign in, and resolves its account
func (s *Store) CheckSession(ctx context.Context) error {
	gen := s.currentGeneration()

	sess, err := s.provider.GetCurrentSession(ctx)
	if err != nil {
		// the provider could not answer; whatever we hold stays
		log.WithError(err).Warn("Session check failed")
		return err
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return nil
	}
	if sess == nil {
		s.clearLocked()
		s.mu.Unlock()
		return nil
	}
	gen = s.applyLocked(sess)
	s.mu.Unlock()

	s.resolve(ctx, gen, sess.User)
	return nil
}

// Login signs in with the provider. It reports false without error when
// the provider accepted the credentials but issued no session.
func (s *Store) Login(ctx context.Context, email, password string) (bool, error) {
	gen := s.currentGeneration()

	sess, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		log.WithField("email", email).WithError(err).Info("Sign in rejected")
		return false, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return false, ErrSessionChanged
	}
	if sess == nil {
		s.clearLocked()
		s.mu.Unlock()
		log.WithField("email", email).Warn("Sign in returned no session")
		return false, nil
	}
	gen = s.applyLocked(sess)
	s.mu.Unlock()

	s.resolve(ctx, gen, sess.User)

	log.WithFields(log.Fields{
		"user_id": sess.User.ID,
		"linked":  s.State().Account != nil,
	}).Info("Signed in")
	return true, nil
}

// Logout ends the provider session and clears all local state, even when
// the provider call fails
func (s *Store) Logout(ctx context.Context) error {
	err := s.provider.SignOut(ctx)
	if err != nil {
		log.WithError(err).Warn("Provider sign out failed")
	}

	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()

	return err
}

// UpdateAccount writes changes to the loaded account and replaces it with
// the stored row
func (s *Store) UpdateAccount(ctx context.Context, changes account.Changes) (*account.Account, error) {
	s.mu.Lock()
	user, acc, gen := s.user, s.account, s.generation
	s.mu.Unlock()

	if user == nil {
		return nil, ErrNotAuthenticated
	}
	if acc == nil {
		return nil, ErrAccountNotLoaded
	}

	column, value := updateScope(acc, user)
	updated, err := s.rows.Update(ctx, column, value, changes)
	if err != nil {
		log.WithFields(log.Fields{
			"scope": column,
			"value": value,
		}).WithError(err).Error("Account update failed")
		return nil, err
	}

	if updated == nil {
		return nil, account.ErrAccountNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return nil, ErrSessionChanged
	}
	s.account = updated

	out := *updated
	return &out, nil
}

// State returns a copy of the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{IsAuthenticated: s.authenticated}
	if s.session != nil {
		sess := *s.session
		st.Session = &sess
	}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	if s.account != nil {
		acc := *s.account
		st.Account = &acc
	}
	return st
}

// resolve links the account for u unless the session moved on meanwhile
func (s *Store) resolve(ctx context.Context, gen uint64, u User) {
	acc, settled := findAccount(ctx, s.rows, s.lookups, u)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		log.WithField("user_id", u.ID).Debug("Discarded stale account resolution")
		return
	}
	if acc == nil && !settled && s.account != nil {
		log.WithFields(log.Fields{
			"user_id":    u.ID,
			"account_id": s.account.ID,
		}).Warn("Account lookup failed, keeping linked account")
		return
	}
	s.account = acc
}

func (s *Store) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// applyLocked installs sess and returns the generation it lives in
func (s *Store) applyLocked(sess *Session) uint64 {
	if s.user == nil || s.user.ID != sess.User.ID {
		s.generation++
		s.account = nil
	}
	u := sess.User
	s.session = sess
	s.user = &u
	s.authenticated = true
	return s.generation
}

func (s *Store) clearLocked() {
	s.generation++
	s.session = nil
	s.user = nil
	s.account = nil
	s.authenticated = false
}

// updateScope picks the most specific identifier available
func updateScope(acc *account.Account, u *User) (string, string) {
	switch {
	case acc.ID != "":
		return account.ColumnID, acc.ID
	case u.ID != "":
		return account.ColumnUserID, u.ID
	default:
		return account.ColumnEmail, u.Email
	}
}
