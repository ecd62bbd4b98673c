// Package workspace binds one client's session and profile collection
// together and keeps them alive between requests.
package workspace

import (
	"context"
	"sync"
	"time"

	log "github.com/Ptt-Alertor/logrus"

	"github.com/RxRoster/rxroster/profiles"
	"github.com/RxRoster/rxroster/session"
)

// Workspace is the per-client state: the session store and the profile
// collection of the account linked to it
type Workspace struct {
	ID       string
	Session  *session.Store
	Profiles *profiles.Store

	mu       sync.Mutex
	lastUsed time.Time
	restored bool
}

// New assembles a workspace from its stores
func New(id string, sess *session.Store, prof *profiles.Store) *Workspace {
	return &Workspace{
		ID:       id,
		Session:  sess,
		Profiles: prof,
	}
}

// AccountID returns the id of the linked account, or "" when none is linked
func (w *Workspace) AccountID() string {
	if acc := w.Session.State().Account; acc != nil {
		return acc.ID
	}
	return ""
}

// Restore re-checks the persisted session and hydrates the profiles of the
// account it links to. A workspace whose session is gone loses its
// profiles too.
func (w *Workspace) Restore(ctx context.Context) error {
	if err := w.Session.CheckSession(ctx); err != nil {
		return err
	}
	w.sync()
	return nil
}

// SignIn authenticates the workspace and loads the linked account's
// profiles
func (w *Workspace) SignIn(ctx context.Context, email, password string) (bool, error) {
	ok, err := w.Session.Login(ctx, email, password)
	if err != nil {
		return false, err
	}
	w.markRestored()
	w.sync()
	return ok, nil
}

// SignOut ends the session. The profile collection is reset whether or
// not the provider accepted the sign out.
func (w *Workspace) SignOut(ctx context.Context) error {
	err := w.Session.Logout(ctx)
	w.Profiles.Reset()
	return err
}

// Touch marks the workspace as used at now
func (w *Workspace) Touch(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if now.After(w.lastUsed) {
		w.lastUsed = now
	}
}

// LastUsed returns when the workspace was last touched
func (w *Workspace) LastUsed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

// restoreFirst runs Restore until it succeeds once; a failed attempt is
// retried on the next open
func (w *Workspace) restoreFirst(ctx context.Context) {
	w.mu.Lock()
	done := w.restored
	w.mu.Unlock()
	if done {
		return
	}

	if err := w.Restore(ctx); err != nil {
		log.WithField("workspace", w.ID).WithError(err).Warn("Workspace restore failed")
		return
	}
	w.markRestored()
}

func (w *Workspace) markRestored() {
	w.mu.Lock()
	w.restored = true
	w.mu.Unlock()
}

// sync points the profile collection at the linked account
func (w *Workspace) sync() {
	st := w.Session.State()
	if !st.IsAuthenticated || st.Account == nil {
		w.Profiles.Reset()
		return
	}
	w.Profiles.EnsureLoaded(st.Account.ID)
}
