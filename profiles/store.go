// Package profiles keeps the member profiles of the account a workspace is
// currently working on, together with the current profile selection.
package profiles

import (
	"errors"
	"sync"
	"time"

	log "github.com/Ptt-Alertor/logrus"
	"github.com/google/uuid"

	"github.com/RxRoster/rxroster/models/profile"
)

var (
	ErrAccountMismatch   = errors.New("profiles are loaded for a different account")
	ErrIncompleteProfile = errors.New("a known role, first name and last name are required")
)

// Persister reads and writes the snapshot of one account
type Persister interface {
	Load(accountID string) (profile.Snapshot, bool)
	Save(accountID string, snap profile.Snapshot) error
}

// Store is the in-memory profile collection of one account at a time.
// Every mutation is written through to the Persister.
type Store struct {
	mu        sync.Mutex
	persister Persister
	nowFn     func() time.Time
	newID     func() string

	profiles         []profile.MemberProfile
	currentProfileID string
	loadedFor        string
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.nowFn = now }
}

// WithIDGenerator replaces the uuid generator
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore creates an empty store on top of persister
func NewStore(persister Persister, opts ...Option) *Store {
	s := &Store{
		persister: persister,
		nowFn:     func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureLoaded hydrates the store for accountID. Repeated calls for the
// account already loaded do nothing, so in-memory edits are never
// clobbered by a re-read.
func (s *Store) EnsureLoaded(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if accountID == "" || s.loadedFor == accountID {
		return
	}

	if snap, ok := s.persister.Load(accountID); ok {
		s.profiles = snap.Profiles
		s.currentProfileID = ""
		if snap.CurrentProfileID != nil {
			s.currentProfileID = *snap.CurrentProfileID
		}
		s.loadedFor = accountID
		log.WithFields(log.Fields{
			"account_id": accountID,
			"profiles":   len(s.profiles),
		}).Debug("Profiles loaded")
		return
	}

	s.profiles = nil
	s.currentProfileID = ""
	s.loadedFor = accountID
	s.persistLocked()
	log.WithField("account_id", accountID).Debug("Profiles initialised empty")
}

// SetCurrentProfile selects profileID; an empty id clears the selection
func (s *Store) SetCurrentProfile(profileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentProfileID = profileID
	if s.loadedFor != "" {
		s.persistLocked()
	}
}

// AddProfile creates a profile from draft under accountID. The first
// profile added becomes the current one.
func (s *Store) AddProfile(accountID string, draft profile.Draft) (profile.MemberProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAccountLocked(accountID); err != nil {
		return profile.MemberProfile{}, err
	}
	if !draft.Complete() {
		return profile.MemberProfile{}, ErrIncompleteProfile
	}

	p := draft.Build(s.newID(), accountID, s.nowFn())
	s.profiles = append(s.profiles, p)
	if s.currentProfileID == "" {
		s.currentProfileID = p.ID
	}
	s.persistLocked()

	return p, nil
}

// UpdateProfile merges changes into the profile with id. Unknown ids are
// ignored. Changes that would leave the profile without a known role or a
// name are rejected and nothing is written.
func (s *Store) UpdateProfile(accountID, id string, changes profile.Changes) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAccountLocked(accountID); err != nil {
		return err
	}

	for i := range s.profiles {
		if s.profiles[i].ID != id {
			continue
		}
		p := s.profiles[i]
		changes.Apply(&p)
		if !p.Complete() {
			return ErrIncompleteProfile
		}
		p.UpdatedAt = s.laterThan(p.UpdatedAt)
		s.profiles[i] = p
		break
	}
	s.persistLocked()

	return nil
}

// RemoveProfile deletes the profile with id. When it was selected the
// selection moves to the first remaining profile, or clears.
func (s *Store) RemoveProfile(accountID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkAccountLocked(accountID); err != nil {
		return err
	}

	kept := make([]profile.MemberProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.profiles = kept

	if s.currentProfileID == id {
		s.currentProfileID = ""
		if len(s.profiles) > 0 {
			s.currentProfileID = s.profiles[0].ID
		}
	}
	s.persistLocked()

	return nil
}

// Reset forgets everything, including which account was loaded
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles = nil
	s.currentProfileID = ""
	s.loadedFor = ""
}

// Profiles returns a copy of the collection in insertion order
func (s *Store) Profiles() []profile.MemberProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]profile.MemberProfile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// Profile returns the profile with id
func (s *Store) Profile(id string) (profile.MemberProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.profiles {
		if p.ID == id {
			return p, true
		}
	}
	return profile.MemberProfile{}, false
}

// CurrentProfileID returns the selected id, or "" when none is selected
func (s *Store) CurrentProfileID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentProfileID
}

// CurrentProfile returns the selected profile
func (s *Store) CurrentProfile() (profile.MemberProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.profiles {
		if p.ID == s.currentProfileID {
			return p, true
		}
	}
	return profile.MemberProfile{}, false
}

// LoadedAccountID returns the account the collection belongs to
func (s *Store) LoadedAccountID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadedFor
}

func (s *Store) checkAccountLocked(accountID string) error {
	if s.loadedFor == "" || accountID != s.loadedFor {
		log.WithFields(log.Fields{
			"account_id": accountID,
			"loaded_for": s.loadedFor,
		}).Warn("Profile mutation rejected for account mismatch")
		return ErrAccountMismatch
	}
	return nil
}

// laterThan returns the current time, nudged past prev when the clock has
// not advanced
func (s *Store) laterThan(prev time.Time) time.Time {
	now := s.nowFn()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

func (s *Store) snapshotLocked() profile.Snapshot {
	snap := profile.Snapshot{
		Profiles:    make([]profile.MemberProfile, len(s.profiles)),
		LastUpdated: s.nowFn(),
	}
	copy(snap.Profiles, s.profiles)
	if s.currentProfileID != "" {
		id := s.currentProfileID
		snap.CurrentProfileID = &id
	}
	return snap
}

func (s *Store) persistLocked() {
	// write failures are logged by the persister; memory stays authoritative
	_ = s.persister.Save(s.loadedFor, s.snapshotLocked())
}
