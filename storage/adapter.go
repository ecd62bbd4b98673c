package storage

import (
	"bytes"
	"encoding/json"

	log "github.com/Ptt-Alertor/logrus"

	"github.com/RxRoster/rxroster/models/profile"
)

// ProfilesPrefix is the key prefix of persisted profile snapshots
const ProfilesPrefix = "member_profiles:"

// Adapter persists one profile snapshot per account. It is best effort:
// reads never fail and write failures are only logged.
type Adapter struct {
	kv KV
}

// NewAdapter creates an adapter writing to kv
func NewAdapter(kv KV) *Adapter {
	return &Adapter{kv: kv}
}

// Key returns the storage key for accountID
func Key(accountID string) string {
	return ProfilesPrefix + accountID
}

// storedSnapshot defers decoding of profiles so its shape can be checked
type storedSnapshot struct {
	Profiles         json.RawMessage `json:"profiles"`
	CurrentProfileID *string         `json:"currentProfileId"`
	LastUpdated      json.RawMessage `json:"lastUpdated"`
}

// Load returns the snapshot stored for accountID. The second value is
// false when nothing usable is stored.
func (a *Adapter) Load(accountID string) (profile.Snapshot, bool) {
	fields := log.Fields{"account_id": accountID}

	raw, ok, err := a.kv.GetItem(Key(accountID))
	if err != nil {
		log.WithFields(fields).WithError(err).Warn("Profile snapshot read failed")
		return profile.Snapshot{}, false
	}
	if !ok {
		return profile.Snapshot{}, false
	}

	var stored storedSnapshot
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		log.WithFields(fields).WithError(err).Warn("Profile snapshot is not valid JSON")
		return profile.Snapshot{}, false
	}
	if !isArray(stored.Profiles) {
		log.WithFields(fields).Warn("Profile snapshot has no profiles list")
		return profile.Snapshot{}, false
	}

	var snap profile.Snapshot
	if err := json.Unmarshal(stored.Profiles, &snap.Profiles); err != nil {
		log.WithFields(fields).WithError(err).Warn("Profile snapshot entries are malformed")
		return profile.Snapshot{}, false
	}
	snap.CurrentProfileID = stored.CurrentProfileID
	if len(stored.LastUpdated) > 0 {
		// a bad timestamp does not invalidate the profiles
		_ = json.Unmarshal(stored.LastUpdated, &snap.LastUpdated)
	}

	return snap, true
}

// Save writes snap for accountID. The returned error has already been
// logged; callers are expected to drop it.
func (a *Adapter) Save(accountID string, snap profile.Snapshot) error {
	fields := log.Fields{
		"account_id": accountID,
		"profiles":   len(snap.Profiles),
	}

	if snap.Profiles == nil {
		snap.Profiles = []profile.MemberProfile{}
	}
	b, err := json.Marshal(snap)
	if err != nil {
		log.WithFields(fields).WithError(err).Warn("Profile snapshot marshal failed")
		return err
	}

	if err := a.kv.SetItem(Key(accountID), string(b)); err != nil {
		log.WithFields(fields).WithError(err).Warn("Profile snapshot write dropped")
		return err
	}
	return nil
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}
