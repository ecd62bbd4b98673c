package session

import (
	"context"
	"errors"

	log "github.com/Ptt-Alertor/logrus"

	"github.com/RxRoster/rxroster/models/account"
)

// Lookup is one account resolution strategy. Find returns a nil account
// without error when nothing matches.
type Lookup struct {
	Name string
	Find func(ctx context.Context, rows AccountRows, u User) (*account.Account, error)
}

// ByColumn matches accounts whose column equals the value picked from u.
// An empty value is a miss without a query.
func ByColumn(name, column string, pick func(User) string) Lookup {
	return Lookup{
		Name: name,
		Find: func(ctx context.Context, rows AccountRows, u User) (*account.Account, error) {
			value := pick(u)
			if value == "" {
				return nil, nil
			}
			return rows.FindOne(ctx, column, value)
		},
	}
}

var (
	ByID            = ByColumn("id", account.ColumnID, func(u User) string { return u.ID })
	ByUserReference = ByColumn("user_reference", account.ColumnUserID, func(u User) string { return u.ID })
	ByEmail         = ByColumn("email", account.ColumnEmail, func(u User) string { return u.Email })
)

// DefaultLookups is the resolution order used unless overridden
func DefaultLookups() []Lookup {
	return []Lookup{ByID, ByUserReference, ByEmail}
}

// findAccount runs lookups in order and returns the first hit. Any failure
// of a single lookup counts as a miss. settled is false when no lookup hit
// and at least one failed with something other than ErrAccountNotFound.
func findAccount(ctx context.Context, rows AccountRows, lookups []Lookup, u User) (acc *account.Account, settled bool) {
	if rows == nil {
		return nil, true
	}
	settled = true
	for _, lookup := range lookups {
		found, err := lookup.Find(ctx, rows, u)
		if err != nil {
			if !errors.Is(err, account.ErrAccountNotFound) {
				settled = false
			}
			log.WithFields(log.Fields{
				"user_id":  u.ID,
				"strategy": lookup.Name,
			}).WithError(err).Debug("Account lookup missed")
			continue
		}
		if found != nil {
			return found, true
		}
	}
	return nil, settled
}
