package account

import (
	"errors"
	"time"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUnknownColumn   = errors.New("unknown account column")
	ErrNoChanges       = errors.New("no account changes")
)

// SubscriptionStatus is the billing state of an account
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
)

// Column names of the accounts relation
const (
	ColumnID                 = "id"
	ColumnUserID             = "user_id"
	ColumnEmail              = "email"
	ColumnPharmacyName       = "pharmacy_name"
	ColumnPharmacyPhone      = "pharmacy_phone"
	ColumnSubscriptionStatus = "subscription_status"
	ColumnAddress1           = "address1"
	ColumnCity               = "city"
	ColumnState              = "state"
	ColumnZipcode            = "zipcode"
	ColumnCreatedAt          = "created_at"
	ColumnUpdatedAt          = "updated_at"
)

// Account represents the pharmacy that owns a login
type Account struct {
	ID                 string             `json:"id"`
	UserID             *string            `json:"userId,omitempty"`
	Email              string             `json:"email"`
	PharmacyName       string             `json:"pharmacyName"`
	PharmacyPhone      *string            `json:"pharmacyPhone,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	Address1           *string            `json:"address1,omitempty"`
	City               *string            `json:"city,omitempty"`
	State              *string            `json:"state,omitempty"`
	Zipcode            *string            `json:"zipcode,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// Changes is a partial account update in application naming
type Changes struct {
	Email              *string             `json:"email,omitempty" validate:"omitempty,email"`
	PharmacyName       *string             `json:"pharmacyName,omitempty" validate:"omitempty,min=1,max=120"`
	PharmacyPhone      *string             `json:"pharmacyPhone,omitempty" validate:"omitempty,min=7,max=20"`
	SubscriptionStatus *SubscriptionStatus `json:"subscriptionStatus,omitempty" validate:"omitempty,oneof=active inactive"`
	Address1           *string             `json:"address1,omitempty" validate:"omitempty,max=200"`
	City               *string             `json:"city,omitempty" validate:"omitempty,max=100"`
	State              *string             `json:"state,omitempty" validate:"omitempty,max=50"`
	Zipcode            *string             `json:"zipcode,omitempty" validate:"omitempty,max=10"`
}

// Assignment is one column = value pair of an update
type Assignment struct {
	Column string
	Value  any
}

// Columns translates the set fields into storage column naming.
// The order is fixed so generated statements are stable.
func (c Changes) Columns() []Assignment {
	var out []Assignment
	add := func(column string, v *string) {
		if v != nil {
			out = append(out, Assignment{Column: column, Value: *v})
		}
	}
	add(ColumnEmail, c.Email)
	add(ColumnPharmacyName, c.PharmacyName)
	add(ColumnPharmacyPhone, c.PharmacyPhone)
	if c.SubscriptionStatus != nil {
		out = append(out, Assignment{Column: ColumnSubscriptionStatus, Value: string(*c.SubscriptionStatus)})
	}
	add(ColumnAddress1, c.Address1)
	add(ColumnCity, c.City)
	add(ColumnState, c.State)
	add(ColumnZipcode, c.Zipcode)
	return out
}

// filterable lists the columns a lookup or update may be scoped by
var filterable = map[string]bool{
	ColumnID:     true,
	ColumnUserID: true,
	ColumnEmail:  true,
}

// Filterable reports whether column may appear in a WHERE clause
func Filterable(column string) bool {
	return filterable[column]
}
