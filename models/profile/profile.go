package profile

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"
)

// Role is the job role of a pharmacy team member
type Role string

const (
	RolePharmacistPIC   Role = "Pharmacist-PIC"
	RolePharmacistStaff Role = "Pharmacist-Staff"
	RoleTechnician      Role = "Pharmacy Technician"
)

// Roles lists every accepted member role
var Roles = []Role{RolePharmacistPIC, RolePharmacistStaff, RoleTechnician}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// MemberProfile is a pharmacist or technician working under an account
type MemberProfile struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"accountId"`
	RoleType      Role      `json:"roleType"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Phone         *string   `json:"phone,omitempty"`
	Email         *string   `json:"email,omitempty"`
	DOBMonth      *string   `json:"dobMonth,omitempty"`
	DOBDay        *string   `json:"dobDay,omitempty"`
	DOBYear       *string   `json:"dobYear,omitempty"`
	LicenseNumber *string   `json:"licenseNumber,omitempty"`
	RegistryID    *string   `json:"nabpEProfileId,omitempty"`
	IsActive      *bool     `json:"isActive,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Complete reports whether the always-present fields hold usable values
func (p MemberProfile) Complete() bool {
	return p.RoleType.Valid() && p.FirstName != "" && p.LastName != ""
}

// Draft carries everything needed to create a profile except the
// generated identifier, the owning account and the timestamps
type Draft struct {
	RoleType      Role    `json:"roleType" validate:"required,memberrole"`
	FirstName     string  `json:"firstName" validate:"required,max=64"`
	LastName      string  `json:"lastName" validate:"required,max=64"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	DOBMonth      *string `json:"dobMonth,omitempty" validate:"omitempty,numeric,min=1,max=2"`
	DOBDay        *string `json:"dobDay,omitempty" validate:"omitempty,numeric,min=1,max=2"`
	DOBYear       *string `json:"dobYear,omitempty" validate:"omitempty,numeric,len=4"`
	LicenseNumber *string `json:"licenseNumber,omitempty" validate:"omitempty,printascii,max=32"`
	RegistryID    *string `json:"nabpEProfileId,omitempty" validate:"omitempty,printascii,max=32"`
	IsActive      *bool   `json:"isActive,omitempty"`
}

// Complete reports whether the always-present fields are set and the role
// is a known one
func (d Draft) Complete() bool {
	return d.RoleType.Valid() && d.FirstName != "" && d.LastName != ""
}

// Build turns the draft into a profile owned by accountID
func (d Draft) Build(id, accountID string, now time.Time) MemberProfile {
	return MemberProfile{
		ID:            id,
		AccountID:     accountID,
		RoleType:      d.RoleType,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Phone:         d.Phone,
		Email:         d.Email,
		DOBMonth:      d.DOBMonth,
		DOBDay:        d.DOBDay,
		DOBYear:       d.DOBYear,
		LicenseNumber: d.LicenseNumber,
		RegistryID:    d.RegistryID,
		IsActive:      d.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Changes is a partial update. Fields left out of it are untouched, fields
// named in Cleared are emptied.
type Changes struct {
	RoleType      *Role   `json:"roleType,omitempty" validate:"omitempty,memberrole"`
	FirstName     *string `json:"firstName,omitempty" validate:"omitempty,min=1,max=64"`
	LastName      *string `json:"lastName,omitempty" validate:"omitempty,min=1,max=64"`
	Phone         *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	DOBMonth      *string `json:"dobMonth,omitempty" validate:"omitempty,numeric,min=1,max=2"`
	DOBDay        *string `json:"dobDay,omitempty" validate:"omitempty,numeric,min=1,max=2"`
	DOBYear       *string `json:"dobYear,omitempty" validate:"omitempty,numeric,len=4"`
	LicenseNumber *string `json:"licenseNumber,omitempty" validate:"omitempty,printascii,max=32"`
	RegistryID    *string `json:"nabpEProfileId,omitempty" validate:"omitempty,printascii,max=32"`
	IsActive      *bool   `json:"isActive,omitempty"`

	// Cleared holds the json names of the fields sent as null
	Cleared []string `json:"-"`
}

// UnmarshalJSON decodes c and records the fields given as an explicit null
func (c *Changes) UnmarshalJSON(data []byte) error {
	type plain Changes
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for name, raw := range fields {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			out.Cleared = append(out.Cleared, name)
		}
	}
	sort.Strings(out.Cleared)
	*c = Changes(out)
	return nil
}

// Apply shallow-merges c onto p. Identity, ownership and timestamps are
// never touched here.
func (c Changes) Apply(p *MemberProfile) {
	if c.RoleType != nil {
		p.RoleType = *c.RoleType
	}
	if c.FirstName != nil {
		p.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		p.LastName = *c.LastName
	}
	if c.Phone != nil {
		p.Phone = c.Phone
	}
	if c.Email != nil {
		p.Email = c.Email
	}
	if c.DOBMonth != nil {
		p.DOBMonth = c.DOBMonth
	}
	if c.DOBDay != nil {
		p.DOBDay = c.DOBDay
	}
	if c.DOBYear != nil {
		p.DOBYear = c.DOBYear
	}
	if c.LicenseNumber != nil {
		p.LicenseNumber = c.LicenseNumber
	}
	if c.RegistryID != nil {
		p.RegistryID = c.RegistryID
	}
	if c.IsActive != nil {
		p.IsActive = c.IsActive
	}
	for _, name := range c.Cleared {
		clearField(p, name)
	}
}

func clearField(p *MemberProfile, name string) {
	switch name {
	case "roleType":
		p.RoleType = ""
	case "firstName":
		p.FirstName = ""
	case "lastName":
		p.LastName = ""
	case "phone":
		p.Phone = nil
	case "email":
		p.Email = nil
	case "dobMonth":
		p.DOBMonth = nil
	case "dobDay":
		p.DOBDay = nil
	case "dobYear":
		p.DOBYear = nil
	case "licenseNumber":
		p.LicenseNumber = nil
	case "nabpEProfileId":
		p.RegistryID = nil
	case "isActive":
		p.IsActive = nil
	}
}

// Snapshot is the unit persisted per account: the profile collection,
// the current selection and the time of the write
type Snapshot struct {
	Profiles         []MemberProfile `json:"profiles"`
	CurrentProfileID *string         `json:"currentProfileId"`
	LastUpdated      time.Time       `json:"lastUpdated"`
}
