package account

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// row is an accounts record in storage naming
type row struct {
	ID                 string  `json:"id"`
	UserID             *string `json:"user_id"`
	Email              string  `json:"email"`
	PharmacyName       string  `json:"pharmacy_name"`
	PharmacyPhone      *string `json:"pharmacy_phone"`
	SubscriptionStatus string  `json:"subscription_status"`
	Address1           *string `json:"address1"`
	City               *string `json:"city"`
	State              *string `json:"state"`
	Zipcode            *string `json:"zipcode"`
	CreatedAt          rowTime `json:"created_at"`
	UpdatedAt          rowTime `json:"updated_at"`
}

func (r row) account() *Account {
	status := SubscriptionStatus(r.SubscriptionStatus)
	if status != SubscriptionActive {
		status = SubscriptionInactive
	}
	return &Account{
		ID:                 r.ID,
		UserID:             r.UserID,
		Email:              r.Email,
		PharmacyName:       r.PharmacyName,
		PharmacyPhone:      r.PharmacyPhone,
		SubscriptionStatus: status,
		Address1:           r.Address1,
		City:               r.City,
		State:              r.State,
		Zipcode:            r.Zipcode,
		CreatedAt:          time.Time(r.CreatedAt),
		UpdatedAt:          time.Time(r.UpdatedAt),
	}
}

// rowTime accepts both timestamptz and timestamp renderings of row_to_json
type rowTime time.Time

var rowTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func (t *rowTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = rowTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range rowTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = rowTime(parsed.UTC())
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
