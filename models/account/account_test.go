package account

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestChanges_Columns(t *testing.T) {
	active := SubscriptionActive
	tests := []struct {
		name    string
		changes Changes
		want    []Assignment
	}{
		{"empty", Changes{}, nil},
		{"name only", Changes{PharmacyName: strPtr("Main St Pharmacy")}, []Assignment{
			{Column: ColumnPharmacyName, Value: "Main St Pharmacy"},
		}},
		{"fixed order", Changes{
			Zipcode:            strPtr("78701"),
			SubscriptionStatus: &active,
			Email:              strPtr("owner@example.com"),
			PharmacyPhone:      strPtr("5125550100"),
		}, []Assignment{
			{Column: ColumnEmail, Value: "owner@example.com"},
			{Column: ColumnPharmacyPhone, Value: "5125550100"},
			{Column: ColumnSubscriptionStatus, Value: "active"},
			{Column: ColumnZipcode, Value: "78701"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.changes.Columns(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Changes.Columns() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildUpdate(t *testing.T) {
	query, args, err := buildUpdate(ColumnUserID, "user-1", Changes{
		PharmacyName: strPtr("Corner Rx"),
		City:         strPtr("Austin"),
	})
	if err != nil {
		t.Fatalf("buildUpdate() error = %v", err)
	}
	if !strings.Contains(query, "SET pharmacy_name = $1, city = $2, updated_at = NOW()") {
		t.Errorf("unexpected SET clause in %s", query)
	}
	if !strings.Contains(query, "WHERE user_id::text = $3") {
		t.Errorf("unexpected WHERE clause in %s", query)
	}
	want := []any{"Corner Rx", "Austin", "user-1"}
	if !reflect.DeepEqual(args, want) {
		t.Errorf("args = %v, want %v", args, want)
	}

	if _, _, err := buildUpdate(ColumnID, "acct-1", Changes{}); !errors.Is(err, ErrNoChanges) {
		t.Errorf("buildUpdate() with no changes error = %v, want ErrNoChanges", err)
	}
}

func TestFilterable(t *testing.T) {
	tests := []struct {
		column string
		want   bool
	}{
		{ColumnID, true},
		{ColumnUserID, true},
		{ColumnEmail, true},
		{ColumnPharmacyName, false},
		{"id; DROP TABLE accounts", false},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			if got := Filterable(tt.column); got != tt.want {
				t.Errorf("Filterable(%q) = %v, want %v", tt.column, got, tt.want)
			}
		})
	}
}

func TestRow_Account(t *testing.T) {
	raw := `{
		"id": "acct-1",
		"email": "owner@example.com",
		"pharmacy_name": "Corner Rx",
		"pharmacy_phone": null,
		"subscription_status": "active",
		"address1": "1 Main St",
		"city": "Austin",
		"state": "TX",
		"zipcode": "78701",
		"created_at": "2024-03-01T10:00:00.123456+00:00",
		"updated_at": "2024-03-02 11:30:00"
	}`
	var rec row
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		t.Fatalf("unmarshal row: %v", err)
	}
	acc := rec.account()

	if acc.ID != "acct-1" || acc.PharmacyName != "Corner Rx" {
		t.Errorf("unexpected account %+v", acc)
	}
	if acc.UserID != nil {
		t.Errorf("UserID = %v, want nil when column is absent", *acc.UserID)
	}
	if acc.PharmacyPhone != nil {
		t.Errorf("PharmacyPhone = %v, want nil", *acc.PharmacyPhone)
	}
	if acc.SubscriptionStatus != SubscriptionActive {
		t.Errorf("SubscriptionStatus = %v", acc.SubscriptionStatus)
	}
	wantCreated := time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC)
	if !acc.CreatedAt.Equal(wantCreated) {
		t.Errorf("CreatedAt = %v, want %v", acc.CreatedAt, wantCreated)
	}
	wantUpdated := time.Date(2024, 3, 2, 11, 30, 0, 0, time.UTC)
	if !acc.UpdatedAt.Equal(wantUpdated) {
		t.Errorf("UpdatedAt = %v, want %v", acc.UpdatedAt, wantUpdated)
	}
}

func TestRow_UnknownStatusIsInactive(t *testing.T) {
	acc := row{ID: "acct-2", SubscriptionStatus: "trialing"}.account()
	if acc.SubscriptionStatus != SubscriptionInactive {
		t.Errorf("SubscriptionStatus = %v, want inactive", acc.SubscriptionStatus)
	}
}
