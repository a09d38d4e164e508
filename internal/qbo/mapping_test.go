package qbo

import (
	"reflect"
	"testing"
)

func TestMapCustomerFields(t *testing.T) {
	patch := map[string]any{
		"displayName": "Acme Corp",
		"email":       "billing@acme.test",
		"phone":       "555-0100",
		"active":      false,
		"address": map[string]any{
			"line1":      "1 Main St",
			"city":       "Springfield",
			"region":     "CA",
			"postalCode": "90001",
		},
		"unknownField": "dropped",
	}

	got := MapCustomerFields(patch)

	want := map[string]any{
		"DisplayName":      "Acme Corp",
		"PrimaryEmailAddr": map[string]any{"Address": "billing@acme.test"},
		"PrimaryPhone":     map[string]any{"FreeFormNumber": "555-0100"},
		"Active":           false,
		"BillAddr": map[string]any{
			"Line1":                  "1 Main St",
			"City":                   "Springfield",
			"CountrySubDivisionCode": "CA",
			"PostalCode":             "90001",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MapCustomerFields() = %#v, want %#v", got, want)
	}

	// The caller's map must survive untouched.
	if _, ok := patch["DisplayName"]; ok {
		t.Error("mapping mutated the caller's patch")
	}
	if len(patch) != 6 {
		t.Errorf("caller's patch changed size: %d", len(patch))
	}
}

func TestMapCustomerFields_OnlyPresentKeys(t *testing.T) {
	got := MapCustomerFields(map[string]any{"active": false})
	want := map[string]any{"Active": false}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("partial patch mapped to %#v, want %#v", got, want)
	}
}

func TestMapAccountFields(t *testing.T) {
	got := MapAccountFields(map[string]any{
		"name":        "Travel Expenses",
		"accountType": "Expense",
		"description": "Team travel",
		"bogus":       true,
	})

	want := map[string]any{
		"Name":        "Travel Expenses",
		"AccountType": "Expense",
		"Description": "Team travel",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MapAccountFields() = %#v, want %#v", got, want)
	}
}
