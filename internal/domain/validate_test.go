package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestDeckInputNormalize(t *testing.T) {
	testCases := []struct {
		name      string
		input     DeckInput
		wantName  string
		wantField string
	}{
		{name: "Valid", input: DeckInput{Name: "Spanish", Description: "verbs"}, wantName: "Spanish"},
		{name: "Trims whitespace", input: DeckInput{Name: "  Spanish \n"}, wantName: "Spanish"},
		{name: "Empty name", input: DeckInput{Name: ""}, wantField: "name"},
		{name: "Blank name", input: DeckInput{Name: "   "}, wantField: "name"},
		{name: "Name too long", input: DeckInput{Name: strings.Repeat("x", 201)}, wantField: "name"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.input.Normalize()
			if tc.wantField != "" {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("Expected a ValidationError, got %v", err)
				}
				if verr.Field != tc.wantField {
					t.Errorf("Expected field %q, got %q", tc.wantField, verr.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.Name != tc.wantName {
				t.Errorf("Expected name %q, got %q", tc.wantName, got.Name)
			}
		})
	}
}

func TestCardInputNormalize(t *testing.T) {
	if _, err := (CardInput{Front: "hola", Back: "hello"}).Normalize(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, err := CardInput{Front: "hola", Back: " \t"}.Normalize()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "back" {
		t.Fatalf("Expected a ValidationError on back, got %v", err)
	}
	if verr.Reason != "must not be empty" {
		t.Errorf("Unexpected reason %q", verr.Reason)
	}

	_, err = CardInput{Front: "", Back: "hello"}.Normalize()
	if !errors.As(err, &verr) || verr.Field != "front" {
		t.Errorf("Expected a ValidationError on front, got %v", err)
	}
}
