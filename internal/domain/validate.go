package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DeckInput is the user-editable part of a deck.
type DeckInput struct {
	Name        string `validate:"required,max=200"`
	Description string `validate:"max=4000"`
}

// Normalize trims surrounding whitespace and validates the input.
func (in DeckInput) Normalize() (DeckInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	return in, Check(in)
}

// CardInput is the user-editable part of a card.
type CardInput struct {
	Front string `validate:"required"`
	Back  string `validate:"required"`
}

// Normalize trims surrounding whitespace and validates the input.
func (in CardInput) Normalize() (CardInput, error) {
	in.Front = strings.TrimSpace(in.Front)
	in.Back = strings.TrimSpace(in.Back)
	return in, Check(in)
}

// Check runs struct-tag validation on v and reports the first failure as a
// *ValidationError.
func Check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "input", Reason: err.Error()}
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: strings.ToLower(fe.Field()), Reason: reason(fe)}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gtefield":
		return fmt.Sprintf("must not be less than %s", strings.ToLower(fe.Param()))
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
