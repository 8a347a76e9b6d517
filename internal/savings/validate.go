package savings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// validateInput runs struct-tag validation and maps the first failure onto
// ErrMissingField or ErrInvalidField.
func validateInput(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidField, err)
	}

	fe := verrs[0]
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	case "oneof":
		return fmt.Errorf("%w: %s must be one of [%s]", ErrInvalidField, field, fe.Param())
	case "min", "max":
		return fmt.Errorf("%w: %s must be %s %s", ErrInvalidField, field, fe.Tag(), fe.Param())
	default:
		return fmt.Errorf("%w: %s is invalid", ErrInvalidField, field)
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// parseAmount parses a positive money amount. field names the input for
// error messages.
func parseAmount(field, raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s is not a number", ErrInvalidField, field)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, field)
	}
	return amount, nil
}
