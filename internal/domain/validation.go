package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCedula    = errors.New("invalid cedula format")
	ErrInvalidPeriod    = errors.New("invalid period format")
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrPasswordTooWeak  = errors.New("password does not meet requirements")
	ErrInvalidIDFormat  = errors.New("invalid ID format")
)

// Validation constants
const (
	MaxPaymentAmount  = "1000000000" // 1 billion
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var (
	cedulaRegex = regexp.MustCompile(`^[0-9]{1,3}-?[0-9]{3,4}-?[0-9]{3,6}$`)
	periodRegex = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])$`)
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	ulidRegex   = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
)

// ValidateCedula validates a client identity number used to resolve payroll
// batch rows to credits.
func ValidateCedula(cedula string) error {
	cedula = strings.TrimSpace(cedula)
	if !cedulaRegex.MatchString(cedula) {
		return fmt.Errorf("%w: %q", ErrInvalidCedula, cedula)
	}
	return nil
}

// ValidatePeriod validates a payroll period in YYYY-MM form.
func ValidatePeriod(period string) error {
	if !periodRegex.MatchString(strings.TrimSpace(period)) {
		return fmt.Errorf("%w: %q, expected YYYY-MM", ErrInvalidPeriod, period)
	}
	return nil
}

// ValidateAmount validates a payment amount against global bounds.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	max, _ := decimal.NewFromString(MaxPaymentAmount)
	if amount.GreaterThan(max) {
		return fmt.Errorf("%w: maximum is %s", ErrAmountTooLarge, MaxPaymentAmount)
	}

	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: minimum length is %d", ErrPasswordTooWeak, MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: maximum length is %d", ErrPasswordTooWeak, MaxPasswordLength)
	}
	return nil
}

// ValidateID validates a ULID-shaped identifier.
func ValidateID(id string) error {
	if !ulidRegex.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidIDFormat, id)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
