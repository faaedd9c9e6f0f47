package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	// Indian mobile numbers: 10 digits, first digit 6-9.
	mobileRegex = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

// ValidateEmail checks if an email address is valid.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// NormalizeMobile validates an Indian mobile number and strips an optional
// leading "91" country code, returning the bare 10-digit form sent to the
// gateway.
func NormalizeMobile(mobile string) (string, error) {
	m := strings.TrimSpace(mobile)
	if len(m) == 12 && strings.HasPrefix(m, "91") {
		m = m[2:]
	}
	if !mobileRegex.MatchString(m) {
		return "", fmt.Errorf("invalid mobile number: must be 10 digits starting with 6-9")
	}
	return m, nil
}

// ValidatePositiveAmount checks that an amount is positive (in paise).
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %d", amount)
	}
	return nil
}

// ValidateTopupAmount checks a topup amount against the configured bounds.
func ValidateTopupAmount(amount, min, max int64) error {
	if err := ValidatePositiveAmount(amount); err != nil {
		return err
	}
	if amount < min {
		return fmt.Errorf("amount %d is below the minimum %d", amount, min)
	}
	if max > 0 && amount > max {
		return fmt.Errorf("amount %d exceeds the maximum %d", amount, max)
	}
	return nil
}

// ValidateQuantity checks a purchase quantity.
func ValidateQuantity(quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	return nil
}
