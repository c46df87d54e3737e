// Package validation holds the field validators shared by the onboarding
// wizard and the HTTP handlers. Every validator returns an error message or
// the empty string.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const PhoneLength = 10

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldErrors maps a field name to its current error message.
type FieldErrors map[string]string

// Set records msg for field, clearing the entry when msg is empty.
func (fe FieldErrors) Set(field, msg string) {
	if msg == "" {
		delete(fe, field)
		return
	}
	fe[field] = msg
}

// Any reports whether one of the named fields carries an error.
func (fe FieldErrors) Any(fields ...string) bool {
	for _, f := range fields {
		if fe[f] != "" {
			return true
		}
	}
	return false
}

// Empty reports whether no field carries an error.
func (fe FieldErrors) Empty() bool {
	for _, v := range fe {
		if v != "" {
			return false
		}
	}
	return true
}

func Required(v string) string {
	if strings.TrimSpace(v) == "" {
		return "is required"
	}
	return ""
}

func Email(v string) string {
	if !emailPattern.MatchString(v) {
		return "invalid email address"
	}
	return ""
}

// Phone requires exactly ten digits and nothing else.
func Phone(v string) string {
	if !isDigits(v) {
		return "phone number must contain digits only"
	}
	if len(v) != PhoneLength {
		return fmt.Sprintf("phone number must be exactly %d digits", PhoneLength)
	}
	return ""
}

// Digits strips every non-digit character.
func Digits(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AcceptPhoneInput clamps an edit to a phone field: next replaces prev only
// when it is all digits and no longer than PhoneLength.
func AcceptPhoneInput(prev, next string) string {
	if !isDigits(next) || len(next) > PhoneLength {
		return prev
	}
	return next
}

// TypePhone replays keys one at a time against prev.
func TypePhone(prev, keys string) string {
	v := prev
	for _, r := range keys {
		v = AcceptPhoneInput(v, v+string(r))
	}
	return v
}

func AgeBounds(minAge, maxAge int) string {
	switch {
	case minAge < 0 || maxAge < 0:
		return "age bounds must not be negative"
	case minAge > 100 || maxAge > 100:
		return "age bounds must not exceed 100"
	case minAge > maxAge:
		return "minimum age must not exceed maximum age"
	}
	return ""
}

func CommissionPercent(p float64) string {
	if p < 0 || p > 100 {
		return "commission percentage must be between 0 and 100"
	}
	return ""
}

func PremiumVsCoverage(premium, coverage float64) string {
	if premium <= 0 {
		return "premium must be greater than zero"
	}
	if coverage < premium {
		return "coverage must not be less than premium"
	}
	return ""
}

func NonNegativeAmount(v float64) string {
	if v < 0 {
		return "amount must not be negative"
	}
	return ""
}

func isDigits(v string) bool {
	for _, r := range v {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
