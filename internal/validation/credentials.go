// Package validation provides input validation for sign-up credentials.
// Lead capture payloads are deliberately not validated beyond the database
// schema constraints; credentials are the exception because a bad password
// policy cannot be fixed after accounts exist.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 6

// ErrPasswordTooShort is returned for passwords under MinPasswordLength.
var ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

// ErrInvalidEmail is returned for addresses that fail RFC 5322 parsing.
var ErrInvalidEmail = errors.New("invalid email address")

// ValidateEmail checks that the address parses and carries no display name
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the minimum length
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
