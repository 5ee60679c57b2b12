package service

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// Safaricom mobile and Airtel-style numbers: +254 or local 07/01 prefixes.
	kenyanPhonePattern = regexp.MustCompile(`^(\+254[17]\d{8}|254[17]\d{8}|0[17]\d{8})$`)
	emailPattern       = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	slugPattern        = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// ValidateKenyanPhone checks a customer phone number in any accepted format.
func ValidateKenyanPhone(phone string) error {
	p := strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
	p = strings.ReplaceAll(p, "-", "")
	if !kenyanPhonePattern.MatchString(p) {
		return fmt.Errorf("%w: %q", ErrPhoneInvalid, phone)
	}
	return nil
}

// ValidateEmail checks a customer email address.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return fmt.Errorf("%w: %q", ErrEmailInvalid, email)
	}
	return nil
}

// ValidateSlug checks a URL slug.
func ValidateSlug(slug string) error {
	s := strings.TrimSpace(slug)
	if s == "" || len(s) > 120 || !slugPattern.MatchString(s) {
		return fmt.Errorf("%w: %q", ErrSlugInvalid, slug)
	}
	return nil
}
