package account

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode/utf8"

	"skins-market/internal/domain"
)

const (
	passwordMin = 10
	passwordMax = 32
	usernameMax = 20
	specials    = "!@#$%&*_-"
)

func classify(r rune) (lower, upper, digit, special bool) {
	switch {
	case r >= 'a' && r <= 'z':
		lower = true
	case r >= 'A' && r <= 'Z':
		upper = true
	case r >= '0' && r <= '9':
		digit = true
	case strings.ContainsRune(specials, r):
		special = true
	}
	return
}

// validatePassword requires 10 to 32 characters drawn from letters, digits and
// !@#$%&*_- with at least one of each class.
func validatePassword(field, p string) error {
	if n := utf8.RuneCountInString(p); n < passwordMin || n > passwordMax {
		return domain.Invalid(field, "must be between 10 and 32 characters")
	}
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range p {
		l, u, d, s := classify(r)
		if !l && !u && !d && !s {
			return domain.Invalid(field, "contains a character outside letters, digits and "+specials)
		}
		hasLower = hasLower || l
		hasUpper = hasUpper || u
		hasDigit = hasDigit || d
		hasSpecial = hasSpecial || s
	}
	if !hasLower || !hasUpper || !hasDigit || !hasSpecial {
		return domain.Invalid(field, "must contain a lowercase letter, an uppercase letter, a digit and one of "+specials)
	}
	return nil
}

// validateUsername allows the password alphabet, up to 20 characters.
func validateUsername(u string) error {
	if u == "" || utf8.RuneCountInString(u) > usernameMax {
		return domain.Invalid("username", "must be between 1 and 20 characters")
	}
	for _, r := range u {
		l, up, d, s := classify(r)
		if !l && !up && !d && !s {
			return domain.Invalid("username", "contains a character outside letters, digits and "+specials)
		}
	}
	return nil
}

// randomPassword generates a password that passes validatePassword.
func randomPassword() (string, error) {
	const (
		lowers = "abcdefghijklmnopqrstuvwxyz"
		uppers = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		digits = "0123456789"
		all    = lowers + uppers + digits + specials
		length = 20
	)
	buf := make([]byte, 0, length)
	for _, set := range []string{lowers, uppers, digits, specials} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for len(buf) < length {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for i := len(buf) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		buf[i], buf[j.Int64()] = buf[j.Int64()], buf[i]
	}
	return string(buf), nil
}

func pick(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}
