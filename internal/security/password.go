package security

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Hash password hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// helper that compares a bcrypt hash with a plaintext password.

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// dummyHash is a real bcrypt digest (of an unused placeholder) so that
// DummyCheck costs the same as a genuine password comparison.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// DummyCheck burns one bcrypt comparison. Called on login when the email
// does not resolve to an account, so "no such user" and "wrong password"
// take the same time.
func DummyCheck() {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte("timing-equalizer"))
}

const specialChars = `!@#$%^&*(),.?":{}|<>`

// ValidatePasswordStrength is the single place password rules live.
// It returns every violated rule, not just the first.
func ValidatePasswordStrength(plain string) []string {
	var violations []string

	if len(plain) < 8 {
		violations = append(violations, "must be at least 8 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool

	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	if !hasUpper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "must contain a digit")
	}
	if !hasSpecial {
		violations = append(violations, "must contain a special character")
	}

	return violations
}
