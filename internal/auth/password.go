package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// Verifier checks a submitted password against a stored credential.
//
// Stored values carrying a bcrypt prefix are compared with bcrypt. Anything else
// is treated as a legacy plaintext credential, which only matches when
// AllowPlaintext is set.
type Verifier struct {
	AllowPlaintext bool
}

func IsHashed(stored string) bool {
	stored = strings.TrimSpace(stored)
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(stored, p) {
			return true
		}
	}
	return false
}

func (v Verifier) Verify(attempt, stored string) bool {
	attempt = strings.TrimSpace(attempt)
	stored = strings.TrimSpace(stored)
	if stored == "" {
		return false
	}

	if IsHashed(stored) {
		// A malformed hash surfaces as an error here and fails closed.
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(attempt)) == nil
	}

	if !v.AllowPlaintext {
		return false
	}
	return attempt == stored
}

// HashPassword produces the bcrypt string stored in users.yaml.
func HashPassword(plain string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
