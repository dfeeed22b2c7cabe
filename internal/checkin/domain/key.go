package domain

import "time"

const (
	// KeyDigits is the length of every rotating key.
	KeyDigits = 4

	DefaultKeyRotationInterval = 60 * time.Second
	DefaultKeyValidity         = 60 * time.Second
)

// RotatingKey is the short-lived shared secret required for login and logout.
type RotatingKey struct {
	Value    string
	IssuedAt time.Time
	Validity time.Duration
}

// ExpiresAt is the last instant the key is accepted.
func (k RotatingKey) ExpiresAt() time.Time {
	return k.IssuedAt.Add(k.Validity)
}

// IsWellFormed reports whether s is exactly KeyDigits ASCII digits.
func IsWellFormed(s string) bool {
	if len(s) != KeyDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
