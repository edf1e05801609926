// Package session caches the keystore passphrase between commands.
// The passphrase is encrypted with a random session key held in the OS
// keychain; the ciphertext and expiry live in a session file.
package session

import (
	"errors"
	"time"
)

// Session lifetime bounds.
const (
	// DefaultTTL is the default session duration.
	DefaultTTL = 15 * time.Minute

	// MaxTTL is the longest session allowed.
	MaxTTL = 60 * time.Minute

	// MinTTL is the shortest session allowed.
	MinTTL = 1 * time.Minute

	// ServiceName is the keyring service polywallet sessions use.
	ServiceName = "polywallet-session"

	// KeystoreSession names the session holding the keystore passphrase.
	KeystoreSession = "keystore"
)

// Session errors.
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrKeyringUnavailable = errors.New("keyring unavailable")
	ErrSessionCorrupted   = errors.New("session corrupted")
	ErrInvalidName        = errors.New("invalid session name")
)

// Session is the metadata of a cached secret.
type Session struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsValid reports whether the session has not expired.
func (s *Session) IsValid() bool {
	return time.Now().Before(s.ExpiresAt)
}

// TTL returns the time left, or 0 once expired.
func (s *Session) TTL() time.Duration {
	remaining := time.Until(s.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Manager stores secrets for a bounded time.
type Manager interface {
	// Available reports whether the keyring can be used.
	Available() bool

	// Start caches secret under name for ttl, clamped to [MinTTL, MaxTTL].
	Start(name string, secret []byte, ttl time.Duration) error

	// Get returns the secret of an active session. The caller zeroes it.
	Get(name string) ([]byte, *Session, error)

	// End removes one session.
	End(name string) error

	// EndAll removes every session and returns how many were removed.
	EndAll() int

	// List returns the active sessions.
	List() ([]*Session, error)
}

// Keyring is the OS secret store.
type Keyring interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

// ClampTTL bounds ttl to [MinTTL, MaxTTL]. Zero means DefaultTTL.
func ClampTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl == 0:
		return DefaultTTL
	case ttl < MinTTL:
		return MinTTL
	case ttl > MaxTTL:
		return MaxTTL
	default:
		return ttl
	}
}
