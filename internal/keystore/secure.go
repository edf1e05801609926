package keystore

import (
	"runtime"
	"sync"
)

// SecureBytes holds decrypted key material in memory that is locked when
// the platform allows it and zeroed on Destroy.
type SecureBytes struct {
	data   []byte
	locked bool
	mu     sync.Mutex
}

// NewSecureBytes copies data into a new locked buffer.
func NewSecureBytes(data []byte) *SecureBytes {
	buf := make([]byte, len(data))
	copy(buf, data)

	sb := &SecureBytes{data: buf}
	sb.locked = mlock(buf)

	runtime.SetFinalizer(sb, func(s *SecureBytes) {
		s.Destroy()
	})
	return sb
}

// Bytes returns the underlying slice, or nil after Destroy.
func (s *SecureBytes) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// String returns the contents as a string. The copy is not zeroed.
func (s *SecureBytes) String() string {
	return string(s.Bytes())
}

// Len returns the length of the data.
func (s *SecureBytes) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// IsLocked reports whether the buffer is mlocked.
func (s *SecureBytes) IsLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// Destroy zeroes and unlocks the buffer. Safe to call more than once.
func (s *SecureBytes) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		return
	}
	Zero(s.data)
	if s.locked {
		munlock(s.data)
		s.locked = false
	}
	s.data = nil
	runtime.SetFinalizer(s, nil)
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
