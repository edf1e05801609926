package session

import (
	"testing"
	"time"
)

func TestSessionIsValid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{name: "future expiry", expiresAt: time.Now().Add(10 * time.Minute), want: true},
		{name: "past expiry", expiresAt: time.Now().Add(-10 * time.Minute), want: false},
		{name: "just expired", expiresAt: time.Now().Add(-time.Millisecond), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := &Session{Name: "keystore", CreatedAt: time.Now().Add(-5 * time.Minute), ExpiresAt: tt.expiresAt}
			if got := s.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSessionTTL(t *testing.T) {
	t.Parallel()

	s := &Session{ExpiresAt: time.Now().Add(10 * time.Minute)}
	if ttl := s.TTL(); ttl < 9*time.Minute || ttl > 10*time.Minute {
		t.Errorf("TTL() = %v, want about 10m", ttl)
	}

	s.ExpiresAt = time.Now().Add(-time.Minute)
	if ttl := s.TTL(); ttl != 0 {
		t.Errorf("TTL() = %v for an expired session, want 0", ttl)
	}
}

func TestClampTTL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want time.Duration
	}{
		{0, DefaultTTL},
		{10 * time.Second, MinTTL},
		{30 * time.Minute, 30 * time.Minute},
		{2 * time.Hour, MaxTTL},
	}
	for _, tt := range tests {
		if got := ClampTTL(tt.in); got != tt.want {
			t.Errorf("ClampTTL(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
