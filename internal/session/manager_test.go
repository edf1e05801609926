package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// MockKeyring is an in-memory Keyring.
type MockKeyring struct {
	mu      sync.Mutex
	store   map[string]string
	failing bool
	setCt   int
}

func NewMockKeyring() *MockKeyring {
	return &MockKeyring{store: make(map[string]string)}
}

func (m *MockKeyring) Set(service, user, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCt++
	if m.failing {
		return ErrKeyringUnavailable
	}
	m.store[service+":"+user] = password
	return nil
}

func (m *MockKeyring) Get(service, user string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return "", ErrKeyringUnavailable
	}
	v, ok := m.store[service+":"+user]
	if !ok {
		return "", ErrSessionNotFound
	}
	return v, nil
}

func (m *MockKeyring) Delete(service, user string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return ErrKeyringUnavailable
	}
	delete(m.store, service+":"+user)
	return nil
}

func newTestManager(t *testing.T) (*FileManager, *MockKeyring, string) {
	t.Helper()
	dir := t.TempDir()
	kr := NewMockKeyring()
	return NewManager(dir, kr).WithWorkFactor(10), kr, dir
}

func TestManagerAvailable(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t)
	if !m.Available() {
		t.Error("Available() = false with a working keyring")
	}

	kr := NewMockKeyring()
	kr.failing = true
	if NewManager(t.TempDir(), kr).Available() {
		t.Error("Available() = true with a failing keyring")
	}
}

func TestManagerStartGet(t *testing.T) {
	t.Parallel()

	m, kr, dir := newTestManager(t)
	if err := m.Start(KeystoreSession, []byte("hunter22hunter22"), 15*time.Minute); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "keystore.session"))
	if err != nil {
		t.Fatalf("session file: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("session file mode = %v, want 0600", info.Mode().Perm())
	}
	if kr.setCt < 2 {
		t.Error("session key was not stored in the keyring")
	}

	secret, s, err := m.Get(KeystoreSession)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(secret) != "hunter22hunter22" {
		t.Errorf("Get() secret = %q", secret)
	}
	if s.Name != KeystoreSession || !s.IsValid() {
		t.Errorf("Get() session = %+v", s)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "keystore.session")) //nolint:gosec // test path
	if bytes.Contains(data, []byte("hunter22")) {
		t.Error("session file holds the plaintext secret")
	}
}

func TestManagerStartErrors(t *testing.T) {
	t.Parallel()

	m, _, _ := newTestManager(t)
	if err := m.Start("../escape", []byte("x"), time.Minute); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Start() bad name error = %v", err)
	}

	kr := NewMockKeyring()
	kr.failing = true
	if err := NewManager(t.TempDir(), kr).Start(KeystoreSession, []byte("x"), time.Minute); !errors.Is(err, ErrKeyringUnavailable) {
		t.Errorf("Start() error = %v, want ErrKeyringUnavailable", err)
	}
}

func TestManagerGetFailures(t *testing.T) {
	t.Parallel()

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		m, _, _ := newTestManager(t)
		if _, _, err := m.Get(KeystoreSession); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()
		m, _, dir := newTestManager(t)
		if err := m.Start(KeystoreSession, []byte("x"), MinTTL); err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, "keystore.session")
		data, err := os.ReadFile(path) //nolint:gosec // test path
		if err != nil {
			t.Fatal(err)
		}
		var sf sessionFile
		if err := json.Unmarshal(data, &sf); err != nil {
			t.Fatal(err)
		}
		sf.Session.ExpiresAt = time.Now().Add(-time.Hour)
		data, _ = json.Marshal(sf)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}

		if _, _, err := m.Get(KeystoreSession); !errors.Is(err, ErrSessionExpired) {
			t.Errorf("Get() error = %v, want ErrSessionExpired", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("expired session file was not removed")
		}
	})

	t.Run("corrupted", func(t *testing.T) {
		t.Parallel()
		m, _, dir := newTestManager(t)
		if err := os.WriteFile(filepath.Join(dir, "keystore.session"), []byte("{not json"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, _, err := m.Get(KeystoreSession); !errors.Is(err, ErrSessionCorrupted) {
			t.Errorf("Get() error = %v, want ErrSessionCorrupted", err)
		}
	})

	t.Run("keyring entry gone", func(t *testing.T) {
		t.Parallel()
		m, kr, _ := newTestManager(t)
		if err := m.Start(KeystoreSession, []byte("x"), time.Minute); err != nil {
			t.Fatal(err)
		}
		_ = kr.Delete(ServiceName, keyringUser(KeystoreSession))
		if _, _, err := m.Get(KeystoreSession); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Get() error = %v, want ErrSessionNotFound", err)
		}
	})
}

func TestManagerListAndEnd(t *testing.T) {
	t.Parallel()

	m, kr, dir := newTestManager(t)
	for _, name := range []string{"keystore", "other"} {
		if err := m.Start(name, []byte(name), 10*time.Minute); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	sessions, err := m.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("List() = %d sessions, want 2", len(sessions))
	}

	if err := m.End("other"); err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if err := m.End("other"); err != nil {
		t.Errorf("second End() error = %v", err)
	}
	if n := m.EndAll(); n != 1 {
		t.Errorf("EndAll() = %d, want 1", n)
	}
	if len(kr.store) != 0 {
		t.Errorf("keyring still holds %d entries", len(kr.store))
	}
}
