package session

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/mrz1836/polywallet/internal/fileutil"
	"github.com/mrz1836/polywallet/internal/keystore"
)

//nolint:gochecknoglobals // compiled once
var nameRegex = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

const (
	fileExt       = ".session"
	filePerm      = 0o600
	dirPerm       = 0o700
	sessionKeyLen = 32

	// probeTimeout keeps a hung keyring daemon from blocking startup.
	probeTimeout = 3 * time.Second
)

var _ Manager = (*FileManager)(nil)

type sessionFile struct {
	Session         *Session `json:"session"`
	EncryptedSecret []byte   `json:"encrypted_secret"`
}

// FileManager keeps session files in a directory and their keys in a Keyring.
type FileManager struct {
	dir        string
	keyring    Keyring
	available  bool
	workFactor int
	mu         sync.RWMutex
}

// NewManager creates a manager over dir. A nil keyring means the OS keychain.
// The keyring is probed once; an unreachable keyring disables sessions.
func NewManager(dir string, kr Keyring) *FileManager {
	if kr == nil {
		kr = NewOSKeyring()
	}
	m := &FileManager{dir: dir, keyring: kr}
	m.available = m.probe()
	return m
}

// WithWorkFactor sets the scrypt work factor of session files.
func (m *FileManager) WithWorkFactor(logN int) *FileManager {
	m.workFactor = logN
	return m
}

// Available reports whether sessions can be stored.
func (m *FileManager) Available() bool {
	return m.available
}

// Start caches secret under name.
func (m *FileManager) Start(name string, secret []byte, ttl time.Duration) error {
	if !nameRegex.MatchString(name) {
		return ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return ErrKeyringUnavailable
	}

	key := make([]byte, sessionKeyLen)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("generating session key: %w", err)
	}
	defer keystore.Zero(key)

	ciphertext, err := keystore.EncryptWithWorkFactor(secret, hex.EncodeToString(key), m.workFactor)
	if err != nil {
		return fmt.Errorf("encrypting session: %w", err)
	}

	user := keyringUser(name)
	if err := m.keyring.Set(ServiceName, user, base64.StdEncoding.EncodeToString(key)); err != nil {
		return fmt.Errorf("storing session key: %w", err)
	}

	now := time.Now()
	data, err := json.MarshalIndent(sessionFile{
		Session:         &Session{Name: name, CreatedAt: now, ExpiresAt: now.Add(ClampTTL(ttl))},
		EncryptedSecret: ciphertext,
	}, "", "  ")
	if err != nil {
		_ = m.keyring.Delete(ServiceName, user)
		return err
	}

	if err := os.MkdirAll(m.dir, dirPerm); err != nil {
		_ = m.keyring.Delete(ServiceName, user)
		return fmt.Errorf("creating session directory: %w", err)
	}
	if err := fileutil.WriteAtomic(m.path(name), data, filePerm); err != nil {
		_ = m.keyring.Delete(ServiceName, user)
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

// Get returns the cached secret of name. Expired, corrupted or orphaned
// sessions are removed.
func (m *FileManager) Get(name string) ([]byte, *Session, error) {
	if !nameRegex.MatchString(name) {
		return nil, nil, ErrInvalidName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return nil, nil, ErrKeyringUnavailable
	}

	sf, err := m.read(name)
	if err != nil {
		return nil, nil, err
	}
	if !sf.Session.IsValid() {
		_ = m.remove(name)
		return nil, nil, ErrSessionExpired
	}

	encoded, err := m.keyring.Get(ServiceName, keyringUser(name))
	if err != nil {
		_ = m.remove(name)
		return nil, nil, ErrSessionNotFound
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		_ = m.remove(name)
		return nil, nil, ErrSessionCorrupted
	}
	defer keystore.Zero(key)

	secret, err := keystore.Decrypt(sf.EncryptedSecret, hex.EncodeToString(key))
	if err != nil {
		_ = m.remove(name)
		return nil, nil, ErrSessionCorrupted
	}
	return secret, sf.Session, nil
}

// End removes the session of name.
func (m *FileManager) End(name string) error {
	if !nameRegex.MatchString(name) {
		return ErrInvalidName
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remove(name)
}

// EndAll removes every stored session, expired or not.
func (m *FileManager) EndAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	names, err := m.names()
	if err != nil {
		return 0
	}
	count := 0
	for _, name := range names {
		if err := m.remove(name); err == nil {
			count++
		}
	}
	return count
}

// List returns the sessions that have not expired.
func (m *FileManager) List() ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.available {
		return nil, ErrKeyringUnavailable
	}
	names, err := m.names()
	if err != nil {
		return nil, err
	}

	var out []*Session
	for _, name := range names {
		sf, err := m.read(name)
		if err != nil {
			continue
		}
		if sf.Session.IsValid() {
			out = append(out, sf.Session)
		}
	}
	return out, nil
}

func (m *FileManager) read(name string) (*sessionFile, error) {
	data, err := os.ReadFile(m.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil || sf.Session == nil {
		_ = m.remove(name)
		return nil, ErrSessionCorrupted
	}
	return &sf, nil
}

func (m *FileManager) names() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		if name := strings.TrimSuffix(e.Name(), fileExt); nameRegex.MatchString(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

func (m *FileManager) remove(name string) error {
	_ = m.keyring.Delete(ServiceName, keyringUser(name))
	if err := os.Remove(m.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

func (m *FileManager) probe() bool {
	ch := make(chan bool, 1)
	go func() { ch <- probe(m.keyring) }()
	select {
	case ok := <-ch:
		return ok
	case <-time.After(probeTimeout):
		return false
	}
}

func (m *FileManager) path(name string) string {
	return filepath.Join(m.dir, name+fileExt)
}

func keyringUser(name string) string {
	return "session:" + name
}
