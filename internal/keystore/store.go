// Package keystore persists per-chain key material encrypted with age,
// and holds the BIP39/BIP32 helpers used to derive secp256k1 keys.
package keystore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"filippo.io/age"

	"github.com/mrz1836/polywallet/internal/chain"
	"github.com/mrz1836/polywallet/internal/fileutil"
	walleterr "github.com/mrz1836/polywallet/pkg/errors"
)

const fileExt = ".age"

// Store reads and writes one encrypted key file per chain and network.
type Store struct {
	dir        string
	workFactor int
}

// NewStore creates a store rooted at dir (usually $HOME/keys).
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// WithWorkFactor sets the scrypt work factor (log2 N) for new files.
// Zero keeps the age default.
func (s *Store) WithWorkFactor(logN int) *Store {
	s.workFactor = logN
	return s
}

// Dir returns the directory holding the key files.
func (s *Store) Dir() string {
	return s.dir
}

// Entry identifies a stored key.
type Entry struct {
	Chain   chain.ID
	Network chain.Network
	Path    string
}

func (s *Store) path(id chain.ID, network chain.Network) string {
	if network == "" {
		network = chain.Mainnet
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s%s", id, network, fileExt))
}

// Save encrypts secret with passphrase and writes it.
func (s *Store) Save(id chain.ID, network chain.Network, secret []byte, passphrase string) error {
	if passphrase == "" {
		return walleterr.WithSuggestion(walleterr.ErrInvalidInput, "a passphrase is required to encrypt keys (set POLYWALLET_PASSPHRASE)")
	}
	ciphertext, err := encrypt(secret, passphrase, s.workFactor)
	if err != nil {
		return fmt.Errorf("encrypting key: %w", err)
	}
	return fileutil.WriteAtomic(s.path(id, network), ciphertext, 0o600)
}

// Load decrypts the key for id. The caller must Destroy the result.
func (s *Store) Load(id chain.ID, network chain.Network, passphrase string) (*SecureBytes, error) {
	data, err := fileutil.ReadIfExists(s.path(id, network))
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	if data == nil {
		return nil, walleterr.WithDetails(walleterr.ErrKeyNotFound, map[string]string{
			"chain":   id.String(),
			"network": string(network),
		})
	}

	plaintext, err := Decrypt(data, passphrase)
	if err != nil {
		return nil, walleterr.WithCause(walleterr.ErrDecryptionFailed, err)
	}
	defer Zero(plaintext)

	return NewSecureBytes(plaintext), nil
}

// Exists reports whether a key file is present for id.
func (s *Store) Exists(id chain.ID, network chain.Network) bool {
	_, err := os.Stat(s.path(id, network))
	return err == nil
}

// Delete removes the key file for id. Missing files are not an error.
func (s *Store) Delete(id chain.ID, network chain.Network) error {
	err := os.Remove(s.path(id, network))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns every stored key, sorted by chain then network.
func (s *Store) List() ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		base := strings.TrimSuffix(name, fileExt)
		idx := strings.LastIndex(base, "-")
		if idx <= 0 {
			continue
		}
		id, ok := chain.ParseChainID(base[:idx])
		if !ok {
			continue
		}
		out = append(out, Entry{Chain: id, Network: chain.Network(base[idx+1:]), Path: filepath.Join(s.dir, name)})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Chain != out[j].Chain {
			return out[i].Chain < out[j].Chain
		}
		return out[i].Network < out[j].Network
	})
	return out, nil
}

// Encrypt encrypts plaintext to an age scrypt recipient.
func Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	return encrypt(plaintext, passphrase, 0)
}

// EncryptWithWorkFactor is Encrypt with an explicit scrypt work factor
// (log2 N). Zero keeps the age default.
func EncryptWithWorkFactor(plaintext []byte, passphrase string, logN int) ([]byte, error) {
	return encrypt(plaintext, passphrase, logN)
}

func encrypt(plaintext []byte, passphrase string, workFactor int) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, err
	}
	if workFactor > 0 {
		recipient.SetWorkFactor(workFactor)
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decrypt reverses Encrypt.
func Decrypt(ciphertext []byte, passphrase string) ([]byte, error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
