package session

import (
	"github.com/zalando/go-keyring"
)

// OSKeyring is the Keyring backed by the OS keychain.
type OSKeyring struct{}

// NewOSKeyring creates an OS keychain wrapper.
func NewOSKeyring() *OSKeyring {
	return &OSKeyring{}
}

// Set stores a secret.
func (k *OSKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

// Get reads a secret.
func (k *OSKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

// Delete removes a secret.
func (k *OSKeyring) Delete(service, user string) error {
	return keyring.Delete(service, user)
}

// probe writes, reads back and deletes a throwaway value.
func probe(k Keyring) bool {
	const (
		service = "polywallet-probe"
		user    = "probe"
		value   = "ok"
	)
	if err := k.Set(service, user, value); err != nil {
		return false
	}
	got, err := k.Get(service, user)
	if err != nil || got != value {
		_ = k.Delete(service, user)
		return false
	}
	return k.Delete(service, user) == nil
}
