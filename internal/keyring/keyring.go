// Package keyring stores the vault PIN in the OS keyring, keyed by the
// per-install id, so unattended use does not require retyping it.
package keyring

import (
	"github.com/zalando/go-keyring"
)

const serviceName = "otpvault"

// SavePIN stores a PIN in the OS keyring
func SavePIN(installID string, pin string) error {
	return keyring.Set(serviceName, installID, pin)
}

// GetPIN retrieves a PIN from the OS keyring
func GetPIN(installID string) (string, error) {
	return keyring.Get(serviceName, installID)
}

// DeletePIN removes a PIN from the OS keyring
func DeletePIN(installID string) error {
	return keyring.Delete(serviceName, installID)
}

// HasPIN checks if a PIN is stored in the keyring
func HasPIN(installID string) bool {
	_, err := keyring.Get(serviceName, installID)
	return err == nil
}
