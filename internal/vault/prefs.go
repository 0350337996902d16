package vault

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/illarion/otpvault/internal/crypto"
	"github.com/illarion/otpvault/internal/storage"
)

// Preference keys in the durable prefs bucket.
const (
	PrefPinEnabled      = "pin_enabled"
	PrefAutoLockMinutes = "autolock_minutes"
	PrefAccentColor     = "accent_color"
)

// DefaultAutoLockMinutes applies when the preference is unset.
const DefaultAutoLockMinutes = 5

// SetupPIN stores a fresh verification record for pin, re-encrypts the
// vault under it and enables PIN protection. The vault must be unlocked.
// When a PIN already exists, currentPin must verify against it first.
func (s *Store) SetupPIN(pin, currentPin string) error {
	hasPin, err := s.db.HasPinRecord()
	if err != nil {
		return err
	}
	if hasPin {
		if err := s.VerifyPIN(currentPin); err != nil {
			return err
		}
	}

	rec, err := s.engine.SetupPIN(pin)
	if err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	// Re-encrypt the current account list under the new PIN first; only
	// then persist the verification record and flip the flag.
	if err := s.Flush(pin); err != nil {
		return err
	}
	if err := s.db.SetPinRecord(data); err != nil {
		return err
	}
	return s.SetPinEnabled(true)
}

// VerifyPIN checks pin against the stored record. ErrPINNotSet when no
// record exists; a mismatch is reported as ErrPINMismatch, not an error
// callers must string-match.
func (s *Store) VerifyPIN(pin string) error {
	data, err := s.db.GetPinRecord()
	if errors.Is(err, storage.ErrNotFound) {
		return ErrPINNotSet
	}
	if err != nil {
		return err
	}

	var rec crypto.PinRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return ErrPINMismatch
	}
	if !s.engine.VerifyPIN(pin, rec) {
		return ErrPINMismatch
	}
	return nil
}

// DisablePIN re-encrypts the vault under the device default key and turns
// the PIN-enabled preference off. The verification record is kept: a PIN
// can exist but be temporarily inert.
func (s *Store) DisablePIN(currentPin string) error {
	if err := s.VerifyPIN(currentPin); err != nil {
		return err
	}
	// Decrypt-with-current happens implicitly: the session already holds
	// the plaintext; saving under "" switches the at-rest key.
	if err := s.Flush(""); err != nil {
		return err
	}
	return s.SetPinEnabled(false)
}

// EnablePIN turns PIN protection back on after DisablePIN, re-encrypting
// the vault under the kept record's PIN. currentPin must verify against
// the record.
func (s *Store) EnablePIN(currentPin string) error {
	if err := s.VerifyPIN(currentPin); err != nil {
		return err
	}
	if err := s.Flush(currentPin); err != nil {
		return err
	}
	return s.SetPinEnabled(true)
}

// RemovePIN disables PIN protection and deletes the verification record.
func (s *Store) RemovePIN(currentPin string) error {
	if err := s.DisablePIN(currentPin); err != nil {
		return err
	}
	return s.db.DeletePinRecord()
}

// PinEnabled reports the PIN-enabled preference flag.
func (s *Store) PinEnabled() bool {
	v, err := s.db.GetPref(PrefPinEnabled)
	return err == nil && v == "true"
}

// SetPinEnabled writes the PIN-enabled preference flag.
func (s *Store) SetPinEnabled(enabled bool) error {
	return s.db.SetPref(PrefPinEnabled, strconv.FormatBool(enabled))
}

// HasPIN reports whether a PIN verification record exists, regardless of
// the enabled flag.
func (s *Store) HasPIN() (bool, error) {
	return s.db.HasPinRecord()
}

// AutoLockMinutes returns the auto-lock timeout preference. The timer
// itself is host policy; the vault only stores the value.
func (s *Store) AutoLockMinutes() int {
	v, err := s.db.GetPref(PrefAutoLockMinutes)
	if err != nil {
		return DefaultAutoLockMinutes
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return DefaultAutoLockMinutes
	}
	return n
}

// SetAutoLockMinutes writes the auto-lock timeout preference.
func (s *Store) SetAutoLockMinutes(minutes int) error {
	return s.db.SetPref(PrefAutoLockMinutes, strconv.Itoa(minutes))
}

// AccentColor returns the UI accent color preference, empty when unset.
func (s *Store) AccentColor() string {
	v, _ := s.db.GetPref(PrefAccentColor)
	return v
}

// SetAccentColor writes the UI accent color preference.
func (s *Store) SetAccentColor(color string) error {
	return s.db.SetPref(PrefAccentColor, color)
}
