// Package storage provides the durable persistence tier for otpvault,
// backed by a single BBolt database file.
//
// Bucket layout:
//   - config: format version, timestamps, per-install id (unencrypted)
//   - vault:  the encrypted account bundle, one value, replaced wholesale
//   - pin:    the PIN verification record
//   - prefs:  non-sensitive preferences (pin_enabled, autolock_minutes, ...)
//
// Plaintext account data is never stored here. The decrypted account list
// lives only in the volatile session tier (see package session).
package storage
