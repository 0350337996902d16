// Package crypto provides cryptographic operations for otpvault.
//
// Vault encryption uses AES-256-GCM with:
//   - 32-byte key derived from password via PBKDF2
//   - 16-byte random salt and 12-byte random nonce per encryption
//   - Authenticated encryption prevents tampering
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 310,000 iterations for the vault encryption key
//   - 100,000 iterations for the independent PIN verification hash
//
// Decryption failures are reported with a single generic error so callers
// cannot distinguish a wrong password from corrupted data.
//
// When no PIN is set, encryption falls back to a device-derived default
// key (see Engine.DefaultKey). That key is obfuscation only; it exists so
// the vault is never written to disk unencrypted.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
package crypto
