// Package otp implements RFC 6238 time-based one-time password generation
// and verification for otpvault accounts.
//
// Secrets are Base32 keys, canonicalized by NormalizeSecret before use or
// storage. Code generation supports SHA1, SHA256 and SHA512 with 6 or 8
// digit output and arbitrary positive periods. All time arithmetic uses
// integer seconds since epoch; the clock is injectable for deterministic
// tests.
//
// See RFC 4226 (HOTP) and RFC 6238 (TOTP).
package otp
