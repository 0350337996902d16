package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/user"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize  = 16 // Salt size in bytes
	KeySize   = 32 // AES-256 key size
	NonceSize = 12 // GCM nonce size
	TagSize   = 16 // GCM authentication tag size

	// VaultIterations is the PBKDF2 iteration count for the vault
	// encryption key (current best-practice floor for PBKDF2-SHA256).
	VaultIterations = 310000

	// PinIterations is the PBKDF2 iteration count for the PIN
	// verification hash. The PIN path is independent of the vault key
	// derivation and never shares its salt.
	PinIterations = 100000

	// BundleVersion tags the current encrypted bundle format.
	BundleVersion = 1
)

// ErrAuthenticationFailed is returned for every decryption failure. The
// message deliberately does not distinguish a wrong password from
// corrupted ciphertext.
var ErrAuthenticationFailed = errors.New("incorrect password or corrupted data")

// Bundle is the durable form of the vault: everything needed to decrypt
// given the right password. It is the only shape account data is ever
// persisted in.
type Bundle struct {
	Salt       string `json:"salt"`
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
	Version    int    `json:"version"`
}

// PinRecord is the durable PIN verification record. Its salt is generated
// fresh on every setup and is unrelated to any vault encryption salt.
type PinRecord struct {
	Hash string `json:"hash"`
	Salt string `json:"salt"`
}

// Context selects the password source for vault encryption. It is a closed
// sum: either the user's PIN or the device-derived default key.
type Context interface {
	isContext()
}

// UserPIN encrypts under a user-chosen PIN or password.
type UserPIN string

// DeviceDefault encrypts under the device-derived default key. Used when
// the user has opted out of PIN protection, so the vault is never stored
// unencrypted.
type DeviceDefault struct{}

func (UserPIN) isContext()       {}
func (DeviceDefault) isContext() {}

// ContextFor maps an optional PIN to an encryption context. An empty PIN
// selects the device default key.
func ContextFor(pin string) Context {
	if pin == "" {
		return DeviceDefault{}
	}
	return UserPIN(pin)
}

// DeriveKey derives a 256-bit key from password and salt using
// PBKDF2-HMAC-SHA256 with VaultIterations. Deterministic for a fixed
// (password, salt) pair.
func DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, VaultIterations, KeySize, sha256.New)
}

// Engine performs vault encryption, PIN hashing and default key
// derivation. The default key is memoized per Engine instance, never in
// package state, so security events can invalidate it explicitly.
type Engine struct {
	installID string

	mu         sync.Mutex
	defaultKey string
}

// NewEngine creates an engine. installID is a stable per-install random
// identifier mixed into the default key (see storage.GetOrCreateInstallID).
func NewEngine(installID string) *Engine {
	return &Engine{installID: installID}
}

// Encrypt generates a fresh random salt and nonce, derives a key for the
// given context and seals the plaintext with AES-256-GCM. Salts and
// nonces are never reused across calls, even for identical input.
func (e *Engine) Encrypt(plaintext []byte, ectx Context) (Bundle, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return Bundle{}, fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return Bundle{}, fmt.Errorf("failed to generate nonce: %w", err)
	}

	key := DeriveKey(e.contextPassword(ectx), salt)
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return Bundle{}, err
	}

	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	return Bundle{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		IV:         base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Version:    BundleVersion,
	}, nil
}

// Decrypt re-derives the key from the bundle's salt and opens the
// ciphertext. Every failure mode (bad encoding, truncated data, tag
// mismatch) collapses into ErrAuthenticationFailed.
func (e *Engine) Decrypt(b Bundle, ectx Context) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(b.Salt)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	nonce, err := base64.StdEncoding.DecodeString(b.IV)
	if err != nil || len(nonce) != NonceSize {
		return nil, ErrAuthenticationFailed
	}
	ciphertext, err := base64.StdEncoding.DecodeString(b.Ciphertext)
	if err != nil || len(ciphertext) < TagSize {
		return nil, ErrAuthenticationFailed
	}

	key := DeriveKey(e.contextPassword(ectx), salt)
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// SetupPIN creates a fresh verification record for pin. A new salt is
// generated on every call.
func (e *Engine) SetupPIN(pin string) (PinRecord, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return PinRecord{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := pbkdf2.Key([]byte(pin), salt, PinIterations, KeySize, sha256.New)
	defer ClearBytes(hash)

	return PinRecord{
		Hash: base64.StdEncoding.EncodeToString(hash),
		Salt: base64.StdEncoding.EncodeToString(salt),
	}, nil
}

// VerifyPIN checks pin against a stored record in constant time.
func (e *Engine) VerifyPIN(pin string, rec PinRecord) bool {
	salt, err := base64.StdEncoding.DecodeString(rec.Salt)
	if err != nil {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(rec.Hash)
	if err != nil {
		return false
	}

	got := pbkdf2.Key([]byte(pin), salt, PinIterations, KeySize, sha256.New)
	defer ClearBytes(got)

	return ConstantTimeCompare(got, want)
}

// DefaultKey returns the device-derived fallback password, computed from
// stable local attributes hashed together and cached for the engine's
// lifetime. This is obfuscation, not secrecy: anyone with local code
// execution can reconstruct it. Its only job is to keep the vault from
// being stored in the clear when no PIN is set.
func (e *Engine) DefaultKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.defaultKey != "" {
		return e.defaultKey
	}

	hostname, _ := os.Hostname()
	username := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
	}

	parts := []string{
		hostname,
		username,
		runtime.GOOS,
		runtime.GOARCH,
		e.installID,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	e.defaultKey = hex.EncodeToString(sum[:])
	return e.defaultKey
}

// ClearDefaultKeyCache drops the memoized default key. Call on logout or
// other security events.
func (e *Engine) ClearDefaultKeyCache() {
	e.mu.Lock()
	e.defaultKey = ""
	e.mu.Unlock()
}

// contextPassword resolves a Context to raw password bytes.
func (e *Engine) contextPassword(ectx Context) []byte {
	switch c := ectx.(type) {
	case UserPIN:
		return []byte(c)
	case DeviceDefault:
		return []byte(e.DefaultKey())
	default:
		// Context is a closed sum; this is unreachable.
		panic("crypto: unknown encryption context")
	}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
