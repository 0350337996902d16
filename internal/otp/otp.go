package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base32"
	"errors"
	"fmt"
	"hash"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
)

const (
	DefaultDigits    = 6      // Standard 6-digit codes
	DefaultPeriod    = 30     // 30-second validity window (RFC 6238 standard)
	DefaultAlgorithm = "SHA1" // HMAC-SHA1 (RFC 6238 standard)
	DefaultWindow    = 1      // Accepted clock drift in counter steps

	// MinSecretLength is the minimum normalized secret length.
	MinSecretLength = 8
)

var (
	ErrInvalidSecret    = errors.New("invalid secret")
	ErrInvalidDigits    = errors.New("digits must be positive")
	ErrInvalidPeriod    = errors.New("period must be positive")
	ErrInvalidAlgorithm = errors.New("unsupported algorithm")
)

// secretRegex matches a normalized Base32 secret: uppercase A-Z, digits 2-7.
var secretRegex = regexp.MustCompile("^[A-Z2-7]+$")

// Options parameterize code generation for one credential.
type Options struct {
	Algorithm string // HMAC algorithm (defaults to SHA1)
	Digits    int    // Number of digits in generated codes (defaults to 6)
	Period    int    // Code validity period in seconds (defaults to 30)
	Window    int    // Verify: accepted counter drift (defaults to 1)
}

func (o Options) withDefaults() Options {
	if o.Algorithm == "" {
		o.Algorithm = DefaultAlgorithm
	}
	if o.Digits == 0 {
		o.Digits = DefaultDigits
	}
	if o.Period == 0 {
		o.Period = DefaultPeriod
	}
	if o.Window == 0 {
		o.Window = DefaultWindow
	}
	return o
}

func (o Options) validate() error {
	if o.Digits <= 0 {
		return ErrInvalidDigits
	}
	if o.Period <= 0 {
		return ErrInvalidPeriod
	}
	if hashFunc(o.Algorithm) == nil {
		return ErrInvalidAlgorithm
	}
	return nil
}

func hashFunc(algorithm string) func() hash.Hash {
	switch strings.ToUpper(algorithm) {
	case "SHA1":
		return sha1.New
	case "SHA256":
		return sha256.New
	case "SHA512":
		return sha512.New
	}
	return nil
}

// NormalizeSecret canonicalizes a Base32 secret: uppercase, all whitespace
// removed, trailing padding stripped. The result is what gets persisted.
func NormalizeSecret(secret string) string {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, secret)
	return strings.TrimRight(strings.ToUpper(s), "=")
}

// IsValidSecret reports whether secret normalizes to a usable Base32 key:
// non-empty, Base32 alphabet only, at least MinSecretLength characters.
func IsValidSecret(secret string) bool {
	s := NormalizeSecret(secret)
	return len(s) >= MinSecretLength && secretRegex.MatchString(s)
}

// Clock supplies the current time. Injected so tests can pin the counter.
type Clock func() time.Time

// Engine generates and verifies time-based codes.
type Engine struct {
	now Clock
}

// NewEngine creates an engine on the wall clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineWithClock creates an engine on a fixed or fake clock.
func NewEngineWithClock(clock Clock) *Engine {
	return &Engine{now: clock}
}

// GenerateCode computes the RFC 6238 code for the current time window.
// The secret must pass IsValidSecret; bad input is an explicit error,
// never a silently wrong code.
func (e *Engine) GenerateCode(secret string, opts Options) (string, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return "", err
	}
	if !IsValidSecret(secret) {
		return "", ErrInvalidSecret
	}

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(NormalizeSecret(secret))
	if err != nil {
		return "", ErrInvalidSecret
	}

	counter := e.now().Unix() / int64(opts.Period)
	return hotp(hashFunc(opts.Algorithm), key, counter, opts.Digits), nil
}

// VerifyCode accepts token if it matches the code for the current counter
// or any counter within ±Window steps, tolerating clock drift.
func (e *Engine) VerifyCode(token, secret string, opts Options) (bool, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return false, err
	}
	if !IsValidSecret(secret) {
		return false, ErrInvalidSecret
	}

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(NormalizeSecret(secret))
	if err != nil {
		return false, ErrInvalidSecret
	}

	token = strings.TrimSpace(token)
	counter := e.now().Unix() / int64(opts.Period)
	for i := -opts.Window; i <= opts.Window; i++ {
		if hotp(hashFunc(opts.Algorithm), key, counter+int64(i), opts.Digits) == token {
			return true, nil
		}
	}
	return false, nil
}

// RemainingSeconds returns how many whole seconds remain in the current
// period window. At unix time 59 with period 30 this is 1; at 60 it is 30.
func (e *Engine) RemainingSeconds(period int) int {
	if period <= 0 {
		period = DefaultPeriod
	}
	return period - int(e.now().Unix()%int64(period))
}

// ElapsedFraction returns how far the current window has progressed,
// in [0, 1). Used for countdown display.
func (e *Engine) ElapsedFraction(period int) float64 {
	if period <= 0 {
		period = DefaultPeriod
	}
	return float64(e.now().Unix()%int64(period)) / float64(period)
}

// hotp implements the RFC 4226 HMAC-based one-time password algorithm:
// HMAC of the 8-byte big-endian counter, dynamic truncation on the low
// nibble of the last MAC byte, high bit masked, reduced modulo 10^digits.
func hotp(h func() hash.Hash, key []byte, counter int64, digits int) string {
	counterBytes := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		counterBytes[i] = byte(counter & 0xff)
		counter >>= 8
	}

	mac := hmac.New(h, key)
	mac.Write(counterBytes)
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	code := (int(sum[offset]&0x7f) << 24) |
		(int(sum[offset+1]&0xff) << 16) |
		(int(sum[offset+2]&0xff) << 8) |
		int(sum[offset+3]&0xff)

	code %= int(math.Pow10(digits))
	return fmt.Sprintf("%0*d", digits, code)
}

// FormatDisplay groups a code for readability: 6 digits as "3 3", 8 digits
// as "4 4". Cosmetic only; the canonical code value is unchanged.
func FormatDisplay(code string) string {
	switch len(code) {
	case 6:
		return code[:3] + " " + code[3:]
	case 8:
		return code[:4] + " " + code[4:]
	}
	return code
}
