// Package otpauth parses and generates otpauth:// provisioning URIs, the
// format used by authenticator apps and QR enrollment:
//
//	otpauth://totp/Issuer:account?secret=...&issuer=...&algorithm=SHA1&digits=6&period=30
//
// See https://github.com/google/google-authenticator/wiki/Key-Uri-Format.
package otpauth

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/illarion/otpvault/internal/otp"
)

const Scheme = "otpauth"

// Credential types carried in the URI authority.
const (
	TypeTOTP = "totp"
	TypeHOTP = "hotp"
)

// UnknownIssuer is used when no issuer can be determined from the URI.
const UnknownIssuer = "Unknown"

var (
	ErrInvalidURI      = errors.New("invalid provisioning URI")
	ErrUnsupportedType = errors.New("unsupported credential type")
	ErrMissingSecret   = errors.New("missing secret parameter")
)

// Credential is a parsed provisioning record, ready to become an account.
type Credential struct {
	Type      string // totp or hotp
	Issuer    string
	Account   string
	Secret    string
	Algorithm string
	Digits    int
	Period    int
}

// Parse decodes an otpauth:// URI. The secret parameter is mandatory.
// Non-numeric digits/period values fall back to their defaults instead of
// erroring; unknown schemes or credential types are rejected.
func Parse(raw string) (Credential, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrInvalidURI, err)
	}
	if u.Scheme != Scheme {
		return Credential{}, ErrInvalidURI
	}

	typ := strings.ToLower(u.Host)
	if typ != TypeTOTP && typ != TypeHOTP {
		return Credential{}, ErrUnsupportedType
	}

	q := u.Query()
	secret := q.Get("secret")
	if secret == "" {
		return Credential{}, ErrMissingSecret
	}

	// Label is "issuer:account" with the colon optional. u.Path is
	// already percent-decoded.
	label := strings.TrimPrefix(u.Path, "/")
	issuer, account := "", label
	if before, after, found := strings.Cut(label, ":"); found {
		issuer, account = before, after
	}

	// An explicit issuer parameter wins over the label-derived one.
	if qi := q.Get("issuer"); qi != "" {
		issuer = qi
	}
	if issuer == "" {
		issuer = issuerFromAccount(account)
	}

	c := Credential{
		Type:      typ,
		Issuer:    issuer,
		Account:   strings.TrimSpace(account),
		Secret:    otp.NormalizeSecret(secret),
		Algorithm: strings.ToUpper(q.Get("algorithm")),
		Digits:    intParam(q.Get("digits"), otp.DefaultDigits),
		Period:    intParam(q.Get("period"), otp.DefaultPeriod),
	}
	if c.Algorithm == "" {
		c.Algorithm = otp.DefaultAlgorithm
	}
	return c, nil
}

// Generate is the inverse of Parse: it renders a credential as an
// otpauth:// URI with issuer and account percent-encoded into the label
// and all parameters as query values.
func Generate(c Credential) string {
	typ := strings.ToLower(c.Type)
	if typ == "" {
		typ = TypeTOTP
	}

	label := url.PathEscape(c.Account)
	if c.Issuer != "" {
		label = url.PathEscape(c.Issuer) + ":" + label
	}

	algorithm := c.Algorithm
	if algorithm == "" {
		algorithm = otp.DefaultAlgorithm
	}
	digits := c.Digits
	if digits == 0 {
		digits = otp.DefaultDigits
	}
	period := c.Period
	if period == 0 {
		period = otp.DefaultPeriod
	}

	q := url.Values{}
	q.Set("secret", c.Secret)
	if c.Issuer != "" {
		q.Set("issuer", c.Issuer)
	}
	q.Set("algorithm", algorithm)
	q.Set("digits", strconv.Itoa(digits))
	q.Set("period", strconv.Itoa(period))

	return fmt.Sprintf("%s://%s/%s?%s", Scheme, typ, label, q.Encode())
}

// issuerFromAccount falls back to the domain of an email-shaped account,
// else UnknownIssuer.
func issuerFromAccount(account string) string {
	if _, domain, found := strings.Cut(account, "@"); found && domain != "" {
		return domain
	}
	return UnknownIssuer
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
