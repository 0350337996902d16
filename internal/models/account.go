package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Supported HMAC algorithms for code generation
const (
	AlgorithmSHA1   = "SHA1"
	AlgorithmSHA256 = "SHA256"
	AlgorithmSHA512 = "SHA512"
)

// Defaults per RFC 6238
const (
	DefaultAlgorithm = AlgorithmSHA1
	DefaultDigits    = 6
	DefaultPeriod    = 30
)

// Account is a single OTP credential. The JSON tags define the backup wire
// format and must stay stable across versions.
type Account struct {
	ID        string    `json:"id"`
	Issuer    string    `json:"issuer"`
	Label     string    `json:"label"`
	Secret    string    `json:"secret"`
	Algorithm string    `json:"algorithm"`
	Digits    int       `json:"digits"`
	Period    int       `json:"period"`
	FolderID  string    `json:"folderId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewAccount creates an account with a fresh ID and defaults applied to
// zero-valued fields. The secret is stored as given; normalization is the
// caller's responsibility (see otp.NormalizeSecret).
func NewAccount(issuer, label, secret string) Account {
	now := time.Now().UTC()
	return Account{
		ID:        uuid.NewString(),
		Issuer:    issuer,
		Label:     label,
		Secret:    secret,
		Algorithm: DefaultAlgorithm,
		Digits:    DefaultDigits,
		Period:    DefaultPeriod,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DedupKey identifies an account for backup merge purposes. Two accounts
// with the same secret and label are considered the same credential.
func (a Account) DedupKey() string {
	return a.Secret + a.Label
}

// ValidAlgorithm reports whether name is a supported HMAC algorithm.
// Matching is case-insensitive.
func ValidAlgorithm(name string) bool {
	switch strings.ToUpper(name) {
	case AlgorithmSHA1, AlgorithmSHA256, AlgorithmSHA512:
		return true
	}
	return false
}

// Folder groups accounts for display. Deleting a folder never deletes its
// accounts; their FolderID is unset instead.
type Folder struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// NewFolder creates a folder with a fresh ID.
func NewFolder(name, color string) Folder {
	return Folder{
		ID:    uuid.NewString(),
		Name:  name,
		Color: color,
	}
}
