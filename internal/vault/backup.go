package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/illarion/otpvault/internal/crypto"
	"github.com/illarion/otpvault/internal/models"
	"github.com/illarion/otpvault/internal/otp"
)

const (
	// BackupApp is the application tag stamped into every backup.
	BackupApp = "otpvault"
	// BackupVersion is the backup wire format version.
	BackupVersion = "1.0.0"
)

// ErrBadBackupFormat covers every malformed-backup case: wrong application
// tag, missing fields, non-array payload. Import is aborted entirely; no
// partial merge happens.
var ErrBadBackupFormat = errors.New("malformed backup payload")

// Backup is the export wire format. It round-trips bit-compatibly through
// JSON.
type Backup struct {
	App          string        `json:"app"`
	Version      string        `json:"version"`
	ExportedAt   time.Time     `json:"exportedAt"`
	AccountCount int           `json:"accountCount"`
	Encrypted    crypto.Bundle `json:"encrypted"`
}

// ImportResult reports how many incoming accounts survived the dedup
// merge out of the total the backup carried.
type ImportResult struct {
	Imported int
	Total    int
}

// ExportBackup serializes the full account list, encrypts it under the
// export password (which may differ from the live vault password) and
// wraps it with the application tag, version, timestamp and count.
func (s *Store) ExportBackup(exportPin string) ([]byte, error) {
	accounts, err := s.Accounts()
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.Account{}
	}

	plaintext, err := json.Marshal(accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize accounts: %w", err)
	}
	defer crypto.ClearBytes(plaintext)

	bundle, err := s.engine.Encrypt(plaintext, crypto.ContextFor(exportPin))
	if err != nil {
		return nil, err
	}

	backup := Backup{
		App:          BackupApp,
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		AccountCount: len(accounts),
		Encrypted:    bundle,
	}
	return json.MarshalIndent(backup, "", "  ")
}

// ImportBackup validates the application tag, decrypts the inner bundle
// with importPin, and merges the accounts into the vault, saving under
// vaultPin. Incoming accounts whose dedup key (secret+label) already
// exists are dropped; survivors get fresh ids.
func (s *Store) ImportBackup(data []byte, importPin, vaultPin string) (ImportResult, error) {
	incoming, err := s.decodeBackup(data, importPin)
	if err != nil {
		return ImportResult{}, err
	}
	return s.merge(incoming, vaultPin)
}

// RestorePlain merges accounts from an unencrypted source (for example a
// plaintext export from another app) using the same dedup merge, skipping
// the decryption step.
func (s *Store) RestorePlain(incoming []models.Account, vaultPin string) (ImportResult, error) {
	return s.merge(incoming, vaultPin)
}

// DiffBackup decrypts a backup and renders a unified diff between the
// backup's account listing and the current vault's, without modifying
// either. Useful to preview what an import would bring in.
func (s *Store) DiffBackup(data []byte, importPin string) (string, error) {
	incoming, err := s.decodeBackup(data, importPin)
	if err != nil {
		return "", err
	}
	current, err := s.Accounts()
	if err != nil {
		return "", err
	}

	backupText := accountListing(incoming)
	vaultText := accountListing(current)
	if backupText == vaultText {
		return "", nil
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(vaultText, backupText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(vaultText, diffs)
	if len(patches) == 0 {
		return "", nil
	}

	var result strings.Builder
	result.WriteString("--- vault\n")
	result.WriteString("+++ backup\n")
	result.WriteString(dmp.PatchToText(patches))
	return result.String(), nil
}

// decodeBackup validates the envelope and decrypts the inner array.
func (s *Store) decodeBackup(data []byte, importPin string) ([]models.Account, error) {
	var backup Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return nil, ErrBadBackupFormat
	}
	if backup.App != BackupApp {
		return nil, ErrBadBackupFormat
	}

	plaintext, err := s.engine.Decrypt(backup.Encrypted, crypto.ContextFor(importPin))
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(plaintext)

	var incoming []models.Account
	if err := json.Unmarshal(plaintext, &incoming); err != nil {
		return nil, ErrBadBackupFormat
	}
	return incoming, nil
}

// merge appends incoming accounts that are not already present, keyed by
// secret+label. Secrets are normalized before the dedup key is computed,
// so a differently formatted rendering of a stored credential is still a
// duplicate and raw user formatting never persists. Entries with invalid
// secrets or field values are skipped, not imported. Existing entries are
// left untouched; survivors are assigned fresh ids so imported ids can
// never collide.
func (s *Store) merge(incoming []models.Account, vaultPin string) (ImportResult, error) {
	result := ImportResult{Total: len(incoming)}

	err := s.mutate(vaultPin, func(p *payload) error {
		existing := make(map[string]bool, len(p.Accounts))
		for _, a := range p.Accounts {
			existing[a.DedupKey()] = true
		}

		now := time.Now().UTC()
		for _, a := range incoming {
			if !otp.IsValidSecret(a.Secret) {
				continue
			}
			a.Secret = otp.NormalizeSecret(a.Secret)

			a, err := normalizeAccount(a)
			if err != nil {
				continue
			}
			if existing[a.DedupKey()] {
				continue
			}

			a.ID = uuid.NewString()
			a.UpdatedAt = now
			if a.CreatedAt.IsZero() {
				a.CreatedAt = now
			}
			p.Accounts = append(p.Accounts, a)
			existing[a.DedupKey()] = true
			result.Imported++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return result, nil
}

// accountListing renders one line per account for diff display. Secrets
// are never included.
func accountListing(accounts []models.Account) string {
	var b strings.Builder
	for _, a := range accounts {
		fmt.Fprintf(&b, "%s:%s %s %dd %ds\n", a.Issuer, a.Label, a.Algorithm, a.Digits, a.Period)
	}
	return b.String()
}
