package vault

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/illarion/otpvault/internal/crypto"
	"github.com/illarion/otpvault/internal/models"
)

func TestExportBackupEnvelope(t *testing.T) {
	s := unlockedStore(t)

	_, err := s.AddAccount(models.Account{Issuer: "GitHub", Label: "me", Secret: testSecret}, "")
	require.NoError(t, err)

	data, err := s.ExportBackup("backup-pass")
	require.NoError(t, err)

	var backup Backup
	require.NoError(t, json.Unmarshal(data, &backup))
	require.Equal(t, BackupApp, backup.App)
	require.Equal(t, BackupVersion, backup.Version)
	require.Equal(t, 1, backup.AccountCount)
	require.False(t, backup.ExportedAt.IsZero())
	require.NotEmpty(t, backup.Encrypted.Ciphertext)

	// Secrets never appear in the clear anywhere in the file.
	require.NotContains(t, string(data), testSecret)
}

func TestImportBackupRoundTrip(t *testing.T) {
	src := unlockedStore(t)
	_, err := src.AddAccount(models.Account{Issuer: "GitHub", Label: "me", Secret: testSecret}, "")
	require.NoError(t, err)
	_, err = src.AddAccount(models.Account{Issuer: "Google", Label: "me", Secret: testSecret + "AA"}, "")
	require.NoError(t, err)

	data, err := src.ExportBackup("backup-pass")
	require.NoError(t, err)

	dst := unlockedStore(t)
	result, err := dst.ImportBackup(data, "backup-pass", "")
	require.NoError(t, err)
	require.Equal(t, ImportResult{Imported: 2, Total: 2}, result)

	accounts, err := dst.Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, testSecret, accounts[0].Secret)
}

func TestImportBackupWrongPassword(t *testing.T) {
	src := unlockedStore(t)
	_, err := src.AddAccount(models.Account{Issuer: "X", Label: "y", Secret: testSecret}, "")
	require.NoError(t, err)
	data, err := src.ExportBackup("right")
	require.NoError(t, err)

	dst := unlockedStore(t)
	_, err = dst.ImportBackup(data, "wrong", "")
	require.ErrorIs(t, err, crypto.ErrAuthenticationFailed)

	accounts, err := dst.Accounts()
	require.NoError(t, err)
	require.Empty(t, accounts)
}

func TestImportBackupDedup(t *testing.T) {
	src := unlockedStore(t)
	_, err := src.AddAccount(models.Account{Issuer: "GitHub", Label: "me", Secret: testSecret}, "")
	require.NoError(t, err)
	data, err := src.ExportBackup("pass")
	require.NoError(t, err)

	dst := unlockedStore(t)
	existing, err := dst.AddAccount(models.Account{Issuer: "GitHub", Label: "me", Secret: testSecret}, "")
	require.NoError(t, err)

	// Same secret+label already present: nothing is imported and the
	// existing entry is untouched.
	result, err := dst.ImportBackup(data, "pass", "")
	require.NoError(t, err)
	require.Equal(t, ImportResult{Imported: 0, Total: 1}, result)

	accounts, err := dst.Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, existing.ID, accounts[0].ID)
}

func TestImportBackupFreshIDs(t *testing.T) {
	src := unlockedStore(t)
	acc, err := src.AddAccount(models.Account{Issuer: "GitHub", Label: "me", Secret: testSecret}, "")
	require.NoError(t, err)
	data, err := src.ExportBackup("pass")
	require.NoError(t, err)

	dst := unlockedStore(t)
	_, err = dst.ImportBackup(data, "pass", "")
	require.NoError(t, err)

	accounts, err := dst.Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.NotEqual(t, acc.ID, accounts[0].ID)
}

func TestImportBackupBadFormat(t *testing.T) {
	s := unlockedStore(t)

	_, err := s.ImportBackup([]byte("not json"), "pass", "")
	require.ErrorIs(t, err, ErrBadBackupFormat)

	wrongApp, err := json.Marshal(Backup{App: "other-app", Version: BackupVersion})
	require.NoError(t, err)
	_, err = s.ImportBackup(wrongApp, "pass", "")
	require.ErrorIs(t, err, ErrBadBackupFormat)
}

func TestRestorePlain(t *testing.T) {
	s := unlockedStore(t)

	incoming := []models.Account{
		{Issuer: "GitHub", Label: "me", Secret: testSecret},
		{Issuer: "Google", Label: "me", Secret: testSecret + "AA"},
	}
	result, err := s.RestorePlain(incoming, "")
	require.NoError(t, err)
	require.Equal(t, ImportResult{Imported: 2, Total: 2}, result)

	accounts, err := s.Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	// Defaults are filled in for sparse imports.
	require.Equal(t, "SHA1", accounts[0].Algorithm)
	require.Equal(t, 6, accounts[0].Digits)
	require.Equal(t, 30, accounts[0].Period)
	require.NotEmpty(t, accounts[0].ID)
}

func TestRestorePlainNormalizesSecrets(t *testing.T) {
	s := unlockedStore(t)

	result, err := s.RestorePlain([]models.Account{
		{Issuer: "GitHub", Label: "me", Secret: "jbsw y3dp ehpk 3pxp"},
	}, "")
	require.NoError(t, err)
	require.Equal(t, ImportResult{Imported: 1, Total: 1}, result)

	accounts, err := s.Accounts()
	require.NoError(t, err)
	require.Equal(t, testSecret, accounts[0].Secret)
}

func TestRestorePlainDedupsAcrossFormatting(t *testing.T) {
	s := unlockedStore(t)

	existing, err := s.AddAccount(models.Account{Issuer: "GitHub", Label: "me", Secret: testSecret}, "")
	require.NoError(t, err)

	// A lowercase rendering of a stored credential is the same
	// credential, not a new one.
	result, err := s.RestorePlain([]models.Account{
		{Issuer: "GitHub", Label: "me", Secret: "jbswy3dpehpk3pxp"},
	}, "")
	require.NoError(t, err)
	require.Equal(t, ImportResult{Imported: 0, Total: 1}, result)

	accounts, err := s.Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, existing.ID, accounts[0].ID)
	require.Equal(t, testSecret, accounts[0].Secret)
}

func TestRestorePlainSkipsInvalidEntries(t *testing.T) {
	s := unlockedStore(t)

	result, err := s.RestorePlain([]models.Account{
		{Issuer: "BadSecret", Label: "a", Secret: "not!valid"},
		{Issuer: "Good", Label: "b", Secret: testSecret},
		{Issuer: "BadAlgorithm", Label: "c", Secret: testSecret + "AA", Algorithm: "MD5"},
		{Issuer: "BadDigits", Label: "d", Secret: testSecret + "BB", Digits: -5},
	}, "")
	require.NoError(t, err)
	require.Equal(t, ImportResult{Imported: 1, Total: 4}, result)

	accounts, err := s.Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, "Good", accounts[0].Issuer)
}

func TestDiffBackup(t *testing.T) {
	src := unlockedStore(t)
	_, err := src.AddAccount(models.Account{Issuer: "GitHub", Label: "me", Secret: testSecret}, "")
	require.NoError(t, err)
	_, err = src.AddAccount(models.Account{Issuer: "Google", Label: "me", Secret: testSecret + "AA"}, "")
	require.NoError(t, err)
	data, err := src.ExportBackup("pass")
	require.NoError(t, err)

	dst := unlockedStore(t)
	_, err = dst.AddAccount(models.Account{Issuer: "GitHub", Label: "me", Secret: testSecret}, "")
	require.NoError(t, err)

	diff, err := dst.DiffBackup(data, "pass")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(diff, "--- vault\n+++ backup\n"))
	require.Contains(t, diff, "Google")
	require.NotContains(t, diff, testSecret)
}

func TestDiffBackupIdentical(t *testing.T) {
	s := unlockedStore(t)
	_, err := s.AddAccount(models.Account{Issuer: "GitHub", Label: "me", Secret: testSecret}, "")
	require.NoError(t, err)
	data, err := s.ExportBackup("pass")
	require.NoError(t, err)

	diff, err := s.DiffBackup(data, "pass")
	require.NoError(t, err)
	require.Empty(t, diff)
}
