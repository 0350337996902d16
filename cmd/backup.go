package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/illarion/otpvault/internal/models"
)

// Export writes an encrypted backup of all accounts to path. The export
// password may differ from the vault PIN; empty uses the device default.
func Export(ctx context.Context, path string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	if _, err := a.unlock(); err != nil {
		HandleError(err)
	}

	exportPin, err := readSecretConfirm("Export password (empty for device key): ", "Confirm: ")
	if err != nil {
		HandleError(err)
	}

	data, err := a.vault.ExportBackup(exportPin)
	if err != nil {
		HandleError(err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		HandleError(fmt.Errorf("failed to write backup: %w", err))
	}
	fmt.Printf("exported to %s\n", path)
}

// Import merges an encrypted backup file into the vault. Duplicates
// (same secret and label) are skipped.
func Import(ctx context.Context, path string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		HandleError(fmt.Errorf("failed to read backup: %w", err))
	}

	importPin, err := readSecret("Backup password (empty for device key): ")
	if err != nil {
		HandleError(err)
	}

	result, err := a.vault.ImportBackup(data, importPin, pin)
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("imported %d of %d accounts (%d duplicates skipped)\n",
		result.Imported, result.Total, result.Total-result.Imported)
}

// Restore merges a plaintext JSON account array (an export from another
// app, or a drive download) into the vault using the same dedup merge.
func Restore(ctx context.Context, path string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		HandleError(fmt.Errorf("failed to read file: %w", err))
	}

	var incoming []models.Account
	if err := json.Unmarshal(data, &incoming); err != nil {
		HandleError(fmt.Errorf("not a JSON account array: %w", err))
	}

	result, err := a.vault.RestorePlain(incoming, pin)
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("restored %d of %d accounts (%d duplicates skipped)\n",
		result.Imported, result.Total, result.Total-result.Imported)
}

// Diff shows what an encrypted backup would change, without importing.
func Diff(ctx context.Context, path string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	if _, err := a.unlock(); err != nil {
		HandleError(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		HandleError(fmt.Errorf("failed to read backup: %w", err))
	}

	importPin, err := readSecret("Backup password (empty for device key): ")
	if err != nil {
		HandleError(err)
	}

	diff, err := a.vault.DiffBackup(data, importPin)
	if err != nil {
		HandleError(err)
	}
	if diff == "" {
		fmt.Println("No differences")
		return
	}
	fmt.Print(diff)
}
