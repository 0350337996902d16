package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/otpvault/internal/vault"
)

// Init creates the vault database and writes the initial encrypted blob,
// optionally protected by a PIN. Running it on an existing vault is a
// no-op.
func Init(ctx context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	if a.vault.State() != vault.StateUninitialized {
		fmt.Printf("Vault already initialized at %s\n", a.cfg.DatabasePath())
		return
	}

	if _, err := a.vault.Unlock(""); err != nil {
		HandleError(err)
	}

	pin, err := readSecretConfirm("PIN (empty for none): ", "Confirm PIN: ")
	if err != nil {
		HandleError(err)
	}

	if pin == "" {
		if err := a.vault.Flush(""); err != nil {
			HandleError(err)
		}
		fmt.Printf("Vault created at %s (device-key encryption)\n", a.cfg.DatabasePath())
		fmt.Println("Run 'otpvault pin set' to protect it with a PIN")
		return
	}

	if err := a.vault.SetupPIN(pin, ""); err != nil {
		HandleError(err)
	}
	fmt.Printf("Vault created at %s, encrypted under your PIN\n", a.cfg.DatabasePath())
}
