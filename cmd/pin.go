package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/otpvault/internal/keyring"
	"github.com/illarion/otpvault/internal/vault"
)

// PinSet sets or changes the vault PIN and re-encrypts the vault under it.
func PinSet(ctx context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	newPin, err := readSecretConfirm("New PIN: ", "Confirm PIN: ")
	if err != nil {
		HandleError(err)
	}
	if newPin == "" {
		HandleError(fmt.Errorf("PIN must not be empty"))
	}

	if err := a.vault.SetupPIN(newPin, pin); err != nil {
		HandleError(err)
	}

	// A remembered PIN in the keyring is now stale.
	if keyring.HasPIN(a.vault.InstallID()) {
		if err := keyring.SavePIN(a.vault.InstallID(), newPin); err != nil {
			a.log.Warn("failed to update keyring", "err", err)
		}
	}

	fmt.Println("PIN set; vault re-encrypted")
}

// PinEnable turns PIN protection back on using the kept verification
// record, re-encrypting the vault under the PIN.
func PinEnable(ctx context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	hasPin, err := a.vault.HasPIN()
	if err != nil {
		HandleError(err)
	}
	if !hasPin {
		HandleError(vault.ErrPINNotSet)
	}
	if a.vault.PinEnabled() {
		fmt.Println("PIN protection already enabled")
		return
	}

	// While disabled the vault is encrypted under the device key.
	if _, err := a.vault.Unlock(""); err != nil {
		HandleError(err)
	}

	pin, err := readSecret("Enter PIN: ")
	if err != nil {
		HandleError(err)
	}
	if err := a.vault.EnablePIN(pin); err != nil {
		HandleError(err)
	}
	fmt.Println("PIN protection enabled; vault re-encrypted")
}

// PinDisable turns PIN protection off. The vault stays encrypted under
// the device default key; the PIN record is kept but inert.
func PinDisable(ctx context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	if err := a.vault.DisablePIN(pin); err != nil {
		HandleError(err)
	}
	fmt.Println("PIN protection disabled; vault re-encrypted under device key")
}

// PinRemove disables PIN protection and deletes the verification record.
func PinRemove(ctx context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	if err := a.vault.RemovePIN(pin); err != nil {
		HandleError(err)
	}
	if keyring.HasPIN(a.vault.InstallID()) {
		_ = keyring.DeletePIN(a.vault.InstallID())
	}
	fmt.Println("PIN removed")
}

// PinRemember stores the PIN in the OS keyring.
func PinRemember(ctx context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	if !a.vault.PinEnabled() {
		HandleError(fmt.Errorf("PIN protection is not enabled"))
	}

	pin, err := readSecret("Enter PIN: ")
	if err != nil {
		HandleError(err)
	}
	if err := a.vault.VerifyPIN(pin); err != nil {
		HandleError(err)
	}

	if err := keyring.SavePIN(a.vault.InstallID(), pin); err != nil {
		HandleError(fmt.Errorf("failed to store PIN in keyring: %w", err))
	}
	fmt.Println("PIN stored in OS keyring")
}

// PinForget removes the PIN from the OS keyring.
func PinForget(ctx context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	if !keyring.HasPIN(a.vault.InstallID()) {
		fmt.Println("No PIN stored in keyring")
		return
	}
	if err := keyring.DeletePIN(a.vault.InstallID()); err != nil {
		HandleError(err)
	}
	fmt.Println("PIN removed from OS keyring")
}
