package cmd

import (
	"context"
	"fmt"
	"strconv"
)

// Status prints vault state without requiring a PIN.
func Status(ctx context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	fmt.Printf("State:        %s\n", a.vault.State())

	hasPin, err := a.vault.HasPIN()
	if err != nil {
		HandleError(err)
	}
	pinStatus := "none"
	switch {
	case hasPin && a.vault.PinEnabled():
		pinStatus = "enabled"
	case hasPin:
		pinStatus = "set but disabled"
	}
	fmt.Printf("PIN:          %s\n", pinStatus)
	fmt.Printf("Auto-lock:    %d minutes\n", a.vault.AutoLockMinutes())
	fmt.Printf("Encryption:   AES-256-GCM, PBKDF2-SHA256\n")

	if modified, err := a.db.GetModified(); err == nil && !modified.IsZero() {
		fmt.Printf("Last saved:   %s\n", modified.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Database:     %s\n", a.cfg.DatabasePath())
}

// Prefs gets or sets a preference. With no value the current one is
// printed.
func Prefs(ctx context.Context, key, value string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	switch key {
	case "autolock":
		if value == "" {
			fmt.Println(a.vault.AutoLockMinutes())
			return
		}
		minutes, err := strconv.Atoi(value)
		if err != nil || minutes <= 0 {
			HandleError(fmt.Errorf("autolock needs a positive number of minutes"))
		}
		if err := a.vault.SetAutoLockMinutes(minutes); err != nil {
			HandleError(err)
		}
	case "accent":
		if value == "" {
			fmt.Println(a.vault.AccentColor())
			return
		}
		if err := a.vault.SetAccentColor(value); err != nil {
			HandleError(err)
		}
	default:
		HandleError(fmt.Errorf("unknown preference %q (autolock, accent)", key))
	}
	fmt.Printf("%s = %s\n", key, value)
}
