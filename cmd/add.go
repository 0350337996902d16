package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/otpvault/internal/models"
)

// AddOptions carries the fields for a manually entered account.
type AddOptions struct {
	Issuer    string
	Label     string
	Secret    string
	Algorithm string
	Digits    int
	Period    int
	Folder    string // folder name, resolved to an id if it exists
}

// Add creates an account from explicit fields. An empty secret triggers a
// no-echo prompt.
func Add(ctx context.Context, opts AddOptions) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	if opts.Secret == "" {
		opts.Secret, err = readSecret("Secret (Base32): ")
		if err != nil {
			HandleError(err)
		}
	}

	acc := models.NewAccount(opts.Issuer, opts.Label, opts.Secret)
	if opts.Algorithm != "" {
		acc.Algorithm = opts.Algorithm
	}
	if opts.Digits != 0 {
		acc.Digits = opts.Digits
	}
	if opts.Period != 0 {
		acc.Period = opts.Period
	}

	if opts.Folder != "" {
		folders, err := a.vault.Folders()
		if err != nil {
			HandleError(err)
		}
		for _, f := range folders {
			if f.Name == opts.Folder {
				acc.FolderID = f.ID
				break
			}
		}
		if acc.FolderID == "" {
			fmt.Printf("warning: folder %q does not exist, account left uncategorized\n", opts.Folder)
		}
	}

	added, err := a.vault.AddAccount(acc, pin)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("added: %s (%s)\n", displayName(added), added.ID)
}

// AddURI creates an account from a raw otpauth:// provisioning URI, the
// same record a QR scan would produce.
func AddURI(ctx context.Context, uri string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	added, err := a.vault.AddFromURI(uri, pin)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("added: %s (%s)\n", displayName(added), added.ID)
}

// displayName renders "Issuer (label)" with sensible fallbacks.
func displayName(acc models.Account) string {
	switch {
	case acc.Issuer != "" && acc.Label != "":
		return fmt.Sprintf("%s (%s)", acc.Issuer, acc.Label)
	case acc.Issuer != "":
		return acc.Issuer
	case acc.Label != "":
		return acc.Label
	}
	return acc.ID
}
