package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/otpvault/internal/otpauth"
	"github.com/illarion/otpvault/internal/qr"
)

// QR renders an account's provisioning URI as a QR code, to the terminal
// or as a PNG file, for re-enrollment into another authenticator.
func QR(ctx context.Context, id, pngPath string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	if _, err := a.unlock(); err != nil {
		HandleError(err)
	}

	accounts, err := a.vault.Accounts()
	if err != nil {
		HandleError(err)
	}

	for _, acc := range accounts {
		if acc.ID != id {
			continue
		}

		uri := otpauth.Generate(otpauth.Credential{
			Type:      otpauth.TypeTOTP,
			Issuer:    acc.Issuer,
			Account:   acc.Label,
			Secret:    acc.Secret,
			Algorithm: acc.Algorithm,
			Digits:    acc.Digits,
			Period:    acc.Period,
		})

		if pngPath != "" {
			png, err := qr.GeneratePNG(uri, 0)
			if err != nil {
				HandleError(err)
			}
			if err := os.WriteFile(pngPath, png, 0600); err != nil {
				HandleError(fmt.Errorf("failed to write PNG: %w", err))
			}
			fmt.Printf("wrote %s\n", pngPath)
			return
		}

		art, err := qr.GenerateTerminal(uri)
		if err != nil {
			HandleError(err)
		}
		fmt.Println(art)
		return
	}

	fmt.Printf("No account with id %s\n", id)
}
