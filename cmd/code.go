package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/otpvault/internal/otp"
)

// Code prints live codes with their remaining validity. With a query only
// matching accounts are shown; without one, all of them.
func Code(ctx context.Context, query string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	if _, err := a.unlock(); err != nil {
		HandleError(err)
	}

	accounts, err := a.vault.SearchAccounts(query)
	if err != nil {
		HandleError(err)
	}
	if len(accounts) == 0 {
		fmt.Println("No matching accounts")
		return
	}

	for _, acc := range accounts {
		code, err := a.codes.GenerateCode(acc.Secret, otp.Options{
			Algorithm: acc.Algorithm,
			Digits:    acc.Digits,
			Period:    acc.Period,
		})
		if err != nil {
			fmt.Printf("%-30s  error: %v\n", displayName(acc), err)
			continue
		}
		remaining := a.codes.RemainingSeconds(acc.Period)
		fmt.Printf("%-30s  %s  (%ds left)\n", displayName(acc), otp.FormatDisplay(code), remaining)
	}
}

// Verify checks a token against an account's current code within the
// default drift window.
func Verify(ctx context.Context, query, token string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	if _, err := a.unlock(); err != nil {
		HandleError(err)
	}

	accounts, err := a.vault.SearchAccounts(query)
	if err != nil {
		HandleError(err)
	}
	if len(accounts) != 1 {
		HandleError(fmt.Errorf("query %q matches %d accounts, need exactly one", query, len(accounts)))
	}

	acc := accounts[0]
	ok, err := a.codes.VerifyCode(token, acc.Secret, otp.Options{
		Algorithm: acc.Algorithm,
		Digits:    acc.Digits,
		Period:    acc.Period,
	})
	if err != nil {
		HandleError(err)
	}
	if ok {
		fmt.Println("valid")
		return
	}
	fmt.Println("invalid")
}
