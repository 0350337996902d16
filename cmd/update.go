package cmd

import (
	"context"
	"fmt"
)

// UpdateOptions carries the fields to change; empty/zero values keep the
// stored ones.
type UpdateOptions struct {
	Issuer    string
	Label     string
	Secret    string
	Algorithm string
	Digits    int
	Period    int
}

// Update modifies an existing account by id.
func Update(ctx context.Context, id string, opts UpdateOptions) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	accounts, err := a.vault.Accounts()
	if err != nil {
		HandleError(err)
	}

	found := false
	for _, acc := range accounts {
		if acc.ID != id {
			continue
		}
		found = true

		if opts.Issuer != "" {
			acc.Issuer = opts.Issuer
		}
		if opts.Label != "" {
			acc.Label = opts.Label
		}
		if opts.Secret != "" {
			acc.Secret = opts.Secret
		}
		if opts.Algorithm != "" {
			acc.Algorithm = opts.Algorithm
		}
		if opts.Digits != 0 {
			acc.Digits = opts.Digits
		}
		if opts.Period != 0 {
			acc.Period = opts.Period
		}

		if err := a.vault.UpdateAccount(acc, pin); err != nil {
			HandleError(err)
		}
		fmt.Printf("updated: %s\n", displayName(acc))
		break
	}

	if !found {
		fmt.Printf("No account with id %s\n", id)
	}
}

// Reorder applies an explicit account ordering by id. Unknown ids are
// ignored; unmentioned accounts keep their relative order at the end.
func Reorder(ctx context.Context, ids []string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	if err := a.vault.ReorderAccounts(ids, pin); err != nil {
		HandleError(err)
	}
	fmt.Println("reordered")
}
