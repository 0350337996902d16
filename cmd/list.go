package cmd

import (
	"context"
	"fmt"
)

// List prints the account list, optionally filtered by a case-insensitive
// substring query over issuer and label.
func List(ctx context.Context, query string) {
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
		if query == "" {
			fmt.Println("No accounts in vault")
		} else {
			fmt.Println("No matching accounts")
		}
		return
	}

	folders, err := a.vault.Folders()
	if err != nil {
		HandleError(err)
	}
	folderNames := make(map[string]string, len(folders))
	for _, f := range folders {
		folderNames[f.ID] = f.Name
	}

	for _, acc := range accounts {
		folder := folderNames[acc.FolderID]
		if folder == "" {
			folder = "-"
		}
		fmt.Printf("%-36s  %-30s  %-6s %dd/%ds  %s\n",
			acc.ID, displayName(acc), acc.Algorithm, acc.Digits, acc.Period, folder)
	}
}
