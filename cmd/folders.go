package cmd

import (
	"context"
	"fmt"
)

// FolderAdd creates a folder.
func FolderAdd(ctx context.Context, name, color string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	folder, err := a.vault.AddFolder(name, color, pin)
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("added folder: %s (%s)\n", folder.Name, folder.ID)
}

// FolderRemove deletes a folder. Its accounts survive as uncategorized.
func FolderRemove(ctx context.Context, id string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	if err := a.vault.DeleteFolder(id, pin); err != nil {
		HandleError(err)
	}
	fmt.Printf("removed folder: %s (accounts kept)\n", id)
}

// FolderList prints all folders with their account counts.
func FolderList(ctx context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	if _, err := a.unlock(); err != nil {
		HandleError(err)
	}

	folders, err := a.vault.Folders()
	if err != nil {
		HandleError(err)
	}
	if len(folders) == 0 {
		fmt.Println("No folders")
		return
	}

	accounts, err := a.vault.Accounts()
	if err != nil {
		HandleError(err)
	}
	counts := make(map[string]int)
	for _, acc := range accounts {
		counts[acc.FolderID]++
	}

	for _, f := range folders {
		fmt.Printf("%-36s  %-20s  %d accounts\n", f.ID, f.Name, counts[f.ID])
	}
}

// Move assigns an account to a folder, or to uncategorized when folderID
// is empty.
func Move(ctx context.Context, accountID, folderID string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	if err := a.vault.MoveAccountToFolder(accountID, folderID, pin); err != nil {
		HandleError(err)
	}
	if folderID == "" {
		fmt.Printf("moved %s to uncategorized\n", accountID)
	} else {
		fmt.Printf("moved %s to folder %s\n", accountID, folderID)
	}
}
