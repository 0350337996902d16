package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// Remove deletes one account by id.
func Remove(ctx context.Context, id string) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	if err := a.vault.DeleteAccount(id, pin); err != nil {
		HandleError(err)
	}
	fmt.Printf("removed: %s\n", id)
}

// RemoveAll empties the account list after confirmation.
func RemoveAll(ctx context.Context, force bool) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	pin, err := a.unlock()
	if err != nil {
		HandleError(err)
	}

	if !force {
		fmt.Print("Delete ALL accounts? [y/N]: ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("aborted")
			return
		}
	}

	if err := a.vault.DeleteAllAccounts(pin); err != nil {
		HandleError(err)
	}
	fmt.Println("all accounts deleted")
}

// Wipe erases every trace of the vault: accounts, PIN record,
// preferences. Irreversible, gated behind a typed confirmation.
func Wipe(ctx context.Context) {
	a, err := openApp()
	if err != nil {
		HandleError(err)
	}
	defer a.Close()

	fmt.Println("This permanently destroys the vault, the PIN and all preferences.")
	fmt.Print("Type WIPE to confirm: ")
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if strings.TrimSpace(answer) != "WIPE" {
		fmt.Println("aborted")
		return
	}

	if err := a.vault.WipeAllData(); err != nil {
		HandleError(err)
	}
	fmt.Println("vault wiped")
}
