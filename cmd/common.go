package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/illarion/otpvault/internal/config"
	"github.com/illarion/otpvault/internal/crypto"
	"github.com/illarion/otpvault/internal/keyring"
	"github.com/illarion/otpvault/internal/logging"
	"github.com/illarion/otpvault/internal/otp"
	"github.com/illarion/otpvault/internal/storage"
	"github.com/illarion/otpvault/internal/vault"
)

// app bundles everything a command needs: config, logger, the open
// database and the vault store over it.
type app struct {
	cfg   config.Config
	log   *slog.Logger
	db    *storage.Store
	vault *vault.Store
	codes *otp.Engine
}

// openApp loads config, opens (creating if needed) the vault database and
// builds the vault store. Callers must Close.
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := os.MkdirAll(cfg.Home, 0700); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", cfg.Home, err)
	}

	db, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	initialized, err := db.IsInitialized()
	if err != nil {
		db.Close()
		return nil, err
	}
	if !initialized {
		if err := db.Initialize(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}

	v, err := vault.New(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{
		cfg:   cfg,
		log:   logging.New(cfg.LogLevel),
		db:    db,
		vault: v,
		codes: otp.NewEngine(),
	}, nil
}

func (a *app) Close() {
	a.vault.Lock()
	if err := a.db.Close(); err != nil {
		a.log.Error("failed to close database", "err", err)
	}
}

// resolvePIN determines the vault PIN: the environment variable wins,
// then the OS keyring, then an interactive prompt. When PIN protection is
// disabled the device default key applies and no PIN is needed.
func (a *app) resolvePIN() (string, error) {
	if !a.vault.PinEnabled() {
		return "", nil
	}
	if a.cfg.PIN != "" {
		return a.cfg.PIN, nil
	}
	if pin, err := keyring.GetPIN(a.vault.InstallID()); err == nil {
		a.log.Debug("using PIN from OS keyring")
		return pin, nil
	}
	return readSecret("Enter PIN: ")
}

// unlock resolves the PIN and unlocks the vault, returning the PIN for
// subsequent saves.
func (a *app) unlock() (string, error) {
	pin, err := a.resolvePIN()
	if err != nil {
		return "", err
	}
	if _, err := a.vault.Unlock(pin); err != nil {
		return "", err
	}
	return pin, nil
}

// readSecret reads a line from the terminal without echoing
func readSecret(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	s := string(b)
	crypto.ClearBytes(b)
	return s, nil
}

// readSecretConfirm reads a secret twice and ensures both entries match
func readSecretConfirm(prompt, confirmPrompt string) (string, error) {
	first, err := readSecret(prompt)
	if err != nil {
		return "", err
	}
	second, err := readSecret(confirmPrompt)
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("entries do not match")
	}
	return first, nil
}

// HandleError prints a friendly message for known errors and exits
func HandleError(err error) {
	switch {
	case errors.Is(err, crypto.ErrAuthenticationFailed):
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	case errors.Is(err, vault.ErrLocked):
		fmt.Fprintf(os.Stderr, "Error: vault is locked\n")
	case errors.Is(err, vault.ErrAccountNotFound):
		fmt.Fprintf(os.Stderr, "Error: no such account\n")
	case errors.Is(err, vault.ErrFolderNotFound):
		fmt.Fprintf(os.Stderr, "Error: no such folder\n")
	case errors.Is(err, vault.ErrPINMismatch):
		fmt.Fprintf(os.Stderr, "Error: incorrect PIN\n")
	case errors.Is(err, vault.ErrPINNotSet):
		fmt.Fprintf(os.Stderr, "Error: no PIN has been set\n")
		fmt.Fprintf(os.Stderr, "Run 'otpvault pin set' first\n")
	case errors.Is(err, otp.ErrInvalidSecret):
		fmt.Fprintf(os.Stderr, "Error: invalid secret (Base32, at least 8 characters)\n")
	case errors.Is(err, vault.ErrBadBackupFormat):
		fmt.Fprintf(os.Stderr, "Error: not a valid otpvault backup\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}
