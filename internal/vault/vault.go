package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/illarion/otpvault/internal/crypto"
	"github.com/illarion/otpvault/internal/models"
	"github.com/illarion/otpvault/internal/otp"
	"github.com/illarion/otpvault/internal/otpauth"
	"github.com/illarion/otpvault/internal/session"
	"github.com/illarion/otpvault/internal/storage"
)

// sessionKey is the fixed key the decrypted payload lives under in the
// volatile session tier.
const sessionKey = "accounts"

var (
	ErrLocked          = errors.New("vault is locked")
	ErrAccountNotFound = errors.New("account not found")
	ErrFolderNotFound  = errors.New("folder not found")
	ErrPINNotSet       = errors.New("no PIN has been set")
	ErrPINMismatch     = errors.New("incorrect PIN")
)

// State is the vault lifecycle state.
type State int

const (
	StateUninitialized State = iota // no durable vault, no PIN
	StateLocked                     // durable state exists, no session state
	StateUnlocked                   // session state populated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	}
	return "unknown"
}

// payload is the plaintext form of the vault: the full account list plus
// folders. It is serialized as one JSON document, encrypted wholesale on
// every mutation.
type payload struct {
	Accounts []models.Account `json:"accounts"`
	Folders  []models.Folder  `json:"folders,omitempty"`
}

// Store orchestrates the crypto engine, the durable tier and the session
// tier. Every mutating operation is a single transactional method holding
// the store mutex: read session, mutate, persist, then write session.
// Session state is written only after the durable save succeeds, so a
// failed save rolls the mutation back.
type Store struct {
	mu        sync.Mutex
	db        *storage.Store
	sess      *session.Store
	engine    *crypto.Engine
	installID string
	state     State
}

// New builds a vault store over an opened database. The initial state is
// Locked when any durable vault or PIN record exists, else Uninitialized.
func New(db *storage.Store) (*Store, error) {
	installID, err := db.GetOrCreateInstallID()
	if err != nil {
		return nil, fmt.Errorf("failed to read install id: %w", err)
	}

	hasVault, err := db.HasVault()
	if err != nil {
		return nil, err
	}
	hasPin, err := db.HasPinRecord()
	if err != nil {
		return nil, err
	}

	state := StateUninitialized
	if hasVault || hasPin {
		state = StateLocked
	}

	return &Store{
		db:        db,
		sess:      session.New(),
		engine:    crypto.NewEngine(installID),
		installID: installID,
		state:     state,
	}, nil
}

// Engine exposes the crypto engine for PIN verification paths.
func (s *Store) Engine() *crypto.Engine {
	return s.engine
}

// InstallID returns the stable per-install identifier. Used as the OS
// keyring key for the remember-PIN feature.
func (s *Store) InstallID() string {
	return s.installID
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Unlock decrypts the durable vault with pin (empty pin selects the
// device default key) and populates session state. A vault that has never
// been saved unlocks to an empty account list: the first-run case. On a
// decryption failure the vault stays Locked and the crypto error is
// surfaced unchanged.
func (s *Store) Unlock(pin string) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hasVault, err := s.db.HasVault()
	if err != nil {
		return nil, err
	}

	var p payload
	if hasVault {
		data, err := s.db.GetVault()
		if err != nil {
			return nil, err
		}
		var bundle crypto.Bundle
		if err := json.Unmarshal(data, &bundle); err != nil {
			return nil, crypto.ErrAuthenticationFailed
		}
		plaintext, err := s.engine.Decrypt(bundle, crypto.ContextFor(pin))
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(plaintext, &p); err != nil {
			return nil, crypto.ErrAuthenticationFailed
		}
		crypto.ClearBytes(plaintext)
	}

	if err := s.writeSession(p); err != nil {
		return nil, err
	}
	s.state = StateUnlocked
	return append([]models.Account(nil), p.Accounts...), nil
}

// Lock clears session state unconditionally. The durable blob is already
// current from the last mutation, so nothing is re-encrypted here.
func (s *Store) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess.Clear()
	if s.state == StateUnlocked {
		s.state = StateLocked
	}
}

// Accounts returns the decrypted account list from session state.
func (s *Store) Accounts() ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.readSession()
	if err != nil {
		return nil, err
	}
	return p.Accounts, nil
}

// Folders returns the folder list from session state.
func (s *Store) Folders() ([]models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.readSession()
	if err != nil {
		return nil, err
	}
	return p.Folders, nil
}

// SearchAccounts filters accounts by case-insensitive substring match over
// issuer and label. A blank query returns the unfiltered list.
func (s *Store) SearchAccounts(query string) ([]models.Account, error) {
	accounts, err := s.Accounts()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return accounts, nil
	}

	var matched []models.Account
	for _, a := range accounts {
		if strings.Contains(strings.ToLower(a.Issuer), query) ||
			strings.Contains(strings.ToLower(a.Label), query) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

// AddAccount validates and normalizes the secret, assigns a fresh id and
// appends the account. The updated list is re-encrypted and saved before
// the session copy is replaced.
func (s *Store) AddAccount(acc models.Account, pin string) (models.Account, error) {
	if !otp.IsValidSecret(acc.Secret) {
		return models.Account{}, otp.ErrInvalidSecret
	}
	acc.Secret = otp.NormalizeSecret(acc.Secret)

	acc, err := normalizeAccount(acc)
	if err != nil {
		return models.Account{}, err
	}

	now := time.Now().UTC()
	acc.ID = uuid.NewString()
	acc.CreatedAt = now
	acc.UpdatedAt = now

	err = s.mutate(pin, func(p *payload) error {
		p.Accounts = append(p.Accounts, acc)
		return nil
	})
	if err != nil {
		return models.Account{}, err
	}
	return acc, nil
}

// AddFromURI parses an otpauth:// provisioning URI and adds the resulting
// account. This is the entry point the scanning adapters feed into.
func (s *Store) AddFromURI(uri, pin string) (models.Account, error) {
	cred, err := otpauth.Parse(uri)
	if err != nil {
		return models.Account{}, err
	}

	acc := models.NewAccount(cred.Issuer, cred.Account, cred.Secret)
	acc.Algorithm = cred.Algorithm
	acc.Digits = cred.Digits
	acc.Period = cred.Period
	return s.AddAccount(acc, pin)
}

// UpdateAccount replaces the stored account with the same id, subject to
// the same validation as AddAccount. Unknown ids fail with
// ErrAccountNotFound and write nothing.
func (s *Store) UpdateAccount(acc models.Account, pin string) error {
	if !otp.IsValidSecret(acc.Secret) {
		return otp.ErrInvalidSecret
	}
	acc.Secret = otp.NormalizeSecret(acc.Secret)

	acc, err := normalizeAccount(acc)
	if err != nil {
		return err
	}
	acc.UpdatedAt = time.Now().UTC()

	return s.mutate(pin, func(p *payload) error {
		for i := range p.Accounts {
			if p.Accounts[i].ID == acc.ID {
				acc.CreatedAt = p.Accounts[i].CreatedAt
				p.Accounts[i] = acc
				return nil
			}
		}
		return ErrAccountNotFound
	})
}

// DeleteAccount removes the account with the given id.
func (s *Store) DeleteAccount(id, pin string) error {
	return s.mutate(pin, func(p *payload) error {
		for i := range p.Accounts {
			if p.Accounts[i].ID == id {
				p.Accounts = append(p.Accounts[:i], p.Accounts[i+1:]...)
				return nil
			}
		}
		return ErrAccountNotFound
	})
}

// ReorderAccounts applies an explicit id ordering. Ids missing from the
// current list are ignored; accounts missing from ids keep their relative
// order at the end.
func (s *Store) ReorderAccounts(ids []string, pin string) error {
	return s.mutate(pin, func(p *payload) error {
		byID := make(map[string]models.Account, len(p.Accounts))
		for _, a := range p.Accounts {
			byID[a.ID] = a
		}

		reordered := make([]models.Account, 0, len(p.Accounts))
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if a, ok := byID[id]; ok && !seen[id] {
				reordered = append(reordered, a)
				seen[id] = true
			}
		}
		for _, a := range p.Accounts {
			if !seen[a.ID] {
				reordered = append(reordered, a)
			}
		}
		p.Accounts = reordered
		return nil
	})
}

// MoveAccountToFolder sets the account's folder. An empty folderID moves
// it to uncategorized; otherwise the folder must exist.
func (s *Store) MoveAccountToFolder(accountID, folderID, pin string) error {
	return s.mutate(pin, func(p *payload) error {
		if folderID != "" && !hasFolder(p.Folders, folderID) {
			return ErrFolderNotFound
		}
		for i := range p.Accounts {
			if p.Accounts[i].ID == accountID {
				p.Accounts[i].FolderID = folderID
				p.Accounts[i].UpdatedAt = time.Now().UTC()
				return nil
			}
		}
		return ErrAccountNotFound
	})
}

// AddFolder creates a folder.
func (s *Store) AddFolder(name, color, pin string) (models.Folder, error) {
	folder := models.NewFolder(name, color)
	err := s.mutate(pin, func(p *payload) error {
		p.Folders = append(p.Folders, folder)
		return nil
	})
	if err != nil {
		return models.Folder{}, err
	}
	return folder, nil
}

// DeleteFolder removes a folder and unsets FolderID on its accounts. The
// accounts themselves are never deleted.
func (s *Store) DeleteFolder(id, pin string) error {
	return s.mutate(pin, func(p *payload) error {
		if !hasFolder(p.Folders, id) {
			return ErrFolderNotFound
		}
		for i := range p.Folders {
			if p.Folders[i].ID == id {
				p.Folders = append(p.Folders[:i], p.Folders[i+1:]...)
				break
			}
		}
		for i := range p.Accounts {
			if p.Accounts[i].FolderID == id {
				p.Accounts[i].FolderID = ""
			}
		}
		return nil
	})
}

// DeleteAllAccounts empties the account list and saves.
func (s *Store) DeleteAllAccounts(pin string) error {
	return s.mutate(pin, func(p *payload) error {
		p.Accounts = nil
		return nil
	})
}

// WipeAllData erases all durable and session state: encrypted vault, PIN
// record, preferences, install id. A fresh install id is minted
// immediately and the crypto engine rebuilt around it, so anything saved
// afterwards is encrypted under the new device default key. Irreversible;
// callers gate this behind an explicit typed confirmation.
func (s *Store) WipeAllData() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WipeAll(); err != nil {
		return err
	}

	installID, err := s.db.GetOrCreateInstallID()
	if err != nil {
		return fmt.Errorf("failed to mint install id: %w", err)
	}
	s.installID = installID
	s.engine = crypto.NewEngine(installID)

	s.sess.Clear()
	s.state = StateUninitialized
	return nil
}

// normalizeAccount applies algorithm, digits and period defaults and
// rejects invalid values. The secret must already be normalized.
func normalizeAccount(acc models.Account) (models.Account, error) {
	if acc.Algorithm != "" && !models.ValidAlgorithm(acc.Algorithm) {
		return models.Account{}, otp.ErrInvalidAlgorithm
	}
	if acc.Algorithm == "" {
		acc.Algorithm = models.DefaultAlgorithm
	}
	acc.Algorithm = strings.ToUpper(acc.Algorithm)
	if acc.Digits < 0 {
		return models.Account{}, otp.ErrInvalidDigits
	}
	if acc.Period < 0 {
		return models.Account{}, otp.ErrInvalidPeriod
	}
	if acc.Digits == 0 {
		acc.Digits = models.DefaultDigits
	}
	if acc.Period == 0 {
		acc.Period = models.DefaultPeriod
	}
	return acc, nil
}

// Flush re-encrypts and saves the current session state without changing
// it. Used to materialize the durable blob on first init and to switch
// the at-rest key when PIN protection is toggled.
func (s *Store) Flush(pin string) error {
	return s.mutate(pin, func(p *payload) error { return nil })
}

// mutate runs one transactional read-modify-save sequence under the store
// mutex. The session copy is replaced only after the durable save
// succeeds; a failed save leaves both tiers on the previous list.
func (s *Store) mutate(pin string, fn func(p *payload) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.readSession()
	if err != nil {
		return err
	}
	if err := fn(&p); err != nil {
		return err
	}
	if err := s.save(p, pin); err != nil {
		return err
	}
	return s.writeSession(p)
}

// save serializes the payload and writes a freshly encrypted bundle to
// the durable tier. Called after every mutation, so the durable vault is
// never stale by more than one mutating call.
func (s *Store) save(p payload, pin string) error {
	plaintext, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to serialize vault: %w", err)
	}
	defer crypto.ClearBytes(plaintext)

	bundle, err := s.engine.Encrypt(plaintext, crypto.ContextFor(pin))
	if err != nil {
		return err
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("failed to serialize bundle: %w", err)
	}
	if err := s.db.SetVault(data); err != nil {
		return fmt.Errorf("failed to store vault: %w", err)
	}
	return s.db.UpdateModified()
}

// readSession loads the decrypted payload. Callers must hold s.mu.
func (s *Store) readSession() (payload, error) {
	if s.state != StateUnlocked {
		return payload{}, ErrLocked
	}
	data, ok := s.sess.Get(sessionKey)
	if !ok {
		return payload{}, nil
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return payload{}, fmt.Errorf("failed to read session state: %w", err)
	}
	return p, nil
}

// writeSession stores the payload in the session tier. Callers must hold s.mu.
func (s *Store) writeSession(p payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}
	s.sess.Set(sessionKey, data)
	return nil
}

func hasFolder(folders []models.Folder, id string) bool {
	for _, f := range folders {
		if f.ID == id {
			return true
		}
	}
	return false
}
