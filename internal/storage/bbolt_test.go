package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	return s
}

func TestInitialize(t *testing.T) {
	s := openTestStore(t)

	initialized, err := s.IsInitialized()
	if err != nil {
		t.Fatalf("IsInitialized failed: %v", err)
	}
	if !initialized {
		t.Error("expected store to be initialized")
	}

	if _, err := s.GetModified(); err != nil {
		t.Errorf("GetModified failed after init: %v", err)
	}
}

func TestVaultRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetVault(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for empty vault, got %v", err)
	}
	has, err := s.HasVault()
	if err != nil {
		t.Fatalf("HasVault failed: %v", err)
	}
	if has {
		t.Error("expected no vault on fresh store")
	}

	bundle := []byte(`{"salt":"abc","iv":"def","ciphertext":"ghi","version":1}`)
	if err := s.SetVault(bundle); err != nil {
		t.Fatalf("SetVault failed: %v", err)
	}

	got, err := s.GetVault()
	if err != nil {
		t.Fatalf("GetVault failed: %v", err)
	}
	if string(got) != string(bundle) {
		t.Errorf("vault mismatch: got %s, want %s", got, bundle)
	}

	if err := s.DeleteVault(); err != nil {
		t.Fatalf("DeleteVault failed: %v", err)
	}
	if _, err := s.GetVault(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPinRecordRoundTrip(t *testing.T) {
	s := openTestStore(t)

	has, err := s.HasPinRecord()
	if err != nil {
		t.Fatalf("HasPinRecord failed: %v", err)
	}
	if has {
		t.Error("expected no PIN record on fresh store")
	}

	rec := []byte(`{"hash":"h","salt":"s"}`)
	if err := s.SetPinRecord(rec); err != nil {
		t.Fatalf("SetPinRecord failed: %v", err)
	}

	got, err := s.GetPinRecord()
	if err != nil {
		t.Fatalf("GetPinRecord failed: %v", err)
	}
	if string(got) != string(rec) {
		t.Errorf("PIN record mismatch: got %s, want %s", got, rec)
	}

	if err := s.DeletePinRecord(); err != nil {
		t.Fatalf("DeletePinRecord failed: %v", err)
	}
	if _, err := s.GetPinRecord(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestPrefs(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetPref("autolock"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unset pref, got %v", err)
	}

	if err := s.SetPref("autolock", "10"); err != nil {
		t.Fatalf("SetPref failed: %v", err)
	}
	got, err := s.GetPref("autolock")
	if err != nil {
		t.Fatalf("GetPref failed: %v", err)
	}
	if got != "10" {
		t.Errorf("pref mismatch: got %q, want %q", got, "10")
	}

	if err := s.DeletePref("autolock"); err != nil {
		t.Fatalf("DeletePref failed: %v", err)
	}
	if _, err := s.GetPref("autolock"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestInstallIDStable(t *testing.T) {
	s := openTestStore(t)

	id1, err := s.GetOrCreateInstallID()
	if err != nil {
		t.Fatalf("GetOrCreateInstallID failed: %v", err)
	}
	if id1 == "" {
		t.Fatal("expected non-empty install id")
	}

	id2, err := s.GetOrCreateInstallID()
	if err != nil {
		t.Fatalf("GetOrCreateInstallID failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("install id changed between calls: %s != %s", id1, id2)
	}
}

func TestWipeAll(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetVault([]byte("bundle")); err != nil {
		t.Fatalf("SetVault failed: %v", err)
	}
	if err := s.SetPinRecord([]byte("record")); err != nil {
		t.Fatalf("SetPinRecord failed: %v", err)
	}
	if err := s.SetPref("accent", "blue"); err != nil {
		t.Fatalf("SetPref failed: %v", err)
	}
	id1, err := s.GetOrCreateInstallID()
	if err != nil {
		t.Fatalf("GetOrCreateInstallID failed: %v", err)
	}

	if err := s.WipeAll(); err != nil {
		t.Fatalf("WipeAll failed: %v", err)
	}

	if _, err := s.GetVault(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected vault gone after wipe, got %v", err)
	}
	if _, err := s.GetPinRecord(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected PIN record gone after wipe, got %v", err)
	}
	if _, err := s.GetPref("accent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected prefs gone after wipe, got %v", err)
	}

	// The store stays usable and a new install id is minted.
	initialized, err := s.IsInitialized()
	if err != nil {
		t.Fatalf("IsInitialized failed: %v", err)
	}
	if !initialized {
		t.Error("expected store to remain initialized after wipe")
	}
	id2, err := s.GetOrCreateInstallID()
	if err != nil {
		t.Fatalf("GetOrCreateInstallID failed: %v", err)
	}
	if id1 == id2 {
		t.Error("expected a fresh install id after wipe")
	}
}
