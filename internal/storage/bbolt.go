package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket = []byte("config") // format version, timestamps, install id - unencrypted
	VaultBucket  = []byte("vault")  // encrypted account bundle
	PinBucket    = []byte("pin")    // PIN verification record
	PrefsBucket  = []byte("prefs")  // non-sensitive preferences
)

// Config keys
var (
	ConfigVersion   = []byte("version")
	ConfigCreated   = []byte("created")
	ConfigModified  = []byte("modified")
	ConfigInstallID = []byte("install_id")
)

// Fixed keys inside the vault and pin buckets. Each holds a single value.
var (
	vaultKey = []byte("bundle")
	pinKey   = []byte("record")
)

// ErrNotFound is returned when a requested value is absent.
var ErrNotFound = errors.New("not found")

// Store provides BBolt-based durable storage for otpvault. Only the
// encrypted vault bundle, the PIN record and non-sensitive preferences are
// ever written here; plaintext account data never touches disk.
type Store struct {
	db *bolt.DB
}

// Open opens or creates an otpvault database
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Initialize creates the bucket structure for a new vault database
func (s *Store) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, VaultBucket, PinBucket, PrefsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}

		now := time.Now()
		created, _ := now.MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		return config.Put(ConfigModified, created)
	})
}

// IsInitialized checks if the database has been initialized
func (s *Store) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config != nil && config.Get(ConfigVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// GetOrCreateInstallID retrieves the per-install identifier, generating
// and persisting a fresh one on first use. It feeds the device default
// key derivation.
func (s *Store) GetOrCreateInstallID() (string, error) {
	var id string
	err := s.db.Update(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		if data := config.Get(ConfigInstallID); data != nil {
			id = string(data)
			return nil
		}
		id = uuid.NewString()
		return config.Put(ConfigInstallID, []byte(id))
	})
	return id, err
}

// SetVault stores the serialized encrypted bundle, replacing any previous
// value wholesale.
func (s *Store) SetVault(data []byte) error {
	return s.put(VaultBucket, vaultKey, data)
}

// GetVault retrieves the serialized encrypted bundle. Returns ErrNotFound
// if no vault has been saved yet (first run).
func (s *Store) GetVault() ([]byte, error) {
	return s.get(VaultBucket, vaultKey)
}

// HasVault reports whether a vault bundle exists.
func (s *Store) HasVault() (bool, error) {
	_, err := s.GetVault()
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteVault removes the vault bundle.
func (s *Store) DeleteVault() error {
	return s.delete(VaultBucket, vaultKey)
}

// SetPinRecord stores the serialized PIN verification record.
func (s *Store) SetPinRecord(data []byte) error {
	return s.put(PinBucket, pinKey, data)
}

// GetPinRecord retrieves the serialized PIN verification record.
func (s *Store) GetPinRecord() ([]byte, error) {
	return s.get(PinBucket, pinKey)
}

// HasPinRecord reports whether a PIN record exists. Presence is orthogonal
// to the pin_enabled preference: a PIN can exist but be inert.
func (s *Store) HasPinRecord() (bool, error) {
	_, err := s.GetPinRecord()
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeletePinRecord removes the PIN verification record.
func (s *Store) DeletePinRecord() error {
	return s.delete(PinBucket, pinKey)
}

// SetPref stores a non-sensitive preference value.
func (s *Store) SetPref(key, value string) error {
	return s.put(PrefsBucket, []byte(key), []byte(value))
}

// GetPref retrieves a preference value, ErrNotFound when unset.
func (s *Store) GetPref(key string) (string, error) {
	data, err := s.get(PrefsBucket, []byte(key))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DeletePref removes a preference.
func (s *Store) DeletePref(key string) error {
	return s.delete(PrefsBucket, []byte(key))
}

// WipeAll irreversibly deletes every bucket's contents: vault bundle, PIN
// record, preferences and install id, then recreates the empty structure.
func (s *Store) WipeAll() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, VaultBucket, PinBucket, PrefsBucket} {
			if tx.Bucket(bucket) == nil {
				continue
			}
			if err := tx.DeleteBucket(bucket); err != nil {
				return fmt.Errorf("failed to delete bucket %s: %w", bucket, err)
			}
		}
		for _, bucket := range [][]byte{ConfigBucket, VaultBucket, PinBucket, PrefsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		config := tx.Bucket(ConfigBucket)
		return config.Put(ConfigVersion, []byte("1"))
	})
}

// UpdateModified updates the last modified timestamp
func (s *Store) UpdateModified() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		now := time.Now()
		modified, _ := now.MarshalBinary()
		return config.Put(ConfigModified, modified)
	})
}

// GetModified retrieves the last modified timestamp
func (s *Store) GetModified() (time.Time, error) {
	var modified time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return fmt.Errorf("config bucket not found")
		}
		data := config.Get(ConfigModified)
		if data == nil {
			return fmt.Errorf("modified time not found")
		}
		return modified.UnmarshalBinary(data)
	})
	return modified, err
}

func (s *Store) put(bucket, key, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		return b.Put(key, value)
	})
}

func (s *Store) get(bucket, key []byte) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucket)
		}
		v := b.Get(key)
		if v == nil {
			return ErrNotFound
		}
		// Make a copy since the slice is only valid during the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

func (s *Store) delete(bucket, key []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.Delete(key)
	})
}
