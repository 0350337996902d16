// Package session provides the volatile persistence tier: a key-value
// store holding the decrypted account list only while the vault is
// unlocked. Nothing here survives Lock or process exit.
package session

import "sync"

// Store is an in-memory key-value store with the same get/set/remove/clear
// shape as the durable tier, but scoped to the process lifetime.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty session store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get returns the value for key, and whether it was present.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

// Set stores a copy of value under key.
func (s *Store) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
}

// Remove deletes key, zeroing the stored value first.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok {
		for i := range v {
			v[i] = 0
		}
		delete(s.data, key)
	}
}

// Clear removes every entry, zeroing stored values.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.data {
		for i := range v {
			v[i] = 0
		}
		delete(s.data, k)
	}
}
