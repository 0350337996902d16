// Package vault implements the otpvault engine: the lock/unlock state
// machine, account and folder CRUD, PIN management and backup
// export/import.
//
// The vault moves through three states:
//
//	Uninitialized -> Locked -> Unlocked
//
// Every mutating operation re-serializes and re-encrypts the entire
// account list and replaces the durable bundle wholesale; there are no
// incremental updates. Session state (the decrypted list) is
// write-through: it is replaced only after the durable save succeeds, so
// a failed save rolls the mutation back and the two tiers never diverge.
//
// All operations are serialized by a single store mutex, preserving
// read-modify-save atomicity under concurrent callers.
package vault
