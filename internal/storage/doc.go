// Package storage provides the BBolt index of known vault files.
//
// Database structure uses two buckets:
//   - config: index format version and creation time
//   - vaults: one JSON entry per vault file, keyed by absolute path
//
// Entries hold only public metadata (vault id, iteration count, record
// count, timestamps), the same information an observer of the encrypted
// file could derive, so pwvault status and pwvault recent work without a
// passphrase.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
