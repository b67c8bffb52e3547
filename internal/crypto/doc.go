// Package crypto provides the cryptographic primitives of the Password Safe v3
// container format.
//
// Key derivation (KEYSTRETCH):
//   - P' = SHA-256(passphrase || salt), then P' = SHA-256(P') iterations times
//   - H(P') = SHA-256(P') is stored in the file to verify the passphrase
//
// Record encryption uses Twofish with a 256-bit key:
//   - ECB on single blocks to wrap/unwrap the internal keys K and L with P'
//   - CBC keyed by K over the padded field stream
//
// Integrity uses HMAC-SHA256 keyed by L over the plaintext field values.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
//   - Stretched keys and unwrapped K/L are owned by the caller and must be cleared
package crypto
