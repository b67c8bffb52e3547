// Package session is the only surface front ends use to work with a vault
// file. A Session owns the decrypted record set and the key material while
// unlocked and drives the Locked -> Unlocking -> Unlocked -> Saving state
// machine, including dirty tracking, idle auto-lock and passphrase changes.
//
// Records are always handed out as copies. Key material is zeroed on every
// transition into Locked.
package session
