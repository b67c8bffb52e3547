// Package vault holds the decrypted, typed view of a Password Safe v3
// container: the header metadata and the set of password records.
//
// Records are identified by UUID and handed out as copies; callers never get
// a reference into the vault's own storage. Fields the package does not
// understand are kept verbatim so they are written back unchanged.
//
// Views over the record set (sorting, searching, diffing, merging) never
// reorder the underlying storage.
package vault
