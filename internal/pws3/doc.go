// Package pws3 reads and writes Password Safe v3 containers.
//
// File layout (integers little-endian):
//
//	"PWS3" | SALT[32] | ITER u32 | H(P')[32] | B1..B4[4x16] | IV[16]
//	| Twofish-CBC(header fields, END, record fields, END, ...)
//	| "PWS3-EOFPWS3-EOF" | HMAC-SHA256[32]
//
// Every field is a TLV block: a 4-byte length, a 1-byte type and the value,
// padded with random bytes to a multiple of 16. The HMAC, keyed by L, covers
// the raw values of all header and record fields in file order.
//
// The package knows nothing about record semantics; it hands out fields as
// opaque type/value pairs so unknown types survive a load/save cycle.
package pws3
