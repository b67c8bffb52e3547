package pws3

import (
	"errors"

	"github.com/illarion/pwvault/internal/crypto"
)

const (
	Magic     = "PWS3"
	EOFMarker = "PWS3-EOFPWS3-EOF"

	// PreambleSize is the unencrypted prefix: tag, salt, iter, H(P'), B1-B4, IV
	PreambleSize = 4 + crypto.SaltSize + 4 + crypto.HashSize + 4*crypto.BlockSize + crypto.BlockSize

	// MinIterations is the smallest key-stretch count accepted on load
	MinIterations = 2048
	// DefaultIterations is the PWS3 0x030F minimum, used for new keys
	DefaultIterations = 262144

	// FormatVersion is written to the version header field (0x030D)
	FormatVersion uint16 = 0x030D

	EndOfEntry byte = 0xff

	fieldHeaderSize = 5 // 4-byte length + 1-byte type
)

// Header field types
const (
	HeaderVersion     byte = 0x00
	HeaderUUID        byte = 0x01
	HeaderPreferences byte = 0x02
	HeaderTreeDisplay byte = 0x03
	HeaderLastSave    byte = 0x04
	HeaderWhatSaved   byte = 0x06
	HeaderLastSavedBy byte = 0x07
	HeaderLastSavedOn byte = 0x08
	HeaderName        byte = 0x09
	HeaderDescription byte = 0x0a
)

// Record field types
const (
	FieldUUID             byte = 0x01
	FieldGroup            byte = 0x02
	FieldTitle            byte = 0x03
	FieldUser             byte = 0x04
	FieldNotes            byte = 0x05
	FieldPassword         byte = 0x06
	FieldCreated          byte = 0x07
	FieldPasswordModified byte = 0x08
	FieldLastAccess       byte = 0x09
	FieldLastModified     byte = 0x0c
	FieldURL              byte = 0x0d
	FieldPasswordHistory  byte = 0x0f
	FieldTwoFactorKey     byte = 0x1b
)

var (
	ErrWrongPassphrase = errors.New("wrong passphrase")
	ErrIntegrity       = errors.New("file integrity check failed")
	ErrMalformed       = errors.New("malformed vault file")
)

// Field is the raw on-disk representation of one header or record field
type Field struct {
	Type  byte
	Value []byte
}

// File is a decoded container: header fields and records, each a list of
// fields in file order. End-of-entry markers are not included.
type File struct {
	Header  []Field
	Records [][]Field
}

// Wipe zeroes every field value held by the file
func (f *File) Wipe() {
	if f == nil {
		return
	}
	for i := range f.Header {
		crypto.ClearBytes(f.Header[i].Value)
	}
	for _, rec := range f.Records {
		for i := range rec {
			crypto.ClearBytes(rec[i].Value)
		}
	}
	f.Header = nil
	f.Records = nil
}

// values returns every field value in file order, as covered by the HMAC
func (f *File) values() [][]byte {
	n := len(f.Header)
	for _, rec := range f.Records {
		n += len(rec)
	}
	out := make([][]byte, 0, n)
	for _, fld := range f.Header {
		out = append(out, fld.Value)
	}
	for _, rec := range f.Records {
		for _, fld := range rec {
			out = append(out, fld.Value)
		}
	}
	return out
}
