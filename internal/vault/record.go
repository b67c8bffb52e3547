package vault

import (
	"bytes"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/illarion/pwvault/internal/crypto"
	"github.com/illarion/pwvault/internal/pws3"
)

// Record is one password entry. Group is a dot-delimited path used for
// display and sorting only.
type Record struct {
	UUID             uuid.UUID
	Group            string
	Title            string
	Username         string
	Password         string
	Notes            string
	URL              string
	Created          time.Time
	Modified         time.Time
	PasswordModified time.Time
	History          PasswordHistory
	TOTPKey          []byte

	// fields not mapped above, in file order
	unknown []pws3.Field
}

// Clone returns a deep copy of r
func (r Record) Clone() Record {
	r.History = r.History.clone()
	r.TOTPKey = bytes.Clone(r.TOTPKey)
	r.unknown = cloneFields(r.unknown)
	return r
}

// Equal reports whether r and o hold the same data, timestamps included
func (r Record) Equal(o Record) bool {
	if r.UUID != o.UUID ||
		r.Group != o.Group ||
		r.Title != o.Title ||
		r.Username != o.Username ||
		r.Password != o.Password ||
		r.Notes != o.Notes ||
		r.URL != o.URL ||
		!r.Created.Equal(o.Created) ||
		!r.Modified.Equal(o.Modified) ||
		!r.PasswordModified.Equal(o.PasswordModified) ||
		!bytes.Equal(r.TOTPKey, o.TOTPKey) {
		return false
	}
	if r.History.Enabled != o.History.Enabled || r.History.MaxSize != o.History.MaxSize {
		return false
	}
	if !slices.EqualFunc(r.History.Entries, o.History.Entries, func(a, b HistoryEntry) bool {
		return a.Password == b.Password && a.Changed.Equal(b.Changed)
	}) {
		return false
	}
	return slices.EqualFunc(r.unknown, o.unknown, func(a, b pws3.Field) bool {
		return a.Type == b.Type && bytes.Equal(a.Value, b.Value)
	})
}

// Path returns the group and title joined the way they are displayed
func (r Record) Path() string {
	if r.Group == "" {
		return r.Title
	}
	return r.Group + "." + r.Title
}

func (r *Record) wipe() {
	crypto.ClearBytes(r.TOTPKey)
	for i := range r.unknown {
		crypto.ClearBytes(r.unknown[i].Value)
	}
	*r = Record{}
}

// recordFromFields maps raw fields onto a Record. Fields of unknown type,
// or of known type with an unusable value, are kept verbatim.
func recordFromFields(fields []pws3.Field) (Record, bool) {
	var r Record
	hasUUID := false
	for _, f := range fields {
		v := f.Value
		switch f.Type {
		case pws3.FieldUUID:
			if id, err := uuidFromField(v); err == nil && !hasUUID {
				r.UUID = id
				hasUUID = true
				continue
			}
		case pws3.FieldGroup:
			r.Group = string(v)
			continue
		case pws3.FieldTitle:
			r.Title = string(v)
			continue
		case pws3.FieldUser:
			r.Username = string(v)
			continue
		case pws3.FieldNotes:
			r.Notes = string(v)
			continue
		case pws3.FieldPassword:
			r.Password = string(v)
			continue
		case pws3.FieldURL:
			r.URL = string(v)
			continue
		case pws3.FieldCreated:
			if t, ok := decodeTime(v); ok {
				r.Created = t
				continue
			}
		case pws3.FieldLastModified:
			if t, ok := decodeTime(v); ok {
				r.Modified = t
				continue
			}
		case pws3.FieldPasswordModified:
			if t, ok := decodeTime(v); ok {
				r.PasswordModified = t
				continue
			}
		case pws3.FieldPasswordHistory:
			if h, err := parseHistory(string(v)); err == nil {
				r.History = h
				continue
			}
		case pws3.FieldTwoFactorKey:
			r.TOTPKey = bytes.Clone(v)
			continue
		}
		r.unknown = append(r.unknown, pws3.Field{Type: f.Type, Value: bytes.Clone(v)})
	}
	return r, hasUUID
}

// fields renders r in the canonical field order followed by unknown fields
func (r Record) fields() []pws3.Field {
	out := make([]pws3.Field, 0, 12+len(r.unknown))
	str := func(typ byte, s string, always bool) {
		if s != "" || always {
			out = append(out, pws3.Field{Type: typ, Value: []byte(s)})
		}
	}
	ts := func(typ byte, t time.Time) {
		if !t.IsZero() {
			out = append(out, pws3.Field{Type: typ, Value: encodeTime(t)})
		}
	}

	out = append(out, pws3.Field{Type: pws3.FieldUUID, Value: uuidField(r.UUID)})
	str(pws3.FieldGroup, r.Group, false)
	str(pws3.FieldTitle, r.Title, true)
	str(pws3.FieldUser, r.Username, false)
	str(pws3.FieldNotes, r.Notes, false)
	str(pws3.FieldPassword, r.Password, true)
	ts(pws3.FieldCreated, r.Created)
	ts(pws3.FieldPasswordModified, r.PasswordModified)
	ts(pws3.FieldLastModified, r.Modified)
	str(pws3.FieldURL, r.URL, false)
	if !r.History.isZero() {
		str(pws3.FieldPasswordHistory, formatHistory(r.History), true)
	}
	if len(r.TOTPKey) > 0 {
		out = append(out, pws3.Field{Type: pws3.FieldTwoFactorKey, Value: bytes.Clone(r.TOTPKey)})
	}
	return append(out, cloneFields(r.unknown)...)
}

func cloneFields(fields []pws3.Field) []pws3.Field {
	if fields == nil {
		return nil
	}
	out := make([]pws3.Field, len(fields))
	for i, f := range fields {
		out[i] = pws3.Field{Type: f.Type, Value: bytes.Clone(f.Value)}
	}
	return out
}
