package vault

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/illarion/pwvault/internal/pws3"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateUUID = errors.New("duplicate record uuid")
)

// copySuffix is appended to the title of a duplicated record
const copySuffix = " (copy)"

// Vault is the decrypted record set together with its header.
// It is not safe for concurrent use; session.Session serializes access.
type Vault struct {
	Header Header

	records []Record
	index   map[uuid.UUID]int
	now     func() time.Time
}

// New returns an empty vault with a fresh header uuid
func New() *Vault {
	return &Vault{
		Header: Header{Version: pws3.FormatVersion, UUID: uuid.New()},
		index:  make(map[uuid.UUID]int),
		now:    time.Now,
	}
}

// FromFile builds a vault from decoded container fields. Records with a
// missing or repeated uuid are given a new one; the number of such repairs
// is returned so the caller can mark the vault as modified.
func FromFile(f *pws3.File) (*Vault, int) {
	v := New()
	v.Header = headerFromFields(f.Header)
	repaired := 0
	for _, fields := range f.Records {
		r, ok := recordFromFields(fields)
		if _, dup := v.index[r.UUID]; !ok || dup {
			r.UUID = uuid.New()
			repaired++
		}
		v.index[r.UUID] = len(v.records)
		v.records = append(v.records, r)
	}
	return v, repaired
}

// ToFile renders the vault as container fields, records in storage order
func (v *Vault) ToFile() *pws3.File {
	f := &pws3.File{
		Header:  v.Header.fields(),
		Records: make([][]pws3.Field, 0, len(v.records)),
	}
	for _, r := range v.records {
		f.Records = append(f.Records, r.fields())
	}
	return f
}

// SetClock replaces the time source used for record timestamps
func (v *Vault) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	v.now = now
}

func (v *Vault) stamp() time.Time {
	return stamp(v.now())
}

func (v *Vault) Len() int {
	return len(v.records)
}

// Get returns a copy of the record with the given uuid
func (v *Vault) Get(id uuid.UUID) (Record, bool) {
	i, ok := v.index[id]
	if !ok {
		return Record{}, false
	}
	return v.records[i].Clone(), true
}

// Records returns copies of all records in storage order
func (v *Vault) Records() []Record {
	out := make([]Record, len(v.records))
	for i, r := range v.records {
		out[i] = r.Clone()
	}
	return out
}

// Add stores a copy of r. A nil uuid is replaced with a new one; created
// and modified times are stamped when unset.
func (v *Vault) Add(r Record) (Record, error) {
	r = r.Clone()
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if _, exists := v.index[r.UUID]; exists {
		return Record{}, fmt.Errorf("%w: %s", ErrDuplicateUUID, r.UUID)
	}

	now := v.stamp()
	if r.Created.IsZero() {
		r.Created = now
	}
	if r.PasswordModified.IsZero() && r.Password != "" {
		r.PasswordModified = now
	}
	r.Modified = now

	v.index[r.UUID] = len(v.records)
	v.records = append(v.records, r)
	return r.Clone(), nil
}

// Update replaces the stored record with the same uuid. A changed password
// is pushed onto the password history when history is enabled.
func (v *Vault) Update(r Record) (Record, error) {
	i, ok := v.index[r.UUID]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, r.UUID)
	}
	old := v.records[i]
	r = r.Clone()
	now := v.stamp()

	if r.Created.IsZero() {
		r.Created = old.Created
	}
	if r.Password != old.Password {
		changed := old.PasswordModified
		if changed.IsZero() {
			changed = old.Created
		}
		if changed.IsZero() {
			changed = now
		}
		r.History.push(HistoryEntry{Changed: changed, Password: old.Password})
		r.PasswordModified = now
	}
	r.Modified = now

	v.records[i] = r
	return r.Clone(), nil
}

// Delete removes the record with the given uuid
func (v *Vault) Delete(id uuid.UUID) error {
	i, ok := v.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	v.records[i].wipe()
	v.records = append(v.records[:i], v.records[i+1:]...)
	v.reindex()
	return nil
}

// Duplicate copies a record under a new uuid with " (copy)" appended to
// its title and fresh timestamps.
func (v *Vault) Duplicate(id uuid.UUID) (Record, error) {
	src, ok := v.Get(id)
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	src.UUID = uuid.New()
	src.Title += copySuffix
	src.Created = time.Time{}
	src.PasswordModified = time.Time{}
	return v.Add(src)
}

// Wipe zeroes and drops every record
func (v *Vault) Wipe() {
	for i := range v.records {
		v.records[i].wipe()
	}
	v.records = nil
	v.index = make(map[uuid.UUID]int)
	v.Header = Header{}
}

func (v *Vault) reindex() {
	clear(v.index)
	for i, r := range v.records {
		v.index[r.UUID] = i
	}
}
