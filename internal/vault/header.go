package vault

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/google/uuid"
	"github.com/illarion/pwvault/internal/pws3"
)

// Header is the vault-wide metadata stored ahead of the records
type Header struct {
	Version     uint16
	UUID        uuid.UUID
	Preferences string
	LastSave    time.Time
	WhatSaved   string
	LastSavedBy string
	LastSavedOn string
	Name        string
	Description string

	unknown []pws3.Field
}

func headerFromFields(fields []pws3.Field) Header {
	var h Header
	for _, f := range fields {
		v := f.Value
		switch f.Type {
		case pws3.HeaderVersion:
			if len(v) == 2 {
				h.Version = binary.LittleEndian.Uint16(v)
				continue
			}
		case pws3.HeaderUUID:
			if id, err := uuidFromField(v); err == nil {
				h.UUID = id
				continue
			}
		case pws3.HeaderPreferences:
			h.Preferences = string(v)
			continue
		case pws3.HeaderLastSave:
			if t, ok := decodeTime(v); ok {
				h.LastSave = t
				continue
			}
		case pws3.HeaderWhatSaved:
			h.WhatSaved = string(v)
			continue
		case pws3.HeaderLastSavedBy:
			h.LastSavedBy = string(v)
			continue
		case pws3.HeaderLastSavedOn:
			h.LastSavedOn = string(v)
			continue
		case pws3.HeaderName:
			h.Name = string(v)
			continue
		case pws3.HeaderDescription:
			h.Description = string(v)
			continue
		}
		h.unknown = append(h.unknown, pws3.Field{Type: f.Type, Value: bytes.Clone(v)})
	}
	return h
}

func (h Header) fields() []pws3.Field {
	out := make([]pws3.Field, 0, 9+len(h.unknown))
	version := make([]byte, 2)
	binary.LittleEndian.PutUint16(version, h.Version)
	out = append(out, pws3.Field{Type: pws3.HeaderVersion, Value: version})

	if h.UUID != uuid.Nil {
		out = append(out, pws3.Field{Type: pws3.HeaderUUID, Value: uuidField(h.UUID)})
	}
	add := func(typ byte, s string) {
		if s != "" {
			out = append(out, pws3.Field{Type: typ, Value: []byte(s)})
		}
	}
	add(pws3.HeaderPreferences, h.Preferences)
	if !h.LastSave.IsZero() {
		out = append(out, pws3.Field{Type: pws3.HeaderLastSave, Value: encodeTime(h.LastSave)})
	}
	add(pws3.HeaderWhatSaved, h.WhatSaved)
	add(pws3.HeaderLastSavedBy, h.LastSavedBy)
	add(pws3.HeaderLastSavedOn, h.LastSavedOn)
	add(pws3.HeaderName, h.Name)
	add(pws3.HeaderDescription, h.Description)
	return append(out, cloneFields(h.unknown)...)
}
