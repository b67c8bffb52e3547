package vault

import (
	"github.com/google/uuid"
)

// uuidFromField reads a uuid stored in GUID byte order, where the first
// three groups are little-endian
func uuidFromField(b []byte) (uuid.UUID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return uuid.Nil, err
	}
	return swapGUID(id), nil
}

// uuidField is the inverse of uuidFromField
func uuidField(id uuid.UUID) []byte {
	le := swapGUID(id)
	return le[:]
}

func swapGUID(id uuid.UUID) uuid.UUID {
	id[0], id[1], id[2], id[3] = id[3], id[2], id[1], id[0]
	id[4], id[5] = id[5], id[4]
	id[6], id[7] = id[7], id[6]
	return id
}
