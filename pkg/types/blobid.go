package types

import (
	"crypto/sha1"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strconv"
)

// BlobID is a Git-style SHA-1 digest of a source file's content.
// It records which snapshot of a file a coverage report was aligned to.
type BlobID [20]byte

// ComputeBlobID computes SHA-1("blob {len}\0{content}"), the same digest
// `git hash-object` prints.
func ComputeBlobID(content []byte) BlobID {
	h := sha1.New()
	h.Write([]byte("blob " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)

	var id BlobID
	copy(id[:], h.Sum(nil))
	return id
}

// IsZero reports whether no digest was recorded.
func (id BlobID) IsZero() bool {
	return id == BlobID{}
}

// Hex returns 40-character hex string. The zero ID encodes as "".
func (id BlobID) Hex() string {
	if id.IsZero() {
		return ""
	}
	return hex.EncodeToString(id[:])
}

// String implements Stringer (returns Hex()).
func (id BlobID) String() string {
	return id.Hex()
}

// ParseBlobID parses a 40-char hex string. An empty string yields the zero ID.
func ParseBlobID(s string) (BlobID, error) {
	var id BlobID
	if s == "" {
		return id, nil
	}
	if len(s) != 40 {
		return id, fmt.Errorf("invalid blob ID length: expected 40, got %d", len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return BlobID{}, fmt.Errorf("invalid hex string: %w", err)
	}
	return id, nil
}

// Value implements driver.Valuer for SQL serialization.
func (id BlobID) Value() (driver.Value, error) {
	return id.Hex(), nil
}

// Scan implements sql.Scanner for SQL deserialization.
func (id *BlobID) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case nil:
		*id = BlobID{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan type %T into BlobID", value)
	}

	parsed, err := ParseBlobID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
