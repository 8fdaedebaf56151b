package identity

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Fingerprinter derives stable keyed hashes of identity data so caches and
// audit records can correlate subjects without holding raw identifiers.
type Fingerprinter struct {
	key []byte
}

// NewFingerprinter creates a Fingerprinter. key may be empty (unkeyed) and
// must not exceed 64 bytes.
func NewFingerprinter(key string) (*Fingerprinter, error) {
	if len(key) > blake2b.Size {
		return nil, fmt.Errorf("fingerprint key must be at most %d bytes", blake2b.Size)
	}
	return &Fingerprinter{key: []byte(key)}, nil
}

// Of hashes the normalized parts. Parts are case-folded and trimmed, so
// "John " and "john" produce the same fingerprint.
func (f *Fingerprinter) Of(parts ...string) string {
	h, err := blake2b.New256(f.key)
	if err != nil {
		// key length is checked in NewFingerprinter
		panic(err)
	}
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0x1f})
		}
		h.Write([]byte(strings.ToLower(strings.TrimSpace(p))))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Subject fingerprints the identifying fields of a verification subject.
func (f *Fingerprinter) Subject(s Subject) string {
	return f.Of(s.FirstName, s.LastName, s.DateOfBirth, s.DocumentNumber, s.BVN, s.NIN, s.SAIDNumber, s.GhanaCard)
}
