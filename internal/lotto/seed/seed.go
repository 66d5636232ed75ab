package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"

	"github.com/google/uuid"
)

// Separator joins entropy parts before hashing.
const Separator = "::"

// Hash returns the 32-bit seed for the given entropy parts: the first eight hex
// characters of the SHA-256 digest of the parts joined with Separator.
//
// Postcondition: the same parts always yield the same seed.
func Hash(parts ...string) uint32 {
	sum := sha256.Sum256([]byte(strings.Join(parts, Separator)))
	return binary.BigEndian.Uint32(sum[:4])
}

// Derive hashes parts into a seed and returns it together with a generator
// positioned at the start of that seed's sequence.
//
// Postcondition: Derive(p...) called twice returns equal seeds and generators
// that produce identical sequences.
func Derive(parts ...string) (uint32, *Mulberry32) {
	s := Hash(parts...)
	return s, NewMulberry32(s)
}

// NewSalt returns a fresh random salt so that two syntheses over identical
// history and inspiration still diverge.
func NewSalt() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
