package core

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// GridFingerprint identifies an exact grid definition. A serialized posterior
// is meaningless without the grid it indexes, so checkpoints carry this hash
// and refuse to load against a different grid.
type GridFingerprint Hash

func (h GridFingerprint) String() string { return Hash(h).String() }

// ComputeGridFingerprint hashes the variable names and the flattened point
// values in grid order.
func ComputeGridFingerprint(names []string, points [][]float64) GridFingerprint {
	var data strings.Builder
	for _, n := range names {
		data.WriteString(n)
		data.WriteByte('|')
	}
	for _, pt := range points {
		for _, v := range pt {
			data.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
			data.WriteByte(',')
		}
		data.WriteByte(';')
	}
	return GridFingerprint(NewHash([]byte(data.String())))
}
