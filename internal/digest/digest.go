// Package digest computes content digests for stored payloads.
//
// Payloads are named by the lowercase hex digest of their bytes. SHA-256
// is the default; BLAKE3 is available for large media where hashing speed
// dominates publish time.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Supported algorithm names.
const (
	SHA256 = "sha256"
	BLAKE3 = "blake3"
)

// Default is used when no algorithm is configured.
const Default = SHA256

// Hasher produces hex digests with one algorithm.
type Hasher struct {
	algorithm string
}

// New returns a Hasher for the named algorithm. An empty name selects Default.
func New(algorithm string) (*Hasher, error) {
	switch algorithm {
	case "":
		return &Hasher{algorithm: Default}, nil
	case SHA256, BLAKE3:
		return &Hasher{algorithm: algorithm}, nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm: %q", algorithm)
	}
}

// Algorithm returns the algorithm name.
func (h *Hasher) Algorithm() string {
	return h.algorithm
}

// NewHash returns a fresh hash.Hash for the algorithm.
func (h *Hasher) NewHash() hash.Hash {
	if h.algorithm == BLAKE3 {
		return blake3.New()
	}
	return sha256.New()
}

// Reader streams r through the hash and returns the hex digest and byte count.
func (h *Hasher) Reader(r io.Reader) (string, int64, error) {
	hh := h.NewHash()
	n, err := io.Copy(hh, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(hh.Sum(nil)), n, nil
}

// File hashes the file at path with constant memory.
func (h *Hasher) File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer f.Close()

	sum, n, err := h.Reader(f)
	if err != nil {
		return "", 0, fmt.Errorf("hashing %s: %w", path, err)
	}
	return sum, n, nil
}

// Bytes returns the hex digest of data.
func (h *Hasher) Bytes(data []byte) string {
	hh := h.NewHash()
	hh.Write(data)
	return hex.EncodeToString(hh.Sum(nil))
}
