// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package life

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Snapshot is the immutable, encoded state of a board at one version.
// It is what subscribers receive, what the socket protocol carries, and
// what the CLI prints with --json. Two snapshots of the same board with
// the same Version always have identical Cells and Digest.
type Snapshot struct {
	BoardID    string `json:"board_id"`
	Name       string `json:"name"`
	Version    uint64 `json:"version"`
	Generation uint64 `json:"generation"`
	Running    bool   `json:"running"`
	Dimensions string `json:"dimensions"`
	Rules      string `json:"rules"`
	Cells      string `json:"cells"`
	Digest     string `json:"digest"`

	// Resync is set on the snapshot a subscriber receives after its
	// buffer overflowed and intermediate versions were dropped.
	Resync bool `json:"resync,omitempty"`
}

// Grid decodes the snapshot's cells.
func (s Snapshot) Grid() (Grid, error) {
	width, height, err := ParseDimensions(s.Dimensions)
	if err != nil {
		return Grid{}, err
	}
	return DecodeGrid(s.Cells, width, height)
}

// Verify checks that Digest matches Cells. A mismatch is a
// KindFormatError: the snapshot was corrupted somewhere between the
// coordinator and the reader.
func (s Snapshot) Verify() error {
	if GridDigest(s.Cells) != s.Digest {
		return Errorf(KindFormatError, "board %s version %d: digest mismatch", s.BoardID, s.Version)
	}
	return nil
}

// gridDomainKey is the BLAKE3 key for grid digests: the ASCII domain
// name zero-padded to 32 bytes. Changing it changes every digest.
var gridDomainKey = [32]byte{
	'l', 'i', 'f', 'e', 'b', 'o', 'a', 'r', 'd', '.', 'g', 'r', 'i', 'd',
}

// digestLength is the number of digest bytes kept (hex-encoded to twice
// as many characters).
const digestLength = 16

// GridDigest returns the keyed BLAKE3 digest of an encoded grid, as hex.
func GridDigest(encoded string) string {
	hasher, err := blake3.NewKeyed(gridDomainKey[:])
	if err != nil {
		// NewKeyed only fails for keys that are not 32 bytes.
		panic("life: blake3 keyed hasher: " + err.Error())
	}
	hasher.Write([]byte(encoded))
	return hex.EncodeToString(hasher.Sum(nil)[:digestLength])
}
