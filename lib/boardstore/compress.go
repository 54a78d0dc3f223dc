// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package boardstore

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a board's encoded cells are stored. The
// values are persisted in the boards table; changing them breaks
// existing databases.
type Compression uint8

const (
	// CompressionNone stores the cell text as-is. Used for small boards
	// where a compressed frame would be larger than the text.
	CompressionNone Compression = 0

	// CompressionLZ4 stores an LZ4 block. Chosen for busy boards that
	// only compress modestly.
	CompressionLZ4 Compression = 1

	// CompressionZstd stores a zstd frame. Mostly-empty boards, the
	// common case, compress by orders of magnitude.
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// zstd encoders and decoders are safe for concurrent EncodeAll and
// DecodeAll calls and expensive to create.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("boardstore: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("boardstore: zstd decoder initialization failed: " + err.Error())
	}
}

// selectCompression probes data with zstd. A ratio of at least 1.5
// keeps zstd, at least 1.1 picks LZ4, and anything less stores the
// data uncompressed. The zstd probe output is returned so the caller
// does not compress twice.
func selectCompression(data []byte) (Compression, []byte) {
	if len(data) == 0 {
		return CompressionNone, nil
	}
	compressed := zstdEncoder.EncodeAll(data, nil)
	ratio := float64(len(data)) / float64(len(compressed))
	switch {
	case ratio >= 1.5:
		return CompressionZstd, compressed
	case ratio >= 1.1:
		return CompressionLZ4, nil
	default:
		return CompressionNone, nil
	}
}

// compressCells returns the stored form of data and the algorithm
// used.
func compressCells(data []byte) ([]byte, Compression, error) {
	tag, probed := selectCompression(data)
	switch tag {
	case CompressionZstd:
		return probed, tag, nil
	case CompressionLZ4:
		return compressLZ4(data)
	default:
		return data, CompressionNone, nil
	}
}

// compressLZ4 returns data as an LZ4 block, or unchanged with
// CompressionNone if the block would not be smaller.
func compressLZ4(data []byte) ([]byte, Compression, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("lz4 compress: %w", err)
	}
	if written == 0 || written >= len(data) {
		// LZ4 reports incompressible input with a zero length.
		return data, CompressionNone, nil
	}
	return destination[:written], CompressionLZ4, nil
}

// decompressCells reverses compressCells. size is the uncompressed
// length recorded alongside the blob and is checked exactly.
func decompressCells(blob []byte, tag Compression, size int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(blob) != size {
			return nil, fmt.Errorf("uncompressed cells: size %d does not match expected %d", len(blob), size)
		}
		return blob, nil

	case CompressionLZ4:
		destination := make([]byte, size)
		read, err := lz4.UncompressBlock(blob, destination)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		if read != size {
			return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, size)
		}
		return destination, nil

	case CompressionZstd:
		result, err := zstdDecoder.DecodeAll(blob, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		if len(result) != size {
			return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), size)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unsupported compression %s", tag)
	}
}
