// Package lz4 packs and unpacks boot payloads with LZ4.
//
// Blocks are produced by a high compression (HC) encoder which searches a hash chain for the
// longest match and looks up to two matches ahead before it commits one. The block format is the
// standard LZ4 block format, so blocks decode with any LZ4 block decoder and vice versa.
//
// Pack and Unpack additionally prefix the block with its 4 byte little endian uncompressed size.
// This envelope is not part of the LZ4 format and has to be stripped before handing a packed
// payload to other LZ4 tools.
package lz4

import (
	"errors"
)

const (
	minMatch = 4
	// The reference LZ4 decoder requires the last 5 bytes of a block to be literals and
	// no match to start within the last 12 bytes. Blocks breaking either rule are rejected
	// by standard LZ4 tools, even though DecompressBlock accepts them.
	lastLiterals = 5
	mfLimit      = 12

	mlBits    = 4
	mlMask    = 1<<mlBits - 1
	runMask   = 1<<(8-mlBits) - 1
	optimalML = mlMask - 1 + minMatch

	windowSize  = 64 << 10
	maxDistance = windowSize - 1

	// MaxInputSize is the largest input CompressBlock accepts.
	MaxInputSize = 0x7E000000
)

// Compression levels. Each level doubles the number of hash chain entries searched per position.
const (
	MinLevel     = 1
	MaxLevel     = 16
	DefaultLevel = 9
)

var (
	// ErrCorruptData is returned if a block would read or write out of its bounds.
	ErrCorruptData = errors.New("lz4: corrupt input")
	// ErrWouldNotFit is returned if the compressed block does not fit the destination buffer.
	// The data should be stored uncompressed or compressed into a larger buffer.
	ErrWouldNotFit = errors.New("lz4: output buffer too small")
	ErrTooLarge    = errors.New("lz4: input too large")
	ErrShortHeader = errors.New("lz4: missing size header")
)

// CompressBound returns the largest size a block of n input bytes can have.
func CompressBound(n int) int {
	return n + n/255 + 16
}

// maxAttempts returns how many hash chain entries are searched at the given level.
// Levels below MinLevel select DefaultLevel, levels above MaxLevel are clamped.
func maxAttempts(level int) int {
	if level < MinLevel {
		level = DefaultLevel
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return 1 << (level - 1)
}
