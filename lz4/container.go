package lz4

import (
	"encoding/binary"
	"math"

	lz4block "github.com/pierrec/lz4/v4"
)

// HeaderSize is the size of the uncompressed size prefix of a packed payload.
const HeaderSize = 4

// PackedSize returns the uncompressed size stored in the header of a packed payload.
func PackedSize(packed []byte) (int, error) {
	if len(packed) < HeaderSize {
		return 0, ErrShortHeader
	}
	size := binary.LittleEndian.Uint32(packed)
	if uint64(size) > math.MaxInt32 {
		return 0, ErrTooLarge
	}
	return int(size), nil
}

// Pack compresses src with the HC encoder at the given level and prefixes the block
// with the size of src.
func Pack(src []byte, level int) ([]byte, error) {
	dst := make([]byte, HeaderSize+CompressBound(len(src)))
	n, err := PackInto(src, dst, level)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// PackInto is Pack writing into dst. It fails with ErrWouldNotFit if dst is too small.
func PackInto(src, dst []byte, level int) (int, error) {
	if len(src) > MaxInputSize {
		return 0, ErrTooLarge
	}
	if len(dst) < HeaderSize {
		return 0, ErrWouldNotFit
	}
	binary.LittleEndian.PutUint32(dst, uint32(len(src)))

	n, err := NewCompressor(level).CompressBlock(src, dst[HeaderSize:])
	if err != nil {
		return 0, err
	}
	return HeaderSize + n, nil
}

// PackFast compresses src with the fast greedy encoder of github.com/pierrec/lz4 instead of
// the HC encoder. The result has the same format as Pack.
func PackFast(src []byte) ([]byte, error) {
	if len(src) > MaxInputSize {
		return nil, ErrTooLarge
	}

	bound := CompressBound(len(src))
	if fast := lz4block.CompressBlockBound(len(src)); fast > bound {
		bound = fast
	}
	dst := make([]byte, HeaderSize+bound)
	binary.LittleEndian.PutUint32(dst, uint32(len(src)))

	n, err := lz4block.CompressBlock(src, dst[HeaderSize:], nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Incompressible input.
		n, err = storeBlock(src, dst[HeaderSize:])
		if err != nil {
			return nil, err
		}
	}
	return dst[:HeaderSize+n], nil
}

// Unpack decodes a packed payload.
// If maxSize is positive, payloads announcing more than maxSize bytes fail with ErrTooLarge
// before any memory is allocated for them.
func Unpack(packed []byte, maxSize int) ([]byte, error) {
	size, err := PackedSize(packed)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && size > maxSize {
		return nil, ErrTooLarge
	}

	dst := make([]byte, size)
	n, err := UnpackInto(packed, dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// UnpackInto decodes a packed payload into dst and returns the uncompressed size.
// The block has to decode to exactly the size stored in the header.
func UnpackInto(packed, dst []byte) (int, error) {
	size, err := PackedSize(packed)
	if err != nil {
		return 0, err
	}
	if size > len(dst) {
		return 0, ErrWouldNotFit
	}

	n, err := DecompressBlock(packed[HeaderSize:], dst[:size])
	if err != nil {
		return 0, err
	}
	if n != size {
		return 0, ErrCorruptData
	}
	return n, nil
}
