package lz4

// DecompressBlock decodes the block in src into dst and returns the number of bytes written.
//
// The block must end with a literal only sequence which consumes src completely. Any length,
// offset or copy leaving src or dst fails with ErrCorruptData, so dst has to be at least as large
// as the uncompressed data.
func DecompressBlock(src, dst []byte) (int, error) {
	if len(src) == 0 {
		return 0, ErrCorruptData
	}

	si, di := 0, 0
	for {
		if si >= len(src) {
			// The last sequence had a match.
			return di, ErrCorruptData
		}
		token := src[si]
		si++

		literals := int(token >> mlBits)
		if literals == runMask {
			n, ok := readLength(src, &si, len(dst))
			if !ok {
				return di, ErrCorruptData
			}
			literals += n
		}
		if literals > len(src)-si || literals > len(dst)-di {
			return di, ErrCorruptData
		}
		di += copy(dst[di:], src[si:si+literals])
		si += literals

		if si == len(src) {
			return di, nil
		}

		if len(src)-si < 2 {
			return di, ErrCorruptData
		}
		offset := int(src[si]) | int(src[si+1])<<8
		si += 2
		if offset == 0 || offset > di {
			return di, ErrCorruptData
		}

		length := int(token & mlMask)
		if length == mlMask {
			n, ok := readLength(src, &si, len(dst))
			if !ok {
				return di, ErrCorruptData
			}
			length += n
		}
		length += minMatch
		if length > len(dst)-di {
			return di, ErrCorruptData
		}

		ref := di - offset
		if offset >= length {
			copy(dst[di:di+length], dst[ref:ref+length])
		} else {
			// The match overlaps the bytes it produces.
			for i := 0; i < length; i++ {
				dst[di+i] = dst[ref+i]
			}
		}
		di += length
	}
}

// readLength reads the continuation bytes of a length starting at src[*si].
// It fails if src ends before the last byte or if the length exceeds limit.
func readLength(src []byte, si *int, limit int) (int, bool) {
	n := 0
	for {
		if *si >= len(src) {
			return 0, false
		}
		b := src[*si]
		*si++
		n += int(b)
		if n > limit {
			return 0, false
		}
		if b != 255 {
			return n, true
		}
	}
}
