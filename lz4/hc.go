package lz4

import (
	"encoding/binary"
)

const (
	hashLog       = 15
	hashTableSize = 1 << hashLog
	chainSize     = 1 << 16
	chainMask     = chainSize - 1
)

// match is a candidate sequence: length bytes at start repeat the bytes at ref.
type match struct {
	start  int
	ref    int
	length int
}

func (m match) end() int {
	return m.start + m.length
}

// advance moves the start of the match forward by n bytes.
func (m *match) advance(n int) {
	m.start += n
	m.ref += n
	m.length -= n
}

// hcContext is the match finder state for one block.
//
// Positions are stored as index = offset + windowSize, so 0 in the hash table is never
// a position inside the window. chainTable holds, per position, the distance back to the
// previous position with the same hash. Distances saturate at maxDistance.
type hcContext struct {
	hashTable  [hashTableSize]uint32
	chainTable [chainSize]uint16

	src []byte
	// lowLimit is the lowest valid index.
	lowLimit uint32
	// nextToUpdate is the first index not inserted yet. It only ever grows.
	nextToUpdate uint32

	attempts int
}

func (c *hcContext) reset(src []byte) {
	for i := range c.hashTable {
		c.hashTable[i] = 0
	}
	for i := range c.chainTable {
		c.chainTable[i] = 0xFFFF
	}
	c.src = src
	c.lowLimit = windowSize
	c.nextToUpdate = windowSize
}

func (c *hcContext) read32(pos int) uint32 {
	return binary.LittleEndian.Uint32(c.src[pos:])
}

func (c *hcContext) hash(pos int) uint32 {
	return (c.read32(pos) * 2654435761) >> (32 - hashLog)
}

// insert adds all positions up to, but excluding, pos to the hash chains.
func (c *hcContext) insert(pos int) {
	target := uint32(pos) + windowSize
	for idx := c.nextToUpdate; idx < target; idx++ {
		h := c.hash(int(idx - windowSize))
		delta := idx - c.hashTable[h]
		if delta > maxDistance {
			delta = maxDistance
		}
		c.chainTable[idx&chainMask] = uint16(delta)
		c.hashTable[h] = idx
	}
	if target > c.nextToUpdate {
		c.nextToUpdate = target
	}
}

// windowStart returns the lowest index a match for pos may reference.
func (c *hcContext) windowStart(pos int) uint32 {
	idx := uint32(pos) + windowSize
	if c.lowLimit+maxDistance < idx {
		return idx - maxDistance
	}
	return c.lowLimit
}

// count returns how many bytes at in and ref are equal, never reading at or past limit from in.
func (c *hcContext) count(in, ref, limit int) int {
	n := 0
	for in+n+8 <= limit && binary.LittleEndian.Uint64(c.src[in+n:]) == binary.LittleEndian.Uint64(c.src[ref+n:]) {
		n += 8
	}
	for in+n < limit && c.src[in+n] == c.src[ref+n] {
		n++
	}
	return n
}

// findBestMatch returns the longest match for the bytes at ip which does not extend past limit.
// The returned match has length 0 if there is none of at least minMatch bytes.
func (c *hcContext) findBestMatch(ip, limit int) match {
	best := match{start: ip}
	low := c.windowStart(ip)

	c.insert(ip)
	idx := c.hashTable[c.hash(ip)]

	for attempts := c.attempts; idx >= low && attempts > 0; attempts-- {
		ref := int(idx - windowSize)
		if c.src[ref+best.length] == c.src[ip+best.length] && c.read32(ref) == c.read32(ip) {
			length := minMatch + c.count(ip+minMatch, ref+minMatch, limit)
			if length > best.length {
				best.length = length
				best.ref = ref
			}
		}
		idx -= uint32(c.chainTable[idx&chainMask])
	}
	return best
}

// findWiderMatch searches a match for ip which is longer than longest. The match may be
// extended backwards, but not before lowLimit, and it must not extend past highLimit.
// If none is found the returned match has length longest.
func (c *hcContext) findWiderMatch(ip, lowLimit, highLimit, longest int) match {
	best := match{start: ip, length: longest}
	delta := ip - lowLimit
	low := c.windowStart(ip)

	c.insert(ip)
	idx := c.hashTable[c.hash(ip)]

	for attempts := c.attempts; idx >= low && attempts > 0; attempts-- {
		ref := int(idx - windowSize)

		// A longer match has to cover lowLimit+longest, so reject candidates which differ there.
		probe := ref - delta + best.length
		if probe < 0 || c.src[lowLimit+best.length] == c.src[probe] {
			if c.read32(ref) == c.read32(ip) {
				length := minMatch + c.count(ip+minMatch, ref+minMatch, highLimit)

				back := 0
				for ip+back > lowLimit && ref+back > 0 && c.src[ip+back-1] == c.src[ref+back-1] {
					back--
				}
				length -= back

				if length > best.length {
					best = match{start: ip + back, ref: ref + back, length: length}
				}
			}
		}
		idx -= uint32(c.chainTable[idx&chainMask])
	}
	return best
}
