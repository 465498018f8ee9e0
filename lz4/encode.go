package lz4

import (
	"encoding/binary"
)

// Compressor compresses blocks with the HC encoder.
// It holds about 256 KiB of match finder tables which are reused between calls,
// so a Compressor must not be used concurrently.
type Compressor struct {
	level int
	ctx   hcContext
}

// NewCompressor returns a Compressor for the given level.
// Levels below MinLevel select DefaultLevel, levels above MaxLevel are clamped.
func NewCompressor(level int) *Compressor {
	if level < MinLevel {
		level = DefaultLevel
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return &Compressor{level: level}
}

// Level returns the effective compression level.
func (c *Compressor) Level() int {
	return c.level
}

// CompressBlockHC compresses src into dst using a new Compressor.
func CompressBlockHC(src, dst []byte, level int) (int, error) {
	return NewCompressor(level).CompressBlock(src, dst)
}

// CompressBlock compresses src into dst and returns the size of the block.
//
// If dst is at least CompressBound(len(src)) bytes long the block always fits.
// Otherwise the encoder checks the remaining space before each sequence and fails with
// ErrWouldNotFit once the block would exceed dst.
func (c *Compressor) CompressBlock(src, dst []byte) (int, error) {
	if len(src) > MaxInputSize {
		return 0, ErrTooLarge
	}

	c.ctx.reset(src)
	c.ctx.attempts = maxAttempts(c.level)
	defer func() {
		c.ctx.src = nil
	}()

	e := encoder{
		src:     src,
		dst:     dst,
		limited: len(dst) < CompressBound(len(src)),
	}
	if err := c.parse(&e); err != nil {
		return 0, err
	}
	if err := e.lastLiterals(); err != nil {
		return 0, err
	}
	return e.op, nil
}

// parseState is the lookahead state of the parser.
type parseState int

const (
	// haveFirstMatch: only the current match is known. Look for a second one overlapping its tail.
	haveFirstMatch parseState = iota
	// comparingSecond: a second, longer match starts inside the current one.
	// Look for a third one overlapping the tail of the second.
	comparingSecond
)

// parse finds and emits all sequences of the block.
//
// For every match the parser looks for a longer one starting inside it. If there is one,
// it looks a further step ahead before deciding how to cut the overlapping matches.
func (c *Compressor) parse(e *encoder) error {
	ctx := &c.ctx
	n := len(e.src)
	// Matches start before mflimit and end at matchLimit at the latest, so a block
	// always ends with lastLiterals literals. A run of 64 equal bytes becomes
	// 1 literal, a 58 byte match and 5 literals.
	mflimit := n - mfLimit
	matchLimit := n - lastLiterals

	// The first byte is always a literal.
	ip := 1

	for ip < mflimit {
		m1 := ctx.findBestMatch(ip, matchLimit)
		if m1.length == 0 {
			ip++
			continue
		}

		// m0 is the match m1 replaced. It is restored if m2 turns out to start inside of it.
		m0 := m1
		var m2, m3 match
		state := haveFirstMatch

	sequence:
		for {
			switch state {
			case haveFirstMatch:
				m2 = match{length: m1.length}
				if m1.end() < mflimit {
					m2 = ctx.findWiderMatch(m1.end()-2, m1.start, matchLimit, m1.length)
				}

				if m2.length == m1.length {
					if err := e.sequence(m1); err != nil {
						return err
					}
					ip = m1.end()
					break sequence
				}

				if m0.start < m1.start && m2.start < m1.start+m0.length {
					m1 = m0
				}

				// m2 starts so close that it replaces m1.
				if m2.start-m1.start < 3 {
					m1 = m2
					continue
				}
				state = comparingSecond

			case comparingSecond:
				// Give m1 up to optimalML bytes before m2 starts.
				if m2.start-m1.start < optimalML {
					newLength := m1.length
					if newLength > optimalML {
						newLength = optimalML
					}
					if m1.start+newLength > m2.end()-minMatch {
						newLength = m2.start - m1.start + m2.length - minMatch
					}
					if correction := newLength - (m2.start - m1.start); correction > 0 {
						m2.advance(correction)
					}
				}

				m3 = match{length: m2.length}
				if m2.end() < mflimit {
					m3 = ctx.findWiderMatch(m2.end()-3, m2.start, matchLimit, m2.length)
				}

				if m3.length == m2.length {
					// No better match ahead: emit m1 cut at m2 and m2 itself.
					if m2.start < m1.end() {
						m1.length = m2.start - m1.start
					}
					if err := e.sequence(m1); err != nil {
						return err
					}
					if err := e.sequence(m2); err != nil {
						return err
					}
					ip = m2.end()
					break sequence
				}

				if m3.start < m1.end()+3 {
					if m3.start >= m1.end() {
						// m3 follows m1 closely enough to drop m2 in between.
						if m2.start < m1.end() {
							m2.advance(m1.end() - m2.start)
							if m2.length < minMatch {
								m2 = m3
							}
						}
						if err := e.sequence(m1); err != nil {
							return err
						}
						m1 = m3
						m0 = m2
						state = haveFirstMatch
						continue
					}

					// m3 overlaps m1, so it replaces m2.
					m2 = m3
					continue
				}

				// m1, m2 and m3 overlap and m3 starts well behind m1. Emit m1 cut to make room for m2.
				if m2.start < m1.end() {
					if m2.start-m1.start < mlMask {
						if m1.length > optimalML {
							m1.length = optimalML
						}
						if m1.end() > m2.end()-minMatch {
							m1.length = m2.start - m1.start + m2.length - minMatch
						}
						if correction := m1.length - (m2.start - m1.start); correction > 0 {
							m2.advance(correction)
						}
					} else {
						m1.length = m2.start - m1.start
					}
				}
				if err := e.sequence(m1); err != nil {
					return err
				}

				m1 = m2
				m2 = m3
			}
		}
	}
	return nil
}

// encoder writes sequences into dst.
type encoder struct {
	src []byte
	dst []byte
	// limited enables the space checks. dst is only unlimited if it has at least CompressBound bytes.
	limited bool

	// anchor is the first byte of src not emitted yet.
	anchor int
	op     int
}

// length writes the continuation bytes of a literal or match length.
func (e *encoder) length(n int) {
	for ; n >= 255; n -= 255 {
		e.dst[e.op] = 255
		e.op++
	}
	e.dst[e.op] = byte(n)
	e.op++
}

// sequence emits the literals from the anchor up to m.start followed by m.
func (e *encoder) sequence(m match) error {
	literals := m.start - e.anchor
	token := e.op
	e.op++

	if e.limited && e.op+literals>>8+literals+2+1+lastLiterals > len(e.dst) {
		return ErrWouldNotFit
	}

	if literals >= runMask {
		e.dst[token] = runMask << mlBits
		e.length(literals - runMask)
	} else {
		e.dst[token] = byte(literals << mlBits)
	}

	e.op += copy(e.dst[e.op:], e.src[e.anchor:m.start])

	binary.LittleEndian.PutUint16(e.dst[e.op:], uint16(m.start-m.ref))
	e.op += 2

	matchLength := m.length - minMatch
	if e.limited && e.op+matchLength>>8+1+lastLiterals > len(e.dst) {
		return ErrWouldNotFit
	}
	if matchLength >= mlMask {
		e.dst[token] |= mlMask
		e.length(matchLength - mlMask)
	} else {
		e.dst[token] |= byte(matchLength)
	}

	e.anchor = m.end()
	return nil
}

// lastLiterals emits the remaining input as a final literal only sequence.
func (e *encoder) lastLiterals() error {
	literals := len(e.src) - e.anchor
	if e.limited && e.op+literals+1+(literals+255-runMask)/255 > len(e.dst) {
		return ErrWouldNotFit
	}
	if e.op >= len(e.dst) {
		return ErrWouldNotFit
	}

	if literals >= runMask {
		e.dst[e.op] = runMask << mlBits
		e.op++
		e.length(literals - runMask)
	} else {
		e.dst[e.op] = byte(literals << mlBits)
		e.op++
	}
	e.op += copy(e.dst[e.op:], e.src[e.anchor:])
	e.anchor = len(e.src)
	return nil
}

// storeBlock writes src as a single literal only sequence. It is the fallback for
// incompressible input and needs at most CompressBound(len(src)) bytes.
func storeBlock(src, dst []byte) (int, error) {
	e := encoder{
		src:     src,
		dst:     dst,
		limited: true,
	}
	if err := e.lastLiterals(); err != nil {
		return 0, err
	}
	return e.op, nil
}
