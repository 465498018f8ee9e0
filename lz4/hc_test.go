package lz4

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newHCContext(src []byte, level int) *hcContext {
	c := &hcContext{}
	c.reset(src)
	c.attempts = maxAttempts(level)
	return c
}

func TestHCContext_WindowStart(t *testing.T) {
	c := newHCContext(make([]byte, 16), DefaultLevel)

	tests := []struct {
		pos  int
		want uint32
	}{
		{pos: 0, want: windowSize},
		{pos: maxDistance, want: windowSize},
		{pos: maxDistance + 1, want: windowSize + 1},
		{pos: 100000, want: 100000 + windowSize - maxDistance},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.windowStart(tt.pos), "pos %d", tt.pos)
	}
}

func TestHCContext_FindBestMatch_Window(t *testing.T) {
	tests := []struct {
		name     string
		distance int
		want     match
	}{
		{
			name:     "largest offset",
			distance: maxDistance,
			want:     match{start: maxDistance, ref: 0, length: 8},
		},
		{
			name:     "outside of the window",
			distance: maxDistance + 1,
			want:     match{start: maxDistance + 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := make([]byte, tt.distance+24)
			copy(src, "ABCDEFGH")
			copy(src[tt.distance:], "ABCDEFGH!")

			c := newHCContext(src, MaxLevel)
			assert.Equal(t, tt.want, c.findBestMatch(tt.distance, len(src)-lastLiterals))
		})
	}
}

func TestHCContext_FindBestMatch_Attempts(t *testing.T) {
	// The newest candidate at 100 matches 4 bytes, the older one at 0 matches 10 bytes.
	src := make([]byte, 256)
	copy(src, "ABCDEFGHIJ")
	copy(src[100:], "ABCDxx")
	copy(src[200:], "ABCDEFGHIJ!")

	tests := []struct {
		level int
		want  match
	}{
		{level: 1, want: match{start: 200, ref: 100, length: 4}},
		{level: 2, want: match{start: 200, ref: 0, length: 10}},
		{level: MaxLevel, want: match{start: 200, ref: 0, length: 10}},
	}

	for _, tt := range tests {
		c := newHCContext(src, tt.level)
		assert.Equal(t, tt.want, c.findBestMatch(200, len(src)-lastLiterals), "level %d", tt.level)
	}
}

func TestHCContext_FindWiderMatch(t *testing.T) {
	// The 20 bytes at 10 repeat at 100. The search starts at 105, which matches 15.
	src := make([]byte, 160)
	copy(src[10:], "0123456789abcdefghij")
	copy(src[100:], "0123456789abcdefghij")

	tests := []struct {
		name      string
		lowLimit  int
		highLimit int
		longest   int
		want      match
	}{
		{
			name:      "extended back to lowLimit",
			lowLimit:  102,
			highLimit: 115,
			want:      match{start: 102, ref: 12, length: 13},
		},
		{
			name:      "not extended back",
			lowLimit:  105,
			highLimit: 115,
			want:      match{start: 105, ref: 15, length: 10},
		},
		{
			name:      "extended back to the start of the copy",
			lowLimit:  100,
			highLimit: 115,
			want:      match{start: 100, ref: 10, length: 15},
		},
		{
			name:      "capped by highLimit",
			lowLimit:  102,
			highLimit: 112,
			want:      match{start: 102, ref: 12, length: 10},
		},
		{
			name:      "not longer than longest",
			lowLimit:  102,
			highLimit: 115,
			longest:   20,
			want:      match{start: 105, length: 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newHCContext(src, MaxLevel)
			got := c.findWiderMatch(105, tt.lowLimit, tt.highLimit, tt.longest)
			assert.Equal(t, tt.want, got)
			if got.length > tt.longest {
				assert.LessOrEqual(t, got.end(), tt.highLimit)
				assert.GreaterOrEqual(t, got.start, tt.lowLimit)
			}
		})
	}
}
