package fatboot

import (
	"github.com/aligator/fatboot/checkpoint"
)

const (
	// MaxSectorSize is the largest sector a cache line can hold.
	MaxSectorSize = 4096

	// DefaultCacheLines is the number of sectors kept by NewBlockCache if no line count is given.
	DefaultCacheLines = 8
)

type cacheLine struct {
	valid   bool
	device  uint32
	lba     uint64
	recency uint64
	size    int
	data    [MaxSectorSize]byte
}

// BlockCache serves byte ranges of block devices and keeps the most recently read sectors.
// The lines are shared by all devices, so reading one device may evict sectors of another.
//
// A BlockCache must only be used by one caller at a time.
type BlockCache struct {
	device SectorReader
	lines  []cacheLine
	tick   uint64
}

// NewBlockCache creates a cache with the given number of sector lines in front of device.
func NewBlockCache(device SectorReader, lines int) *BlockCache {
	if lines <= 0 {
		lines = DefaultCacheLines
	}
	return &BlockCache{
		device: device,
		lines:  make([]cacheLine, lines),
	}
}

// SectorSize returns the sector size of a device after checking that the cache can hold it.
func (c *BlockCache) SectorSize(device uint32) (int, error) {
	size, err := c.device.SectorSize(device)
	if err != nil {
		return 0, checkpoint.Wrap(err, ErrDevice)
	}
	if size <= 0 || size > MaxSectorSize || size&(size-1) != 0 {
		return 0, checkpoint.Wrapf(ErrSectorSize, ErrSectorSize, "device %d reports %d bytes", device, size)
	}
	return size, nil
}

// ReadBytes fills buf with the bytes of device starting at the byte offset.
// The range may span any number of sectors. Each sector not in the cache is read once
// and stored in the least recently used line.
// Device errors are returned as they are, without any retry; nothing is partially returned.
func (c *BlockCache) ReadBytes(device uint32, offset uint64, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}

	size, err := c.SectorSize(device)
	if err != nil {
		return err
	}

	for len(buf) > 0 {
		lba := offset / uint64(size)
		start := int(offset % uint64(size))

		line, err := c.sector(device, lba, size)
		if err != nil {
			return err
		}

		n := copy(buf, line.data[start:line.size])
		buf = buf[n:]
		offset += uint64(n)
	}

	return nil
}

// sector returns the line holding the given sector, loading it on a miss.
func (c *BlockCache) sector(device uint32, lba uint64, size int) (*cacheLine, error) {
	c.tick++

	// Invalid lines have a recency of 0, so they are always used before evicting anything.
	victim := &c.lines[0]
	for i := range c.lines {
		line := &c.lines[i]
		if line.valid && line.device == device && line.lba == lba {
			line.recency = c.tick
			return line, nil
		}
		if line.recency < victim.recency {
			victim = line
		}
	}

	victim.valid = false
	victim.recency = 0
	if err := c.device.ReadSector(device, lba, victim.data[:size]); err != nil {
		return nil, checkpoint.Wrapf(err, ErrDevice, "device %d lba %d", device, lba)
	}

	victim.valid = true
	victim.device = device
	victim.lba = lba
	victim.size = size
	victim.recency = c.tick
	return victim, nil
}
