package fatboot

import (
	"fmt"
	"io"
)

// SectorReader is the raw block I/O the FAT reader is built on.
// ReadSector always transfers exactly one sector; there are no partial reads.
// Generated mock using mockgen:
//  mockgen -source=device.go -destination=device_mock.go -package fatboot
type SectorReader interface {
	// SectorSize returns the physical sector size of the device in bytes.
	SectorSize(device uint32) (int, error)
	// ReadSector fills buf, which has exactly one sector size, with the sector at lba.
	ReadSector(device uint32, lba uint64, buf []byte) error
}

// ImageDevice serves disk images as block devices.
// The device index is the index into Images.
type ImageDevice struct {
	Images []io.ReaderAt
	// Sector is the sector size used for all images. 512 if zero.
	Sector int
}

// NewImageDevice creates an ImageDevice with 512 byte sectors.
func NewImageDevice(images ...io.ReaderAt) *ImageDevice {
	return &ImageDevice{Images: images, Sector: 512}
}

func (d *ImageDevice) SectorSize(device uint32) (int, error) {
	if int(device) >= len(d.Images) {
		return 0, fmt.Errorf("no device %d", device)
	}
	if d.Sector == 0 {
		return 512, nil
	}
	return d.Sector, nil
}

func (d *ImageDevice) ReadSector(device uint32, lba uint64, buf []byte) error {
	size, err := d.SectorSize(device)
	if err != nil {
		return err
	}
	if len(buf) != size {
		return fmt.Errorf("buffer of %d bytes for a %d byte sector", len(buf), size)
	}

	n, err := d.Images[device].ReadAt(buf, int64(lba)*int64(size))
	if n == len(buf) {
		// ReaderAt may report io.EOF together with the last full block.
		return nil
	}
	if err == nil || err == io.EOF {
		return fmt.Errorf("lba %d beyond end of device %d", lba, device)
	}
	return err
}
