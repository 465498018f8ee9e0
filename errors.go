package fatboot

import (
	"errors"
	"syscall"
)

// These errors may occur while probing a volume or resolving files on it.
// They are usually wrapped by a checkpoint, so compare them using errors.Is.
var (
	// ErrNotFat is returned if a boot sector does not describe a usable FAT volume.
	// Callers are expected to move on to the next device or partition.
	ErrNotFat = errors.New("no valid FAT volume")

	// ErrDevice wraps every failed physical sector read. The device error itself stays matchable.
	ErrDevice = errors.New("block device read failed")

	// ErrSectorSize means a device reports a sector size the BlockCache cannot hold.
	ErrSectorSize = errors.New("unsupported sector size")

	ErrNotFound      = errors.New("file not found")
	ErrNotDirectory  = errors.New("not a directory")
	ErrCorruptVolume = errors.New("corrupt cluster chain")

	// ErrInvalidPosition is returned when seeking past the end of a file.
	ErrInvalidPosition = errors.New("position out of range")

	// ErrReadOnly is returned by every afero.Fs operation that would modify the volume.
	ErrReadOnly = syscall.EROFS
)
