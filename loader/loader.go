// Package loader finds the boot payload on a set of block devices and loads it into memory.
//
// Each configured device is probed for a FAT volume. Devices without one are searched for MBR
// partitions if enabled. On the first volume holding one of the candidate paths the file is read,
// unpacked if it is a packed LZ4 payload, and measured with BLAKE3.
package loader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aligator/fatboot"
	"github.com/aligator/fatboot/checkpoint"
	"github.com/aligator/fatboot/lz4"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"
)

var (
	// ErrNoPayload is returned if none of the candidate paths exists on any volume.
	ErrNoPayload = errors.New("no boot payload found")
	// ErrLoad wraps every error which occurred after the payload was found.
	ErrLoad = errors.New("cannot load boot payload")
)

// Payload is a loaded boot file.
type Payload struct {
	// Source names the device or partition the payload was read from.
	Source  string
	Label   string
	FatType fatboot.FatType
	// Path is the candidate path which matched.
	Path string

	Data []byte
	// StoredSize is the size of the file on the volume. It differs from len(Data) for packed payloads.
	StoredSize int
	Compressed bool
	// Digest is the BLAKE3-256 hash of Data.
	Digest [32]byte
}

// Loader searches the configured devices for the boot payload.
type Loader struct {
	cfg     *Config
	devices *PartitionMap
	cache   *fatboot.BlockCache
	alloc   Allocator
	log     logrus.FieldLogger
}

// New creates a Loader reading from device.
// If alloc is nil, a HeapAllocator limited to cfg.MaxSize is used.
func New(cfg *Config, device fatboot.SectorReader, alloc Allocator, log logrus.FieldLogger) *Loader {
	devices := NewPartitionMap(device)
	if alloc == nil {
		alloc = &HeapAllocator{Limit: cfg.MaxSize}
	}
	return &Loader{
		cfg:     cfg,
		devices: devices,
		cache:   fatboot.NewBlockCache(devices, cfg.CacheLines),
		alloc:   alloc,
		log:     log,
	}
}

// Load returns the first candidate path found on the first usable volume.
//
// Missing filesystems, missing files and device errors while probing or searching make the
// loader move on to the next path, partition or device. Once a file is found, every error
// while reading, allocating or unpacking it ends the load with an error matching ErrLoad.
func (l *Loader) Load() (*Payload, error) {
	for _, device := range l.cfg.Devices {
		payload, err := l.loadDevice(device)
		if err != nil || payload != nil {
			return payload, err
		}
	}
	return nil, checkpoint.Wrapf(ErrNoPayload, ErrNoPayload, "searched %d devices for %v", len(l.cfg.Devices), l.cfg.Paths)
}

func (l *Loader) loadDevice(device uint32) (*Payload, error) {
	index := l.devices.AddDevice(device)
	payload, err := l.loadVolume(index)
	if err == nil || !errors.Is(err, fatboot.ErrNotFat) {
		return payload, err
	}

	if !l.cfg.ScanPartitions {
		l.log.WithField("device", device).Info("no filesystem, trying next device")
		return nil, nil
	}

	partitions, err := l.devices.AddPartitions(device)
	if err != nil {
		l.log.WithField("device", device).WithError(err).Info("no filesystem and no partition table, trying next device")
		return nil, nil
	}
	for _, index := range partitions {
		payload, err := l.loadVolume(index)
		if errors.Is(err, fatboot.ErrNotFat) {
			l.log.WithField("source", l.devices.Describe(index)).Info("no filesystem, trying next partition")
			continue
		}
		if err != nil || payload != nil {
			return payload, err
		}
	}
	return nil, nil
}

// loadVolume probes one mapped device. It returns errors matching fatboot.ErrNotFat
// unchanged so the caller can decide about partitions.
// A nil payload without error means the volume holds none of the paths.
func (l *Loader) loadVolume(index uint32) (*Payload, error) {
	source := l.devices.Describe(index)
	log := l.log.WithField("source", source)

	vol, err := fatboot.Probe(l.cache, index)
	if errors.Is(err, fatboot.ErrNotFat) {
		return nil, err
	}
	if err != nil {
		log.WithError(err).Warn("cannot read the boot sector, trying next device")
		return nil, nil
	}
	log = log.WithFields(logrus.Fields{"type": vol.FatType, "label": vol.Label})
	log.Debug("found filesystem")

	for _, path := range l.cfg.Paths {
		f, err := vol.FindFile(path)
		if errors.Is(err, fatboot.ErrNotFound) {
			log.WithField("path", path).Debug("not found, trying next path")
			continue
		}
		if err != nil {
			log.WithField("path", path).WithError(err).Warn("cannot search the volume, trying next device")
			return nil, nil
		}
		if f.IsDir() {
			log.WithField("path", path).Debug("is a directory, trying next path")
			continue
		}

		payload, err := l.read(vol, f, path)
		if err != nil {
			return nil, checkpoint.Wrapf(err, ErrLoad, "%s from %s", path, source)
		}
		payload.Source = source

		log.WithFields(logrus.Fields{
			"path":       path,
			"size":       len(payload.Data),
			"stored":     payload.StoredSize,
			"compressed": payload.Compressed,
			"blake3":     fmt.Sprintf("%x", payload.Digest),
		}).Info("loaded boot payload")
		return payload, nil
	}
	return nil, nil
}

func (l *Loader) compressed(path string) bool {
	switch l.cfg.Compressed {
	case CompressionAlways:
		return true
	case CompressionNever:
		return false
	default:
		return strings.HasSuffix(strings.ToLower(path), ".lz4")
	}
}

// read loads f into a buffer of the allocator and unpacks it if needed.
func (l *Loader) read(vol *fatboot.Volume, f *fatboot.File, path string) (*Payload, error) {
	stored, err := l.alloc.Allocate(int(f.FileSize))
	if err != nil {
		return nil, err
	}

	n, err := vol.ReadFile(f, stored)
	if err != nil {
		l.alloc.Free(stored)
		return nil, err
	}

	payload := &Payload{
		Label:      vol.Label,
		FatType:    vol.FatType,
		Path:       path,
		Data:       stored[:n],
		StoredSize: n,
	}

	if l.compressed(path) {
		data, err := l.unpack(stored[:n])
		l.alloc.Free(stored)
		if err != nil {
			return nil, err
		}
		payload.Data = data
		payload.Compressed = true
	}

	payload.Digest = blake3.Sum256(payload.Data)
	return payload, nil
}

func (l *Loader) unpack(packed []byte) ([]byte, error) {
	size, err := lz4.PackedSize(packed)
	if err != nil {
		return nil, err
	}

	data, err := l.alloc.Allocate(size)
	if err != nil {
		return nil, err
	}
	n, err := lz4.UnpackInto(packed, data)
	if err != nil {
		l.alloc.Free(data)
		return nil, err
	}
	return data[:n], nil
}
