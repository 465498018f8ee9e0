package fatboot

import (
	"strings"

	"github.com/aligator/fatboot/checkpoint"
)

// FatType is the FAT variant of a volume. It is fixed when the volume is probed.
type FatType uint8

const (
	Fat12 FatType = iota + 1
	Fat16
	Fat32
)

func (t FatType) String() string {
	switch t {
	case Fat12:
		return "FAT12"
	case Fat16:
		return "FAT16"
	case Fat32:
		return "FAT32"
	default:
		return "unknown"
	}
}

// Volumes with fewer clusters are FAT12, volumes with more are FAT32.
// The limits are the ones from the Microsoft FAT specification.
const (
	maxFat12Clusters = 4084
	maxFat16Clusters = 65524
	firstCluster     = 2
	bootSignature    = 0x29
)

// Volume is one probed FAT filesystem. It holds the derived geometry as byte offsets
// and is never modified after Probe returned it.
type Volume struct {
	FatType     FatType
	SectorSize  uint32
	ClusterSize uint32

	// FirstClusterPos is the byte offset of cluster 2, the start of the data region.
	FirstClusterPos uint64
	// FatPos is the byte offset of the first File Allocation Table.
	FatPos uint64

	// RootDirPos and RootEntries describe the fixed root directory of FAT12 and FAT16.
	// RootEntries is 0 for FAT32.
	RootDirPos  uint64
	RootEntries uint32
	// RootDirCluster is the first cluster of the FAT32 root directory.
	RootDirCluster uint32

	// MaxCluster is the highest valid cluster number.
	MaxCluster uint32

	Device uint32
	Label  string

	cache *BlockCache
}

// Probe reads the boot sector of a device and derives the volume geometry from it.
// It returns an error matching ErrNotFat if there is no usable FAT volume, in which case
// the caller should try the next device or partition.
func Probe(cache *BlockCache, device uint32) (*Volume, error) {
	buf := make([]byte, bootSectorSize)
	if err := cache.ReadBytes(device, 0, buf); err != nil {
		return nil, checkpoint.From(err)
	}

	bpb, ext := parseBPB(buf)
	v := &Volume{
		Device: device,
		cache:  cache,
	}
	if err := v.initialize(bpb, ext); err != nil {
		return nil, err
	}
	return v, nil
}

func notFat(format string, args ...interface{}) error {
	return checkpoint.Wrapf(ErrNotFat, ErrNotFat, format, args...)
}

func isPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

func (v *Volume) initialize(bpb BPB, ext FAT32SpecificData) error {
	sectorSize := uint32(bpb.BytesPerSector)
	sectorsPerCluster := uint32(bpb.SectorsPerCluster)

	if sectorSize == 0 || sectorsPerCluster == 0 {
		return notFat("zero sector size or sectors per cluster")
	}
	if !isPowerOfTwo(sectorSize) || sectorSize > MaxSectorSize {
		return notFat("invalid sector size %d", sectorSize)
	}
	if !isPowerOfTwo(sectorsPerCluster) {
		return notFat("invalid sectors per cluster %d", sectorsPerCluster)
	}
	if bpb.ReservedSectorCount == 0 || bpb.NumFATs == 0 {
		return notFat("no reserved sectors or no FAT")
	}

	totalSectors := uint64(bpb.TotalSectors16)
	if totalSectors == 0 {
		totalSectors = uint64(bpb.TotalSectors32)
	}
	if totalSectors == 0 {
		return notFat("zero total sectors")
	}

	rootEntries := uint32(bpb.RootEntryCount)
	rootDirSectors := (uint64(rootEntries)*entrySize + uint64(sectorSize) - 1) / uint64(sectorSize)

	fatSectors := uint64(bpb.FATSize16)
	if fatSectors == 0 {
		fatSectors = uint64(ext.FATSize32)
	}
	if fatSectors == 0 {
		return notFat("zero FAT size")
	}

	reserved := uint64(bpb.ReservedSectorCount)
	fatArea := uint64(bpb.NumFATs) * fatSectors
	overhead := reserved + fatArea + rootDirSectors
	if totalSectors <= overhead {
		return notFat("no data region, %d total sectors and %d overhead sectors", totalSectors, overhead)
	}

	clusters := (totalSectors - overhead) / uint64(sectorsPerCluster)
	if clusters == 0 {
		return notFat("no clusters")
	}

	switch {
	case rootDirSectors == 0:
		v.FatType = Fat32
	case clusters <= maxFat12Clusters:
		v.FatType = Fat12
	case clusters <= maxFat16Clusters:
		v.FatType = Fat16
	default:
		return notFat("%d clusters do not fit a FAT16 with a fixed root directory", clusters)
	}
	if clusters+1 >= uint64(v.badCluster()) {
		return notFat("%d clusters exceed the %v range", clusters, v.FatType)
	}

	v.SectorSize = sectorSize
	v.ClusterSize = sectorSize * sectorsPerCluster
	v.MaxCluster = uint32(clusters) + 1
	v.FatPos = reserved * uint64(sectorSize)
	v.FirstClusterPos = overhead * uint64(sectorSize)

	if fatSectors*uint64(sectorSize)*8 < (uint64(v.MaxCluster)+1)*uint64(v.entryBits()) {
		return notFat("FAT of %d sectors cannot map %d clusters", fatSectors, clusters)
	}

	var labelField []byte
	if v.FatType == Fat32 {
		if ext.RootCluster < firstCluster || ext.RootCluster > v.MaxCluster {
			return notFat("root cluster %d out of range", ext.RootCluster)
		}
		v.RootDirCluster = ext.RootCluster
		if ext.BSBootSignature == bootSignature {
			labelField = ext.BSVolumeLabel[:]
		}
	} else {
		v.RootEntries = rootEntries
		v.RootDirPos = (reserved + fatArea) * uint64(sectorSize)
		// BSDriveNumber, BSReserved1, BSBootSignature and BSVolumeId precede the label.
		if bpb.FATSpecificData[2] == bootSignature {
			labelField = bpb.FATSpecificData[7:18]
		}
	}
	v.Label = strings.TrimRight(string(labelField), " \x00")

	return nil
}

func (v *Volume) entryBits() uint32 {
	switch v.FatType {
	case Fat12:
		return 12
	case Fat16:
		return 16
	default:
		return 32
	}
}

// badCluster is the FAT value marking a bad cluster. It and every higher value end a chain.
func (v *Volume) badCluster() uint32 {
	switch v.FatType {
	case Fat12:
		return 0xFF7
	case Fat16:
		return 0xFFF7
	default:
		return 0x0FFFFFF7
	}
}

// clusterPos returns the byte offset of a data cluster.
func (v *Volume) clusterPos(cluster uint32) uint64 {
	return v.FirstClusterPos + uint64(cluster-firstCluster)*uint64(v.ClusterSize)
}

// rootDirSize is the size of the fixed FAT12/FAT16 root directory in bytes.
func (v *Volume) rootDirSize() uint32 {
	return v.RootEntries * entrySize
}
