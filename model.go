// File model contains the structs which match the on-disk structures of the FAT filesystem.
// All of them are decoded field by field as little endian, independent of the host layout.

package fatboot

import (
	"bytes"
	"encoding/binary"
)

const (
	bootSectorSize   = 90
	entrySize        = 32
	lfnCharsPerEntry = 13
)

// BPB is the BIOS Parameter Block shared by all FAT types.
type BPB struct {
	BSJumpBoot          [3]byte
	BSOEMName           [8]byte
	BytesPerSector      uint16
	SectorsPerCluster   byte
	ReservedSectorCount uint16
	NumFATs             byte
	RootEntryCount      uint16
	TotalSectors16      uint16
	Media               byte
	FATSize16           uint16
	SectorsPerTrack     uint16
	NumberOfHeads       uint16
	HiddenSectors       uint32
	TotalSectors32      uint32
	FATSpecificData     [54]byte
}

// FAT32SpecificData is the extended BPB of FAT32 volumes stored in BPB.FATSpecificData.
type FAT32SpecificData struct {
	FATSize32        uint32
	ExtFlags         uint16
	FSVersion        uint16
	RootCluster      uint32
	FSInfo           uint16
	BkBootSector     uint16
	Reserved         [12]byte
	BSDriveNumber    byte
	BSReserved1      byte
	BSBootSignature  byte
	BSVolumeID       uint32
	BSVolumeLabel    [11]byte
	BSFileSystemType [8]byte
}

// EntryHeader is a 8.3 short directory entry.
type EntryHeader struct {
	Name            [11]byte
	Attribute       byte
	NTReserved      byte
	CreateTimeTenth byte
	CreateTime      uint16
	CreateDate      uint16
	LastAccessDate  uint16
	FirstClusterHI  uint16
	WriteTime       uint16
	WriteDate       uint16
	FirstClusterLO  uint16
	FileSize        uint32
}

// LongFilenameEntry is one VFAT fragment holding 13 UTF-16 code units of a long name.
type LongFilenameEntry struct {
	Sequence  byte
	First     [5]uint16
	Attribute byte
	EntryType byte
	Checksum  byte
	Second    [6]uint16
	Zero      [2]byte
	Third     [2]uint16
}

// Markers found in the first name byte of a directory entry.
const (
	entryEnd     = 0x00
	entryDeleted = 0xE5

	// entryKanji is stored instead of a leading 0xE5 which would mark the entry as deleted.
	entryKanji = 0x05

	lfnLast        = 0x40
	lfnOrdinalMask = 0x3F

	// NTReserved flags set by Windows for short names which are entirely lower case.
	ntLowerBase = 0x08
	ntLowerExt  = 0x10
)

func decode(b []byte, v interface{}) {
	// The sizes are checked by all callers, so decoding cannot fail.
	_ = binary.Read(bytes.NewReader(b), binary.LittleEndian, v)
}

func parseBPB(b []byte) (BPB, FAT32SpecificData) {
	var bpb BPB
	var ext FAT32SpecificData
	decode(b[:bootSectorSize], &bpb)
	decode(bpb.FATSpecificData[:], &ext)
	return bpb, ext
}

func parseEntryHeader(b []byte) EntryHeader {
	var h EntryHeader
	decode(b[:entrySize], &h)
	return h
}

func parseLongFilenameEntry(b []byte) LongFilenameEntry {
	var l LongFilenameEntry
	decode(b[:entrySize], &l)
	return l
}

// FirstCluster combines the high and low cluster number fields.
func (h EntryHeader) FirstCluster() uint32 {
	return uint32(h.FirstClusterHI)<<16 | uint32(h.FirstClusterLO)
}

// Checksum is the short name checksum stored in every LFN fragment of this entry.
func (h EntryHeader) Checksum() byte {
	var sum byte
	for _, c := range h.Name {
		sum = (sum&1)<<7 + sum>>1 + c
	}
	return sum
}

// Ordinal returns the position of the fragment in its long name, starting at 1.
func (l LongFilenameEntry) Ordinal() int {
	return int(l.Sequence & lfnOrdinalMask)
}

// IsLast reports whether this is the fragment with the highest ordinal, stored first on disk.
func (l LongFilenameEntry) IsLast() bool {
	return l.Sequence&lfnLast != 0
}

// Chars returns the 13 UTF-16 code units of the fragment in name order.
func (l LongFilenameEntry) Chars() [lfnCharsPerEntry]uint16 {
	var chars [lfnCharsPerEntry]uint16
	n := copy(chars[:], l.First[:])
	n += copy(chars[n:], l.Second[:])
	copy(chars[n:], l.Third[:])
	return chars
}
