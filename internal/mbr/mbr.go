/*
Package mbr reads and writes the partition table of a Master Boot Record.

Only the four primary entries are supported. Extended partitions are reported with their type
but are not followed.
*/
package mbr

import (
	"encoding/binary"
	"errors"
)

const (
	// Size is the size of the MBR, independent of the sector size of the disk.
	Size = 512

	BootSignature = 0xAA55

	tableOffset     = 446
	entryLen        = 16
	entries         = 4
	signatureOffset = 510
)

var (
	ErrTooShort   = errors.New("mbr: sector shorter than 512 bytes")
	ErrNoBootSign = errors.New("mbr: missing boot signature")
)

// PartitionType is the system id of a partition entry.
type PartitionType byte

const (
	TypeUnused        PartitionType = 0x00
	TypeFAT12         PartitionType = 0x01
	TypeFAT16         PartitionType = 0x04
	TypeExtendedCHS   PartitionType = 0x05
	TypeFAT16B        PartitionType = 0x06
	TypeNTFS          PartitionType = 0x07
	TypeFAT32CHS      PartitionType = 0x0B
	TypeFAT32LBA      PartitionType = 0x0C
	TypeFAT16BLBA     PartitionType = 0x0E
	TypeExtendedLBA   PartitionType = 0x0F
	TypeLinux         PartitionType = 0x83
	TypeGPTProtective PartitionType = 0xEE
	TypeEFISystem     PartitionType = 0xEF
)

// MayBeFAT reports whether a partition of this type can hold a FAT volume.
// EFI system partitions are FAT formatted.
func (t PartitionType) MayBeFAT() bool {
	switch t {
	case TypeFAT12, TypeFAT16, TypeFAT16B, TypeFAT32CHS, TypeFAT32LBA, TypeFAT16BLBA, TypeEFISystem:
		return true
	default:
		return false
	}
}

// Partition is one used entry of the partition table.
type Partition struct {
	// Index is the position in the table, 0 to 3.
	Index    int
	Bootable bool
	Type     PartitionType
	StartLBA uint32
	Sectors  uint32
}

// Parse returns the used entries of the partition table in sector.
// Entries with type TypeUnused or without sectors are skipped.
func Parse(sector []byte) ([]Partition, error) {
	if len(sector) < Size {
		return nil, ErrTooShort
	}
	if binary.LittleEndian.Uint16(sector[signatureOffset:]) != BootSignature {
		return nil, ErrNoBootSign
	}

	var partitions []Partition
	for i := 0; i < entries; i++ {
		e := sector[tableOffset+i*entryLen : tableOffset+(i+1)*entryLen]
		p := Partition{
			Index:    i,
			Bootable: e[0]&0x80 != 0,
			Type:     PartitionType(e[4]),
			StartLBA: binary.LittleEndian.Uint32(e[8:12]),
			Sectors:  binary.LittleEndian.Uint32(e[12:16]),
		}
		if p.Type == TypeUnused || p.Sectors == 0 {
			continue
		}
		partitions = append(partitions, p)
	}
	return partitions, nil
}

// Encode creates an MBR holding the given partitions at their Index.
// The CHS fields are left empty, only the LBA fields are set.
func Encode(partitions ...Partition) []byte {
	sector := make([]byte, Size)
	for _, p := range partitions {
		if p.Index < 0 || p.Index >= entries {
			continue
		}
		e := sector[tableOffset+p.Index*entryLen : tableOffset+(p.Index+1)*entryLen]
		if p.Bootable {
			e[0] = 0x80
		}
		e[4] = byte(p.Type)
		binary.LittleEndian.PutUint32(e[8:12], p.StartLBA)
		binary.LittleEndian.PutUint32(e[12:16], p.Sectors)
	}
	binary.LittleEndian.PutUint16(sector[signatureOffset:], BootSignature)
	return sector
}
