package fatboot

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Attr is the attribute bitset of a directory entry.
type Attr uint8

const (
	AttrReadOnly  Attr = 0x01
	AttrHidden    Attr = 0x02
	AttrSystem    Attr = 0x04
	AttrVolumeID  Attr = 0x08
	AttrDirectory Attr = 0x10
	AttrArchive   Attr = 0x20

	// AttrLongName marks a VFAT long file name fragment.
	AttrLongName = AttrReadOnly | AttrHidden | AttrSystem | AttrVolumeID
)

// File is a resolved directory entry together with a read cursor.
// Files are created by a DirIterator or by Volume.FindFile.
type File struct {
	// ShortName is the 8.3 name, for example "README.TXT".
	ShortName string
	// LongName is the VFAT name. It is empty if the entry has none or its checksum did not match.
	LongName string

	Attributes      Attr
	StartingCluster uint32
	// FileSize is 0 for directories.
	FileSize uint32
	// IsFixedRootDir is only set for the root directory of FAT12 and FAT16 volumes.
	IsFixedRootDir bool

	// Header is the raw short entry. It is zero for the root directory.
	Header EntryHeader

	vol  *Volume
	root bool

	// currentCluster is the clusterIndex'th cluster of the chain. It is 0 until the
	// cursor was first positioned and for files without clusters.
	currentCluster uint32
	clusterIndex   uint32
	currentPos     uint32
}

// Root returns the root directory of the volume with its cursor at 0.
func (v *Volume) Root() *File {
	f := &File{
		ShortName:  "\\",
		Attributes: AttrDirectory,
		vol:        v,
		root:       true,
	}
	if v.FatType == Fat32 {
		f.StartingCluster = v.RootDirCluster
	} else {
		f.IsFixedRootDir = true
	}
	return f
}

// Name returns the long name if there is one and the short name otherwise.
func (f *File) Name() string {
	if f.LongName != "" {
		return f.LongName
	}
	return f.ShortName
}

func (f *File) isRoot() bool {
	return f.root
}

func (f *File) IsDir() bool {
	return f.Attributes&AttrDirectory != 0
}

// Pos is the current cursor position in bytes.
func (f *File) Pos() uint32 {
	return f.currentPos
}

// Volume returns the volume the file belongs to.
func (f *File) Volume() *Volume {
	return f.vol
}

// MatchName compares name against the short and the long name of the file.
// The comparison folds case but never matches prefixes.
func (f *File) MatchName(name string) bool {
	if strings.EqualFold(name, f.ShortName) {
		return true
	}
	return f.LongName != "" && strings.EqualFold(name, f.LongName)
}

// shortName converts the space padded 8.3 name of an entry into "NAME.EXT".
func shortName(h EntryHeader) string {
	raw := h.Name
	if raw[0] == entryKanji {
		raw[0] = entryDeleted
	}

	base := oemString(bytes.TrimRight(raw[:8], " "))
	ext := oemString(bytes.TrimRight(raw[8:], " "))

	if h.NTReserved&ntLowerBase != 0 {
		base = strings.ToLower(base)
	}
	if h.NTReserved&ntLowerExt != 0 {
		ext = strings.ToLower(ext)
	}

	if ext == "" {
		return base
	}
	return base + "." + ext
}

// oemString decodes short names stored in the OEM code page 437.
func oemString(b []byte) string {
	decoded, err := charmap.CodePage437.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}
