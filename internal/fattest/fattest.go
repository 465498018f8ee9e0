// Package fattest builds FAT12, FAT16 and FAT32 images in memory for tests.
package fattest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf16"

	"github.com/aligator/fatboot/internal/mbr"
	"github.com/spf13/afero"
)

// Entry is a file or a directory to put on an image.
type Entry struct {
	// Name is the 8.3 name, for example "BOOTX64.EFI". It is stored as given.
	Name string
	// LongName is stored as VFAT fragments in front of the short entry if set.
	LongName string

	Dir      bool
	Data     []byte
	Children []Entry

	// Attr is added to the attributes. Directories get AttrDirectory on their own.
	Attr byte
	// NTReserved is stored as is, it holds the lower case flags.
	NTReserved byte

	WriteDate uint16
	WriteTime uint16

	// Deleted marks the entry and its long name fragments as deleted.
	Deleted bool
	// BadChecksum stores a wrong short name checksum in the long name fragments.
	BadChecksum bool
}

// File is a shortcut for a regular file entry.
func File(name string, data []byte) Entry {
	return Entry{Name: name, Data: data}
}

// Dir is a shortcut for a directory entry.
func Dir(name string, children ...Entry) Entry {
	return Entry{Name: name, Dir: true, Children: children}
}

// Geometry describes the layout of an image.
type Geometry struct {
	// Type is 12, 16 or 32.
	Type              int
	SectorSize        int
	SectorsPerCluster int
	ReservedSectors   int
	NumFATs           int
	// RootEntries is the size of the fixed root directory. It is ignored for FAT32.
	RootEntries  int
	TotalSectors int
	// FATSectors is calculated if 0.
	FATSectors int
	Label      string

	// Gap leaves this many free clusters behind every allocated cluster,
	// so no chain is stored contiguously.
	Gap int
}

// DefaultGeometry returns a small geometry of the given FAT type with 512 byte sectors.
func DefaultGeometry(fatType int) Geometry {
	switch fatType {
	case 12:
		// A 1.44 MB floppy.
		return Geometry{Type: 12, SectorSize: 512, SectorsPerCluster: 1, ReservedSectors: 1, NumFATs: 2, RootEntries: 224, TotalSectors: 2880, FATSectors: 9, Label: "FLOPPY"}
	case 16:
		return Geometry{Type: 16, SectorSize: 512, SectorsPerCluster: 1, ReservedSectors: 1, NumFATs: 2, RootEntries: 512, TotalSectors: 4300, Label: "BOOT"}
	default:
		return Geometry{Type: 32, SectorSize: 512, SectorsPerCluster: 1, ReservedSectors: 32, NumFATs: 2, TotalSectors: 8192, Label: "EFI"}
	}
}

// Image is a built FAT image.
type Image struct {
	Geometry Geometry
	Bytes    []byte

	FatPos          int64
	RootDirPos      int64
	FirstClusterPos int64
	RootCluster     uint32
	Clusters        int

	chains map[string][]uint32
}

type builder struct {
	img         *Image
	clusterSize int
	next        uint32
}

// Build creates an image with the given entries in its root directory.
func Build(g Geometry, root ...Entry) (*Image, error) {
	if g.Type != 12 && g.Type != 16 && g.Type != 32 {
		return nil, fmt.Errorf("fattest: unknown FAT type %d", g.Type)
	}
	if g.Type == 32 {
		g.RootEntries = 0
	}

	rootDirSectors := (g.RootEntries*32 + g.SectorSize - 1) / g.SectorSize
	if g.FATSectors == 0 {
		g.FATSectors = 1
		for {
			clusters := (g.TotalSectors - g.ReservedSectors - g.NumFATs*g.FATSectors - rootDirSectors) / g.SectorsPerCluster
			need := ((clusters+2)*g.Type/8 + g.SectorSize) / g.SectorSize
			if need <= g.FATSectors {
				break
			}
			g.FATSectors = need
		}
	}

	overhead := g.ReservedSectors + g.NumFATs*g.FATSectors + rootDirSectors
	if overhead >= g.TotalSectors {
		return nil, errors.New("fattest: no data region")
	}

	img := &Image{
		Geometry:        g,
		Bytes:           make([]byte, g.TotalSectors*g.SectorSize),
		FatPos:          int64(g.ReservedSectors * g.SectorSize),
		RootDirPos:      int64((g.ReservedSectors + g.NumFATs*g.FATSectors) * g.SectorSize),
		FirstClusterPos: int64(overhead * g.SectorSize),
		Clusters:        (g.TotalSectors - overhead) / g.SectorsPerCluster,
		chains:          map[string][]uint32{},
	}

	b := &builder{
		img:         img,
		clusterSize: g.SectorSize * g.SectorsPerCluster,
		next:        2,
	}
	b.bootSector()
	img.SetFAT(0, 0x0FFFFF00|0xF8)
	img.SetFAT(1, img.eoc())

	if g.Type == 32 {
		chain, err := b.alloc(dirSize(root, false, g.Label), true)
		if err != nil {
			return nil, err
		}
		img.RootCluster = chain[0]
		img.chains[""] = chain
		if err := b.dir("", root, chain, chain[0], 0, true); err != nil {
			return nil, err
		}
	} else {
		if dirSize(root, false, g.Label) > g.RootEntries*32 {
			return nil, fmt.Errorf("fattest: %d root entries are not enough", g.RootEntries)
		}
		if err := b.dir("", root, nil, 0, 0, true); err != nil {
			return nil, err
		}
	}
	return img, nil
}

func (b *builder) bootSector() {
	g := b.img.Geometry
	s := b.img.Bytes

	copy(s[0:], []byte{0xEB, 0x3C, 0x90})
	copy(s[3:11], "FATTEST ")
	binary.LittleEndian.PutUint16(s[11:], uint16(g.SectorSize))
	s[13] = byte(g.SectorsPerCluster)
	binary.LittleEndian.PutUint16(s[14:], uint16(g.ReservedSectors))
	s[16] = byte(g.NumFATs)
	binary.LittleEndian.PutUint16(s[17:], uint16(g.RootEntries))
	if g.Type != 32 && g.TotalSectors < 0x10000 {
		binary.LittleEndian.PutUint16(s[19:], uint16(g.TotalSectors))
	} else {
		binary.LittleEndian.PutUint32(s[32:], uint32(g.TotalSectors))
	}
	s[21] = 0xF8
	binary.LittleEndian.PutUint16(s[24:], 63)
	binary.LittleEndian.PutUint16(s[26:], 255)

	label := []byte(fmt.Sprintf("%-11s", g.Label))[:11]
	ext := 36
	if g.Type == 32 {
		binary.LittleEndian.PutUint32(s[36:], uint32(g.FATSectors))
		binary.LittleEndian.PutUint32(s[44:], 2)
		binary.LittleEndian.PutUint16(s[48:], 1)
		binary.LittleEndian.PutUint16(s[50:], 6)
		ext = 64
	} else {
		binary.LittleEndian.PutUint16(s[22:], uint16(g.FATSectors))
	}
	s[ext] = 0x80
	s[ext+2] = 0x29
	binary.LittleEndian.PutUint32(s[ext+3:], 0x12345678)
	copy(s[ext+7:ext+18], label)
	copy(s[ext+18:ext+26], fmt.Sprintf("FAT%-5d", g.Type))

	if g.SectorSize >= 512 {
		s[510] = 0x55
		s[511] = 0xAA
	}
}

func (img *Image) eoc() uint32 {
	switch img.Geometry.Type {
	case 12:
		return 0xFFF
	case 16:
		return 0xFFFF
	default:
		return 0x0FFFFFFF
	}
}

// SetFAT stores value as the FAT entry of cluster in all FAT copies.
func (img *Image) SetFAT(cluster, value uint32) {
	g := img.Geometry
	for i := 0; i < g.NumFATs; i++ {
		fat := img.Bytes[int(img.FatPos)+i*g.FATSectors*g.SectorSize:]
		switch g.Type {
		case 12:
			off := int(cluster + cluster/2)
			v := uint16(value & 0x0FFF)
			if cluster&1 == 1 {
				fat[off] = fat[off]&0x0F | byte(v<<4)
				fat[off+1] = byte(v >> 4)
			} else {
				fat[off] = byte(v)
				fat[off+1] = fat[off+1]&0xF0 | byte(v>>8)
			}
		case 16:
			binary.LittleEndian.PutUint16(fat[cluster*2:], uint16(value))
		default:
			binary.LittleEndian.PutUint32(fat[cluster*4:], value)
		}
	}
}

// ClusterOffset returns the byte offset of a data cluster.
func (img *Image) ClusterOffset(cluster uint32) int64 {
	return img.FirstClusterPos + int64(cluster-2)*int64(img.Geometry.SectorSize*img.Geometry.SectorsPerCluster)
}

// Chain returns the clusters allocated for the entry at the "/" separated path.
// The empty path is the FAT32 root directory.
func (img *Image) Chain(p string) []uint32 {
	return img.chains[strings.Trim(p, "/")]
}

// ReaderAt returns a reader over the image.
func (img *Image) ReaderAt() *bytes.Reader {
	return bytes.NewReader(img.Bytes)
}

// WriteFile stores the image as a file.
func (img *Image) WriteFile(fs afero.Fs, name string) error {
	return afero.WriteFile(fs, name, img.Bytes, 0644)
}

// alloc reserves the clusters for size bytes and links them.
// Directories get at least one cluster, empty files none.
func (b *builder) alloc(size int, dir bool) ([]uint32, error) {
	count := (size + b.clusterSize - 1) / b.clusterSize
	if dir && count == 0 {
		count = 1
	}

	chain := make([]uint32, 0, count)
	for i := 0; i < count; i++ {
		if int(b.next) > b.img.Clusters+1 {
			return nil, errors.New("fattest: image full")
		}
		chain = append(chain, b.next)
		b.next += 1 + uint32(b.img.Geometry.Gap)
	}
	for i, c := range chain {
		if i+1 < len(chain) {
			b.img.SetFAT(c, chain[i+1])
		} else {
			b.img.SetFAT(c, b.img.eoc())
		}
	}
	return chain, nil
}

// write stores data in the clusters of chain.
func (b *builder) write(chain []uint32, data []byte) {
	for _, c := range chain {
		n := copy(b.img.Bytes[b.img.ClusterOffset(c):b.img.ClusterOffset(c)+int64(b.clusterSize)], data)
		data = data[n:]
	}
}

// dirSize returns the size of the directory data in bytes.
func dirSize(entries []Entry, dots bool, label string) int {
	count := 0
	if dots {
		count += 2
	}
	if label != "" {
		count++
	}
	for _, e := range entries {
		count += 1 + lfnSlots(e.LongName)
	}
	return count * 32
}

func lfnSlots(name string) int {
	return (len(utf16.Encode([]rune(name))) + 12) / 13
}

func (b *builder) dir(p string, entries []Entry, chain []uint32, self, parent uint32, root bool) error {
	var raw []byte
	if root {
		if b.img.Geometry.Label != "" {
			raw = append(raw, shortEntry(b.img.Geometry.Label, 0x08, 0, 0)...)
		}
	} else {
		raw = append(raw, shortEntry(".", 0x10, self, 0)...)
		raw = append(raw, shortEntry("..", 0x10, parent, 0)...)
	}

	// Children of the root directory refer to it as cluster 0.
	if root {
		self = 0
	}

	for _, e := range entries {
		entryPath := path.Join(p, e.Name)

		var first uint32
		if e.Dir {
			childChain, err := b.alloc(dirSize(e.Children, true, ""), true)
			if err != nil {
				return err
			}
			b.img.chains[entryPath] = childChain
			first = childChain[0]
			if err := b.dir(entryPath, e.Children, childChain, first, self, false); err != nil {
				return err
			}
		} else if len(e.Data) > 0 {
			fileChain, err := b.alloc(len(e.Data), false)
			if err != nil {
				return err
			}
			b.img.chains[entryPath] = fileChain
			b.write(fileChain, e.Data)
			first = fileChain[0]
		}

		raw = append(raw, e.encode(first)...)
	}

	if chain == nil {
		copy(b.img.Bytes[b.img.RootDirPos:], raw)
		return nil
	}
	b.write(chain, raw)
	return nil
}

// rawName converts "NAME.EXT" into the space padded 11 byte form.
func rawName(name string) [11]byte {
	var raw [11]byte
	for i := range raw {
		raw[i] = ' '
	}
	if name == "." || name == ".." {
		copy(raw[:], name)
		return raw
	}

	base, ext := name, ""
	if i := strings.LastIndex(name, "."); i > 0 {
		base, ext = name[:i], name[i+1:]
	}
	copy(raw[:8], base)
	copy(raw[8:], ext)
	return raw
}

func checksum(raw [11]byte) byte {
	var sum byte
	for _, c := range raw {
		sum = (sum&1)<<7 + sum>>1 + c
	}
	return sum
}

func shortEntry(name string, attr byte, cluster uint32, size uint32) []byte {
	raw := rawName(name)
	if attr&0x08 != 0 {
		// Volume labels are not split into name and extension.
		copy(raw[:], fmt.Sprintf("%-11s", name))
	}

	e := make([]byte, 32)
	copy(e[0:11], raw[:])
	e[11] = attr
	binary.LittleEndian.PutUint16(e[20:], uint16(cluster>>16))
	binary.LittleEndian.PutUint16(e[26:], uint16(cluster))
	binary.LittleEndian.PutUint32(e[28:], size)
	return e
}

func (e Entry) encode(first uint32) []byte {
	attr := e.Attr
	size := uint32(len(e.Data))
	if e.Dir {
		attr |= 0x10
		size = 0
	}

	short := shortEntry(e.Name, attr, first, size)
	short[12] = e.NTReserved
	binary.LittleEndian.PutUint16(short[22:], e.WriteTime)
	binary.LittleEndian.PutUint16(short[24:], e.WriteDate)

	var out []byte
	if e.LongName != "" {
		sum := checksum(rawName(e.Name))
		if e.BadChecksum {
			sum++
		}
		out = append(out, longEntries(e.LongName, sum)...)
	}
	out = append(out, short...)

	if e.Deleted {
		for i := 0; i < len(out); i += 32 {
			out[i] = 0xE5
		}
	}
	return out
}

// longEntries encodes name as VFAT fragments in on-disk order, the last fragment first.
func longEntries(name string, sum byte) []byte {
	units := utf16.Encode([]rune(name))
	slots := (len(units) + 12) / 13
	padded := make([]uint16, slots*13)
	for i := range padded {
		switch {
		case i < len(units):
			padded[i] = units[i]
		case i == len(units):
			padded[i] = 0x0000
		default:
			padded[i] = 0xFFFF
		}
	}

	out := make([]byte, 0, slots*32)
	for ordinal := slots; ordinal >= 1; ordinal-- {
		e := make([]byte, 32)
		e[0] = byte(ordinal)
		if ordinal == slots {
			e[0] |= 0x40
		}
		e[11] = 0x0F
		e[13] = sum

		chars := padded[(ordinal-1)*13 : ordinal*13]
		for i, c := range chars {
			var off int
			switch {
			case i < 5:
				off = 1 + i*2
			case i < 11:
				off = 14 + (i-5)*2
			default:
				off = 28 + (i-11)*2
			}
			binary.LittleEndian.PutUint16(e[off:], c)
		}
		out = append(out, e...)
	}
	return out
}

// Disk places images as MBR partitions on one disk image. Partition i starts at startLBA[i].
func Disk(sectorSize int, parts []*Image, startLBA []uint32, types []mbr.PartitionType) []byte {
	size := mbr.Size
	var table []mbr.Partition
	for i, img := range parts {
		end := int(startLBA[i])*sectorSize + len(img.Bytes)
		if end > size {
			size = end
		}
		table = append(table, mbr.Partition{
			Index:    i,
			Bootable: i == 0,
			Type:     types[i],
			StartLBA: startLBA[i],
			Sectors:  uint32(len(img.Bytes) / sectorSize),
		})
	}

	disk := make([]byte, size)
	copy(disk, mbr.Encode(table...))
	for i, img := range parts {
		copy(disk[int(startLBA[i])*sectorSize:], img.Bytes)
	}
	return disk
}
