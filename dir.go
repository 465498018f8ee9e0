package fatboot

import (
	"io"
	"unicode/utf16"

	"github.com/aligator/fatboot/checkpoint"
)

// A long name has at most 255 characters, which needs 20 fragments.
const maxLfnEntries = 20

// lfnState accumulates the fragments of a long name until its short entry is reached.
type lfnState struct {
	active   bool
	checksum byte
	// next is the ordinal the next fragment must have. It is 0 once all fragments were seen.
	next  int
	chars []uint16
}

func (l *lfnState) reset() {
	l.active = false
	l.next = 0
	l.chars = l.chars[:0]
}

func (l *lfnState) add(e LongFilenameEntry) {
	ordinal := e.Ordinal()
	if e.IsLast() {
		if ordinal == 0 || ordinal > maxLfnEntries {
			l.reset()
			return
		}
		l.active = true
		l.checksum = e.Checksum
		l.next = ordinal
		if cap(l.chars) < ordinal*lfnCharsPerEntry {
			l.chars = make([]uint16, ordinal*lfnCharsPerEntry)
		}
		l.chars = l.chars[:ordinal*lfnCharsPerEntry]
	}

	if !l.active || ordinal != l.next || e.Checksum != l.checksum {
		l.reset()
		return
	}

	chars := e.Chars()
	copy(l.chars[(ordinal-1)*lfnCharsPerEntry:], chars[:])
	l.next--
}

// take returns the accumulated name if it is complete and belongs to a short entry with the given checksum.
// The state is reset in any case.
func (l *lfnState) take(checksum byte) string {
	defer l.reset()
	if !l.active || l.next != 0 || l.checksum != checksum {
		return ""
	}

	chars := l.chars
	for i, c := range chars {
		if c == 0x0000 {
			chars = chars[:i]
			break
		}
	}
	// Unused characters after the terminator are padded with 0xFFFF.
	for len(chars) > 0 && chars[len(chars)-1] == 0xFFFF {
		chars = chars[:len(chars)-1]
	}
	return string(utf16.Decode(chars))
}

// DirIterator yields the entries of a directory one by one.
// It moves the cursor of the directory File it was created for.
type DirIterator struct {
	vol  *Volume
	dir  *File
	lfn  lfnState
	done bool
}

// OpenDir rewinds dir and returns an iterator over its entries.
func (v *Volume) OpenDir(dir *File) (*DirIterator, error) {
	if !dir.IsDir() {
		return nil, checkpoint.Wrapf(ErrNotDirectory, ErrNotDirectory, "%q", dir.Name())
	}
	if err := v.SetFilePos(dir, 0); err != nil {
		return nil, err
	}
	return &DirIterator{vol: v, dir: dir}, nil
}

// accepts applies an attribute filter. A filter of 0 accepts files and directories,
// any other filter requires all of its bits. Volume labels are never returned.
func accepts(attr, filter Attr) bool {
	if attr&AttrVolumeID != 0 {
		return false
	}
	return attr&filter == filter
}

// Next returns the next entry matching filter. io.EOF is returned after the last entry.
// A long name whose fragments do not match the checksum of their short entry is dropped,
// the entry is still returned with its short name.
func (it *DirIterator) Next(filter Attr) (*File, error) {
	var raw [entrySize]byte
	for !it.done {
		n, err := it.vol.ReadFile(it.dir, raw[:])
		if err != nil && err != io.EOF {
			return nil, err
		}
		if n < entrySize {
			it.done = true
			break
		}

		switch raw[0] {
		case entryEnd:
			it.done = true
			continue
		case entryDeleted:
			it.lfn.reset()
			continue
		}

		if Attr(raw[11])&0x3F == AttrLongName {
			it.lfn.add(parseLongFilenameEntry(raw[:]))
			continue
		}

		header := parseEntryHeader(raw[:])
		longName := it.lfn.take(header.Checksum())

		attr := Attr(header.Attribute)
		if !accepts(attr, filter) {
			continue
		}

		return it.vol.newFile(header, longName), nil
	}

	return nil, io.EOF
}

func (v *Volume) newFile(header EntryHeader, longName string) *File {
	f := &File{
		ShortName:       shortName(header),
		LongName:        longName,
		Attributes:      Attr(header.Attribute),
		StartingCluster: header.FirstCluster(),
		FileSize:        header.FileSize,
		Header:          header,
		vol:             v,
	}

	if f.IsDir() {
		f.FileSize = 0
		// ".." entries of first level directories point to cluster 0.
		if f.StartingCluster == 0 {
			root := v.Root()
			f.StartingCluster = root.StartingCluster
			f.IsFixedRootDir = root.IsFixedRootDir
		}
	}
	return f
}

// ReadDir returns all files and directories in dir except "." and "..".
func (v *Volume) ReadDir(dir *File) ([]*File, error) {
	it, err := v.OpenDir(dir)
	if err != nil {
		return nil, err
	}

	var files []*File
	for {
		f, err := it.Next(0)
		if err == io.EOF {
			return files, nil
		}
		if err != nil {
			return files, err
		}
		if f.ShortName == "." || f.ShortName == ".." {
			continue
		}
		files = append(files, f)
	}
}
