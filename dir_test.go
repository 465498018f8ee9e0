package fatboot

import (
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/aligator/fatboot/internal/fattest"
)

func names(files []*File) []string {
	result := make([]string, len(files))
	for i, f := range files {
		result[i] = f.Name()
	}
	return result
}

func TestVolume_ReadDir(t *testing.T) {
	fatTypes(t, func(t *testing.T, g fattest.Geometry) {
		vol := openVolume(t, buildImage(t, g, bootTree()...))

		files, err := vol.ReadDir(vol.Root())
		if err != nil {
			t.Fatalf("Volume.ReadDir() error = %v", err)
		}

		// The volume label and the deleted file are not listed.
		want := []string{"EFI", "readme.md", "HelloWorldThisIsALoongFileName.txt", "EMPTY.TXT"}
		if got := names(files); !reflect.DeepEqual(got, want) {
			t.Errorf("Volume.ReadDir() = %v, want %v", got, want)
		}

		hello := files[2]
		if hello.ShortName != "HELLOW~1.TXT" || hello.FileSize != 12 || hello.IsDir() {
			t.Errorf("Volume.ReadDir() entry = %+v", hello)
		}
		if !files[0].IsDir() || files[0].FileSize != 0 {
			t.Errorf("Volume.ReadDir() EFI = %+v, want a directory", files[0])
		}
	})
}

func TestDirIterator_Next(t *testing.T) {
	tree := []fattest.Entry{
		fattest.Dir("SUB", fattest.File("INNER.TXT", []byte("x"))),
		{Name: "HIDDEN.SYS", Attr: byte(AttrHidden | AttrSystem), Data: []byte("sys")},
		{Name: "LONG.TXT", LongName: "ABCDEFGHIJKLMNOPQRSTUVWXYZ", Data: []byte("26")},
		{Name: "GRUSSE.TXT", LongName: "Grüße aus Köln.txt", Data: []byte("utf")},
		{Name: "BROKEN.TXT", LongName: "broken checksum.txt", BadChecksum: true},
		{Name: "GONE.TXT", LongName: "gone.txt", Deleted: true},
		{Name: "\x05ABC.TXT", Data: []byte("kanji")},
		{Name: "MIXED.TXT", NTReserved: ntLowerBase},
	}

	tests := []struct {
		name   string
		filter Attr
		want   []string
	}{
		{
			name:   "everything",
			filter: 0,
			want:   []string{"SUB", "HIDDEN.SYS", "ABCDEFGHIJKLMNOPQRSTUVWXYZ", "Grüße aus Köln.txt", "BROKEN.TXT", "σABC.TXT", "mixed.TXT"},
		},
		{
			name:   "directories",
			filter: AttrDirectory,
			want:   []string{"SUB"},
		},
		{
			name:   "system files",
			filter: AttrSystem,
			want:   []string{"HIDDEN.SYS"},
		},
	}

	fatTypes(t, func(t *testing.T, g fattest.Geometry) {
		vol := openVolume(t, buildImage(t, g, tree...))

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				it, err := vol.OpenDir(vol.Root())
				if err != nil {
					t.Fatalf("Volume.OpenDir() error = %v", err)
				}

				var got []string
				for {
					f, err := it.Next(tt.filter)
					if err == io.EOF {
						break
					}
					if err != nil {
						t.Fatalf("DirIterator.Next() error = %v", err)
					}
					got = append(got, f.Name())
				}
				if !reflect.DeepEqual(got, tt.want) {
					t.Errorf("DirIterator.Next() = %v, want %v", got, tt.want)
				}

				// Exhausted iterators stay exhausted.
				if _, err := it.Next(tt.filter); err != io.EOF {
					t.Errorf("DirIterator.Next() after the end error = %v, want io.EOF", err)
				}
			})
		}
	})
}

func TestDirIterator_DotEntries(t *testing.T) {
	fatTypes(t, func(t *testing.T, g fattest.Geometry) {
		vol := openVolume(t, buildImage(t, g, bootTree()...))

		efi, err := vol.FindFile("EFI")
		if err != nil {
			t.Fatalf("Volume.FindFile() error = %v", err)
		}
		it, err := vol.OpenDir(efi)
		if err != nil {
			t.Fatalf("Volume.OpenDir() error = %v", err)
		}

		dot, err := it.Next(AttrDirectory)
		if err != nil || dot.ShortName != "." || dot.StartingCluster != efi.StartingCluster {
			t.Fatalf("DirIterator.Next() = %+v, %v, want the . entry", dot, err)
		}

		// ".." of a first level directory stores cluster 0 and refers to the root directory.
		dotdot, err := it.Next(AttrDirectory)
		if err != nil || dotdot.ShortName != ".." {
			t.Fatalf("DirIterator.Next() = %+v, %v, want the .. entry", dotdot, err)
		}
		root := vol.Root()
		if dotdot.StartingCluster != root.StartingCluster || dotdot.IsFixedRootDir != root.IsFixedRootDir {
			t.Errorf("DirIterator.Next() .. = cluster %v fixed %v, want cluster %v fixed %v",
				dotdot.StartingCluster, dotdot.IsFixedRootDir, root.StartingCluster, root.IsFixedRootDir)
		}

		files, err := vol.ReadDir(dotdot)
		if err != nil || len(files) != 4 {
			t.Errorf("Volume.ReadDir() of .. = %v, %v, want the root directory", names(files), err)
		}
	})
}

func TestVolume_OpenDir_NotDirectory(t *testing.T) {
	vol := openVolume(t, buildImage(t, fattest.DefaultGeometry(16), bootTree()...))

	f, err := vol.FindFile("README.MD")
	if err != nil {
		t.Fatalf("Volume.FindFile() error = %v", err)
	}
	if _, err := vol.OpenDir(f); !errors.Is(err, ErrNotDirectory) {
		t.Errorf("Volume.OpenDir() error = %v, wantErr %v", err, ErrNotDirectory)
	}
}

func TestLfnState(t *testing.T) {
	fragment := func(sequence byte, checksum byte, text string) LongFilenameEntry {
		e := LongFilenameEntry{Sequence: sequence, Attribute: byte(AttrLongName), Checksum: checksum}
		var chars [lfnCharsPerEntry]uint16
		for i := range chars {
			switch {
			case i < len(text):
				chars[i] = uint16(text[i])
			case i == len(text):
				chars[i] = 0
			default:
				chars[i] = 0xFFFF
			}
		}
		copy(e.First[:], chars[0:5])
		copy(e.Second[:], chars[5:11])
		copy(e.Third[:], chars[11:13])
		return e
	}

	tests := []struct {
		name      string
		fragments []LongFilenameEntry
		checksum  byte
		want      string
	}{
		{
			name:      "single fragment",
			fragments: []LongFilenameEntry{fragment(0x41, 7, "short.txt")},
			checksum:  7,
			want:      "short.txt",
		},
		{
			name:      "two fragments",
			fragments: []LongFilenameEntry{fragment(0x42, 7, "ame.txt"), fragment(0x01, 7, "a very long n")},
			checksum:  7,
			want:      "a very long name.txt",
		},
		{
			name:      "checksum of the short entry differs",
			fragments: []LongFilenameEntry{fragment(0x41, 7, "short.txt")},
			checksum:  8,
		},
		{
			name:      "fragments disagree on the checksum",
			fragments: []LongFilenameEntry{fragment(0x42, 7, "ame.txt"), fragment(0x01, 9, "a very long n")},
			checksum:  7,
		},
		{
			name:      "missing fragment",
			fragments: []LongFilenameEntry{fragment(0x43, 7, "c"), fragment(0x01, 7, "a")},
			checksum:  7,
		},
		{
			name:      "no last fragment",
			fragments: []LongFilenameEntry{fragment(0x01, 7, "a")},
			checksum:  7,
		},
		{
			name:      "too many fragments",
			fragments: []LongFilenameEntry{fragment(0x40|21, 7, "a")},
			checksum:  7,
		},
		{
			name:      "restarted name",
			fragments: []LongFilenameEntry{fragment(0x42, 3, "lost"), fragment(0x41, 7, "kept")},
			checksum:  7,
			want:      "kept",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l lfnState
			for _, f := range tt.fragments {
				l.add(f)
			}
			if got := l.take(tt.checksum); got != tt.want {
				t.Errorf("lfnState.take() = %q, want %q", got, tt.want)
			}
			if l.active {
				t.Errorf("lfnState.take() did not reset the state")
			}
		})
	}
}
