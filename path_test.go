package fatboot

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/aligator/fatboot/internal/fattest"
)

func TestVolume_FindFile(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		wantName  string
		wantDir   bool
		wantSize  uint32
		wantErr   error
		wantFound bool
	}{
		{name: "boot loader", path: `\EFI\BOOT\BOOTX64.EFI`, wantName: "BOOTX64.EFI", wantSize: uint32(len(bootx64)), wantFound: true},
		{name: "forward slashes", path: "/EFI/BOOT/BOOTX64.EFI", wantName: "BOOTX64.EFI", wantSize: uint32(len(bootx64)), wantFound: true},
		{name: "any case", path: `\efi\Boot\bootx64.efi`, wantName: "BOOTX64.EFI", wantSize: uint32(len(bootx64)), wantFound: true},
		{name: "relative", path: `EFI\BOOT\BOOTX64.EFI`, wantName: "BOOTX64.EFI", wantSize: uint32(len(bootx64)), wantFound: true},
		{name: "duplicate separators", path: `\\EFI\\BOOT\BOOTX64.EFI`, wantName: "BOOTX64.EFI", wantSize: uint32(len(bootx64)), wantFound: true},
		{name: "long name", path: `\EFI\BOOT\grub.cfg`, wantName: "grub.cfg", wantSize: 14, wantFound: true},
		{name: "short name of a long name", path: `\EFI\BOOT\GRUB.CFG`, wantName: "grub.cfg", wantSize: 14, wantFound: true},
		{name: "directory", path: `\EFI\BOOT`, wantName: "BOOT", wantDir: true, wantFound: true},
		{name: "root", path: `\`, wantName: `\`, wantDir: true, wantFound: true},
		{name: "empty path", path: "", wantName: `\`, wantDir: true, wantFound: true},
		{name: "lower case short name", path: "README.MD", wantName: "readme.md", wantSize: 10, wantFound: true},
		{name: "empty file", path: "empty.txt", wantName: "EMPTY.TXT", wantFound: true},
		{name: "prefix of a name", path: `\EFI\BOO`, wantErr: ErrNotFound},
		{name: "prefix of a file name", path: `\EFI\BOOT\BOOTX64`, wantErr: ErrNotFound},
		{name: "longer than a name", path: `\EFI\BOOT\BOOTX64.EFI2`, wantErr: ErrNotFound},
		{name: "file as directory", path: `\README.MD\X`, wantErr: ErrNotFound},
		{name: "deleted file", path: "OLD.TXT", wantErr: ErrNotFound},
		{name: "deleted long name", path: "old-config.txt", wantErr: ErrNotFound},
		{name: "volume label", path: "BOOT", wantErr: ErrNotFound},
	}

	fatTypes(t, func(t *testing.T, g fattest.Geometry) {
		g.Label = "BOOT"
		vol := openVolume(t, buildImage(t, g, bootTree()...))

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := vol.FindFile(tt.path)
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Volume.FindFile() error = %v, wantErr %v", err, tt.wantErr)
				}
				if !tt.wantFound {
					return
				}

				if got.Name() != tt.wantName || got.IsDir() != tt.wantDir || got.FileSize != tt.wantSize {
					t.Errorf("Volume.FindFile() = %v dir %v size %v, want %v dir %v size %v",
						got.Name(), got.IsDir(), got.FileSize, tt.wantName, tt.wantDir, tt.wantSize)
				}
				if got.Pos() != 0 {
					t.Errorf("Volume.FindFile() Pos = %v, want 0", got.Pos())
				}
			})
		}
	})
}

func TestVolume_FindFile_Content(t *testing.T) {
	fatTypes(t, func(t *testing.T, g fattest.Geometry) {
		vol := openVolume(t, buildImage(t, g, bootTree()...))

		f, err := vol.FindFile(`\EFI\BOOT\BOOTX64.EFI`)
		if err != nil {
			t.Fatalf("Volume.FindFile() error = %v", err)
		}
		if f.Attributes&AttrDirectory != 0 || f.FileSize != f.Header.FileSize {
			t.Errorf("Volume.FindFile() = %+v, want a file with the size of its entry", f)
		}

		buf := make([]byte, f.FileSize)
		if n, err := vol.ReadFile(f, buf); err != nil || n != len(buf) {
			t.Fatalf("Volume.ReadFile() = %v, %v", n, err)
		}
		if !bytes.Equal(buf, bootx64) {
			t.Errorf("Volume.ReadFile() returned wrong data")
		}
	})
}

func TestVolume_FindFile_DeviceError(t *testing.T) {
	img := buildImage(t, fattest.DefaultGeometry(32), bootTree()...)

	// The EFI directory cannot be read, the root directory can.
	reader := failingReader{r: img.ReaderAt(), failAt: img.ClusterOffset(img.Chain("EFI")[0])}
	vol, err := Probe(NewBlockCache(NewImageDevice(reader), DefaultCacheLines), 0)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	_, err = vol.FindFile(`\EFI\BOOT\BOOTX64.EFI`)
	if !errors.Is(err, ErrDevice) || errors.Is(err, ErrNotFound) {
		t.Errorf("Volume.FindFile() error = %v, want a device error", err)
	}
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{path: "", want: []string{}},
		{path: `\`, want: []string{}},
		{path: `\EFI\BOOT\BOOTX64.EFI`, want: []string{"EFI", "BOOT", "BOOTX64.EFI"}},
		{path: "/a//b/", want: []string{"a", "b"}},
		{path: `a/b\c`, want: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		got := splitPath(tt.path)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
