package fatboot

import (
	"errors"
	"io"
	"testing"

	"github.com/aligator/fatboot/internal/fattest"
)

var errBrokenDevice = errors.New("broken device")

// payload returns n bytes which differ in every cluster.
func payload(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*31 + i>>9)
	}
	return b
}

var bootx64 = payload(3000)

func bootTree() []fattest.Entry {
	return []fattest.Entry{
		fattest.Dir("EFI",
			fattest.Dir("BOOT",
				fattest.File("BOOTX64.EFI", bootx64),
				fattest.Entry{Name: "GRUB.CFG", LongName: "grub.cfg", Data: []byte("set timeout=5\n")},
			),
		),
		{Name: "README.MD", NTReserved: ntLowerBase | ntLowerExt, Data: []byte("# fatboot\n"), WriteDate: 0x5A8F, WriteTime: 0x6C2A},
		{Name: "HELLOW~1.TXT", LongName: "HelloWorldThisIsALoongFileName.txt", Data: []byte("Hello World\n")},
		{Name: "EMPTY.TXT"},
		{Name: "OLD.TXT", LongName: "old-config.txt", Deleted: true, Data: []byte("deleted")},
	}
}

func buildImage(t *testing.T, g fattest.Geometry, entries ...fattest.Entry) *fattest.Image {
	t.Helper()
	img, err := fattest.Build(g, entries...)
	if err != nil {
		t.Fatalf("fattest.Build() error = %v", err)
	}
	return img
}

func openVolume(t *testing.T, img *fattest.Image) *Volume {
	t.Helper()
	cache := NewBlockCache(NewImageDevice(img.ReaderAt()), DefaultCacheLines)
	vol, err := Probe(cache, 0)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	return vol
}

// fatTypes runs a test against one image of each FAT type.
func fatTypes(t *testing.T, test func(t *testing.T, g fattest.Geometry)) {
	for _, fatType := range []int{12, 16, 32} {
		g := fattest.DefaultGeometry(fatType)
		t.Run(g.Label, func(t *testing.T) {
			test(t, g)
		})
	}
}

// failingReader fails every read touching the bytes from failAt on.
type failingReader struct {
	r      io.ReaderAt
	failAt int64
}

func (f failingReader) ReadAt(p []byte, off int64) (int, error) {
	if off+int64(len(p)) > f.failAt {
		return 0, errBrokenDevice
	}
	return f.r.ReadAt(p, off)
}
