// Package fatboot locates and loads files from FAT12, FAT16 and FAT32 volumes on raw block devices.
//
// The volume is never written. Sectors are read through a small BlockCache, the geometry is
// derived by Probe, and files are found with Volume.FindFile. Fs exposes a probed volume as a
// read-only afero.Fs.
package fatboot

import (
	"errors"
	"os"
	"path"
	"sync"
	"time"

	"github.com/aligator/fatboot/checkpoint"
	"github.com/spf13/afero"
)

// Fs is a read-only afero.Fs over one FAT volume.
// All access to the volume and its BlockCache is serialized.
type Fs struct {
	lock sync.Mutex
	vol  *Volume
}

// New probes the given device and opens its FAT volume.
// It uses a BlockCache of its own.
func New(device SectorReader, index uint32) (*Fs, error) {
	vol, err := Probe(NewBlockCache(device, DefaultCacheLines), index)
	if err != nil {
		return nil, err
	}
	return NewFromVolume(vol), nil
}

// NewFromVolume wraps an already probed volume.
func NewFromVolume(vol *Volume) *Fs {
	return &Fs{vol: vol}
}

func (fs *Fs) Volume() *Volume {
	return fs.vol
}

// Label returns the volume label stored in the boot sector.
func (fs *Fs) Label() string {
	return fs.vol.Label
}

func (fs *Fs) FSType() FatType {
	return fs.vol.FatType
}

func (fs *Fs) readFile(f *File, p []byte) (int, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.vol.ReadFile(f, p)
}

func (fs *Fs) seekFile(f *File, pos uint32) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.vol.SetFilePos(f, pos)
}

func (fs *Fs) readDir(f *File) ([]*File, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	// Iterating moves the cursor of the directory, so iterate on a copy.
	dir := *f
	return fs.vol.ReadDir(&dir)
}

func (fs *Fs) find(name string) (*File, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	f, err := fs.vol.FindFile(path.Clean("/" + name))
	if errors.Is(err, ErrNotFound) {
		return nil, checkpoint.Wrap(err, os.ErrNotExist)
	}
	return f, err
}

func (fs *Fs) Open(name string) (afero.File, error) {
	f, err := fs.find(name)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: name, Err: err}
	}

	if name == "" {
		name = "."
	}
	return &FileHandle{
		fs:   fs,
		path: name,
		file: f,
	}, nil
}

// OpenFile opens a file for reading. Any flag which would allow modifying the volume fails with ErrReadOnly.
func (fs *Fs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, fs.readOnly("open", name)
	}
	return fs.Open(name)
}

func (fs *Fs) Stat(name string) (os.FileInfo, error) {
	file, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return file.Stat()
}

func (fs *Fs) Name() string {
	return "fatboot"
}

func (fs *Fs) readOnly(op, name string) error {
	return &os.PathError{Op: op, Path: name, Err: ErrReadOnly}
}

func (fs *Fs) Create(name string) (afero.File, error) {
	return nil, fs.readOnly("create", name)
}

func (fs *Fs) Mkdir(name string, perm os.FileMode) error {
	return fs.readOnly("mkdir", name)
}

func (fs *Fs) MkdirAll(path string, perm os.FileMode) error {
	return fs.readOnly("mkdir", path)
}

func (fs *Fs) Remove(name string) error {
	return fs.readOnly("remove", name)
}

func (fs *Fs) RemoveAll(path string) error {
	return fs.readOnly("remove", path)
}

func (fs *Fs) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: ErrReadOnly}
}

func (fs *Fs) Chmod(name string, mode os.FileMode) error {
	return fs.readOnly("chmod", name)
}

func (fs *Fs) Chown(name string, uid, gid int) error {
	return fs.readOnly("chown", name)
}

func (fs *Fs) Chtimes(name string, atime time.Time, mtime time.Time) error {
	return fs.readOnly("chtimes", name)
}
