package fatboot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"syscall"

	"github.com/aligator/fatboot/checkpoint"
	"github.com/spf13/afero"
)

// These errors may occur while processing an opened file.
var (
	ErrReadFile = errors.New("could not read file completely")
	ErrSeekFile = errors.New("could not seek inside of the file")
	ErrReadDir  = errors.New("could not read the directory")
)

// fatFileFs provides all methods needed from the filesystem for a FileHandle.
// It mainly exists to be able to mock the Fs in tests.
// Generated mock using mockgen:
//  mockgen -source=file.go -destination=file_mock.go -package fatboot
type fatFileFs interface {
	readFile(f *File, p []byte) (int, error)
	seekFile(f *File, pos uint32) error
	readDir(f *File) ([]*File, error)
}

// FileHandle is an opened file or directory implementing afero.File.
// Each handle has its own cursor, so handles of the same file do not affect each other.
type FileHandle struct {
	fs   fatFileFs
	path string
	file *File

	// dirOffset is the number of directory entries already returned by Readdir.
	dirOffset int
}

func (h *FileHandle) Close() error {
	if h.file == nil {
		return afero.ErrFileClosed
	}
	h.fs = nil
	h.path = ""
	h.file = nil
	h.dirOffset = 0
	return nil
}

func (h *FileHandle) checkOpen(op string) error {
	if h.file == nil {
		return &os.PathError{Op: op, Path: h.path, Err: afero.ErrFileClosed}
	}
	return nil
}

func (h *FileHandle) Read(p []byte) (int, error) {
	if err := h.checkOpen("read"); err != nil {
		return 0, err
	}
	if h.file.IsDir() {
		return 0, &os.PathError{Op: "read", Path: h.path, Err: syscall.EISDIR}
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := h.fs.readFile(h.file, p)
	if err != nil && err != io.EOF {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}
	return n, err
}

// ReadAt reads from off without moving the cursor of the handle.
func (h *FileHandle) ReadAt(p []byte, off int64) (int, error) {
	if err := h.checkOpen("readat"); err != nil {
		return 0, err
	}
	if h.file.IsDir() {
		return 0, &os.PathError{Op: "readat", Path: h.path, Err: syscall.EISDIR}
	}
	if off < 0 {
		return 0, &os.PathError{Op: "readat", Path: h.path, Err: syscall.EINVAL}
	}
	if off >= int64(h.file.FileSize) {
		return 0, io.EOF
	}

	cursor := *h.file
	if err := h.fs.seekFile(&cursor, uint32(off)); err != nil {
		return 0, checkpoint.Wrap(err, ErrReadFile)
	}

	n, err := h.fs.readFile(&cursor, p)
	if err != nil && err != io.EOF {
		return n, checkpoint.Wrap(err, ErrReadFile)
	}
	return n, err
}

// Seek jumps to a specific offset in the file. This affects all Read operation except ReadAt.
// May return a syscall.EINVAL error if the whence value is invalid.
// May return an afero.ErrOutOfRange error if the offset is out of range.
func (h *FileHandle) Seek(offset int64, whence int) (int64, error) {
	if err := h.checkOpen("seek"); err != nil {
		return 0, err
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += int64(h.file.Pos())
	case io.SeekEnd:
		offset += int64(h.file.FileSize)
	default:
		return 0, checkpoint.Wrap(ErrSeekFile, fmt.Errorf("%w, offset: %v, whence: %v", syscall.EINVAL, offset, whence))
	}

	if offset < 0 || offset > int64(h.file.FileSize) {
		return 0, checkpoint.Wrap(afero.ErrOutOfRange, fmt.Errorf("%w, offset: %v, whence: %v", ErrSeekFile, offset, whence))
	}

	if err := h.fs.seekFile(h.file, uint32(offset)); err != nil {
		return 0, checkpoint.Wrap(err, ErrSeekFile)
	}
	return offset, nil
}

// Readdir reads the contents of a directory like os.File.Readdir.
// May return syscall.ENOTDIR if the handle is no directory.
func (h *FileHandle) Readdir(count int) ([]os.FileInfo, error) {
	if err := h.checkOpen("readdir"); err != nil {
		return nil, err
	}
	if !h.file.IsDir() {
		return nil, checkpoint.Wrap(syscall.ENOTDIR, ErrReadDir)
	}

	content, err := h.fs.readDir(h.file)
	if err != nil {
		return nil, checkpoint.Wrap(err, ErrReadDir)
	}

	if h.dirOffset > len(content) {
		h.dirOffset = len(content)
	}
	content = content[h.dirOffset:]

	if count > 0 {
		if len(content) == 0 {
			return nil, io.EOF
		}
		if count < len(content) {
			content = content[:count]
		}
	}
	h.dirOffset += len(content)

	result := make([]os.FileInfo, len(content))
	for i, f := range content {
		result[i] = f.FileInfo()
	}
	return result, nil
}

func (h *FileHandle) Readdirnames(count int) ([]string, error) {
	content, err := h.Readdir(count)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(content))
	for i, entry := range content {
		names[i] = entry.Name()
	}
	return names, nil
}

func (h *FileHandle) Name() string {
	return h.path
}

func (h *FileHandle) Stat() (os.FileInfo, error) {
	if err := h.checkOpen("stat"); err != nil {
		return nil, err
	}

	info := h.file.FileInfo().(fileInfo)
	if h.file.isRoot() {
		info.name = path.Base(h.path)
	}
	return info, nil
}

func (h *FileHandle) readOnly(op string) error {
	return &os.PathError{Op: op, Path: h.path, Err: ErrReadOnly}
}

func (h *FileHandle) Write(p []byte) (int, error) {
	return 0, h.readOnly("write")
}

func (h *FileHandle) WriteAt(p []byte, off int64) (int, error) {
	return 0, h.readOnly("writeat")
}

func (h *FileHandle) WriteString(s string) (int, error) {
	return h.Write([]byte(s))
}

func (h *FileHandle) Sync() error {
	return h.readOnly("sync")
}

func (h *FileHandle) Truncate(size int64) error {
	return h.readOnly("truncate")
}
