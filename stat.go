package fatboot

import (
	"os"
	"time"
)

// FileInfo returns the os.FileInfo of f.
func (f *File) FileInfo() os.FileInfo {
	return fileInfo{
		name:   f.Name(),
		header: f.Header,
		dir:    f.IsDir(),
	}
}

// fileInfo describes a File. The name is kept separately so the root directory
// can be reported under the name it was opened with.
type fileInfo struct {
	name   string
	header EntryHeader
	dir    bool
}

func (e fileInfo) Name() string {
	return e.name
}

func (e fileInfo) Size() int64 {
	if e.dir {
		return 0
	}
	return int64(e.header.FileSize)
}

// Mode reports every file as read only as the volume is never written.
func (e fileInfo) Mode() os.FileMode {
	if e.IsDir() {
		return os.ModeDir | 0555
	}
	return 0444
}

func (e fileInfo) ModTime() time.Time {
	return DateTime(e.header.WriteDate, e.header.WriteTime)
}

func (e fileInfo) IsDir() bool {
	return e.dir
}

func (e fileInfo) Sys() interface{} {
	return e.header
}

// DateTime converts a FAT date and time stamp into a time.Time in UTC.
//
// The date counts days (bits 0-4), months (bits 5-8) and years since 1980 (bits 9-15).
// The time counts 2 second steps (bits 0-4), minutes (bits 5-10) and hours (bits 11-15).
//
// Day or month 0 are invalid, in which case the zero time.Time is returned so IsZero can be used.
// Time fields out of their range are clamped to 23:59:59 of the same day.
func DateTime(date, clock uint16) time.Time {
	day := int(date & 0x1F)
	month := time.Month((date >> 5) & 0x0F)
	year := 1980 + int(date>>9)
	if day == 0 || month == 0 {
		return time.Time{}
	}

	seconds := int(clock&0x1F) * 2
	minutes := int((clock >> 5) & 0x3F)
	hours := int(clock >> 11)

	offset := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	if offset >= 24*time.Hour {
		offset = 24*time.Hour - time.Second
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Add(offset)
}
