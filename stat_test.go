package fatboot

import (
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/aligator/fatboot/internal/fattest"
)

func TestDateTime(t *testing.T) {
	tests := []struct {
		name  string
		date  uint16
		clock uint16
		want  time.Time
	}{
		{
			name:  "a normal write time and date",
			date:  20890,
			clock: 41936,
			want:  time.Date(2020, 12, 26, 20, 30, 32, 0, time.UTC),
		},
		{
			name: "a zero write time and date results in time.Time.IsZero() == true",
			want: time.Time{},
		},
		{
			name: "a zero write time results in 00:00:00",
			date: 20890,
			want: time.Date(2020, 12, 26, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "a zero day results in time.Time.IsZero() == true",
			date:  20928,
			clock: 41936,
			want:  time.Time{},
		},
		{
			name:  "a zero month results in time.Time.IsZero() == true",
			date:  20506,
			clock: 41936,
			want:  time.Time{},
		},
		{
			name:  "an invalid time is clamped to the end of the day",
			date:  20890,
			clock: 0xFFFF,
			want:  time.Date(2020, 12, 26, 23, 59, 59, 0, time.UTC),
		},
		{
			name:  "the first possible date",
			date:  1<<5 | 1,
			clock: 0,
			want:  time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DateTime(tt.date, tt.clock); !got.Equal(tt.want) {
				t.Errorf("DateTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFile_FileInfo(t *testing.T) {
	vol := openVolume(t, buildImage(t, fattest.DefaultGeometry(16), bootTree()...))

	tests := []struct {
		name     string
		path     string
		wantName string
		wantSize int64
		wantMode os.FileMode
		wantDir  bool
		wantTime time.Time
	}{
		{
			name:     "file",
			path:     "README.MD",
			wantName: "readme.md",
			wantSize: 10,
			wantMode: 0444,
			wantTime: time.Date(2025, 4, 15, 13, 33, 20, 0, time.UTC),
		},
		{
			name:     "long name",
			path:     "HelloWorldThisIsALoongFileName.txt",
			wantName: "HelloWorldThisIsALoongFileName.txt",
			wantSize: 12,
			wantMode: 0444,
		},
		{
			name:     "directory",
			path:     `\EFI`,
			wantName: "EFI",
			wantMode: os.ModeDir | 0555,
			wantDir:  true,
		},
		{
			name:     "root",
			path:     `\`,
			wantName: `\`,
			wantMode: os.ModeDir | 0555,
			wantDir:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := vol.FindFile(tt.path)
			if err != nil {
				t.Fatalf("Volume.FindFile() error = %v", err)
			}

			info := f.FileInfo()
			if info.Name() != tt.wantName {
				t.Errorf("FileInfo.Name() = %v, want %v", info.Name(), tt.wantName)
			}
			if info.Size() != tt.wantSize {
				t.Errorf("FileInfo.Size() = %v, want %v", info.Size(), tt.wantSize)
			}
			if info.Mode() != tt.wantMode {
				t.Errorf("FileInfo.Mode() = %v, want %v", info.Mode(), tt.wantMode)
			}
			if info.IsDir() != tt.wantDir {
				t.Errorf("FileInfo.IsDir() = %v, want %v", info.IsDir(), tt.wantDir)
			}
			if !info.ModTime().Equal(tt.wantTime) {
				t.Errorf("FileInfo.ModTime() = %v, want %v", info.ModTime(), tt.wantTime)
			}
			if !reflect.DeepEqual(info.Sys(), f.Header) {
				t.Errorf("FileInfo.Sys() = %v, want %v", info.Sys(), f.Header)
			}
		})
	}
}
