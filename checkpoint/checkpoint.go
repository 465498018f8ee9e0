// Package checkpoint decorates errors with the file and line they passed through,
// building something close to a stack trace while the boot flow unwinds.
// Every error attached to a checkpoint stays reachable through errors.Is and errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// From records the caller of From on err.
// It returns nil for a nil err.
func From(err error) error {
	if err == nil || isStreamEnd(err) {
		return err
	}

	return newCheckpoint(nil, err)
}

// Wrap records the caller of Wrap on prev and attaches err as the meaning of this checkpoint.
// Both prev and err can afterwards be matched with errors.Is:
//  var ErrNoVolume = errors.New("no volume found")
//
//  func mount() error {
//  	err := readBootSector()
//  	return checkpoint.Wrap(err, ErrNoVolume)
//  }
//
// Wrap returns nil if prev is nil, so it can wrap a call result unconditionally.
// io.EOF and io.ErrUnexpectedEOF are passed through untouched because callers compare them with ==.
func Wrap(prev, err error) error {
	if prev == nil || isStreamEnd(prev) {
		return prev
	}

	return newCheckpoint(prev, err)
}

// Wrapf is Wrap with err extended by a formatted detail message.
func Wrapf(prev, err error, format string, args ...interface{}) error {
	if prev == nil || isStreamEnd(prev) {
		return prev
	}

	return newCheckpoint(prev, fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...)))
}

// isStreamEnd reports the sentinels which must never be hidden behind a checkpoint.
// See https://github.com/golang/go/issues/39155
func isStreamEnd(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF
}

func newCheckpoint(prev, err error) *checkpoint {
	// Skip newCheckpoint and the exported helper.
	_, file, line, ok := runtime.Caller(2)

	return &checkpoint{
		err:  err,
		prev: prev,

		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

type checkpoint struct {
	err  error
	prev error

	callerOk bool
	file     string
	line     int
}

func (e *checkpoint) location() string {
	if !e.callerOk {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", e.file, e.line)
}

func (e *checkpoint) Error() string {
	if e.prev == nil {
		return fmt.Sprintf("File: %s\n\t%v", e.location(), e.err)
	}

	prev := e.prev.Error()
	if _, ok := e.prev.(*checkpoint); !ok {
		prev = "File: unknown\n\t" + strings.ReplaceAll(prev, "\n", "\n\t")
	}
	return fmt.Sprintf("File: %s\n\t%v\n%v", e.location(), e.err, prev)
}

func (e *checkpoint) Unwrap() error {
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return errors.As(e.err, target)
}
