package fatboot

import (
	"io"
	"strings"

	"github.com/aligator/fatboot/checkpoint"
)

// splitPath splits a path at "\" and "/" and drops empty components.
func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool {
		return r == '\\' || r == '/'
	})
}

// FindFile resolves a "\" or "/" separated path starting at the root directory.
// Every component but the last one must be a directory, the last one may be either.
// Names are compared case-insensitively against the short and the long name.
// The returned File has its cursor at 0. An empty path resolves to the root directory.
func (v *Volume) FindFile(path string) (*File, error) {
	components := splitPath(path)

	current := v.Root()
	for i, component := range components {
		filter := AttrDirectory
		if i == len(components)-1 {
			filter = 0
		}

		found, err := v.lookup(current, component, filter)
		if err != nil {
			return nil, checkpoint.From(err)
		}
		current = found
	}

	if err := v.SetFilePos(current, 0); err != nil {
		return nil, err
	}
	return current, nil
}

// lookup searches dir for an entry named name which passes filter.
func (v *Volume) lookup(dir *File, name string, filter Attr) (*File, error) {
	it, err := v.OpenDir(dir)
	if err != nil {
		return nil, err
	}

	for {
		f, err := it.Next(filter)
		if err == io.EOF {
			return nil, checkpoint.Wrapf(ErrNotFound, ErrNotFound, "no %q in %q", name, dir.Name())
		}
		if err != nil {
			return nil, err
		}
		if f.MatchName(name) {
			return f, nil
		}
	}
}
