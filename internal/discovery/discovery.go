// Package discovery lists candidate profile files in a source directory.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
)

// housekeeping are entries desktop systems drop into data directories.
var housekeeping = map[string]bool{
	"Thumbs.db":   true,
	"thumbs.db":   true,
	"desktop.ini": true,
	"Icon\r":      true,
	"__MACOSX":    true,
}

// List returns the unique names of the regular files directly inside dir,
// sorted, excluding hidden entries and platform housekeeping files. A
// missing path or a path that is not a directory yields an error wrapping
// domain.ErrSourceNotFound.
func List(fsys fs.FS, dir string) ([]string, error) {
	info, err := fs.Stat(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dir, domain.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", dir, domain.ErrSourceNotFound)
	}

	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	seen := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || isHousekeeping(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func isHousekeeping(name string) bool {
	// Covers .DS_Store, ._AppleDouble files and editor swap files.
	return strings.HasPrefix(name, ".") || housekeeping[name]
}
