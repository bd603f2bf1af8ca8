// Package format turns one raw profile file into a parse Result. Each
// physical format is a Parser; the assembler picks one by the Format carried
// on the source request.
package format

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/couchcryptid/arctic-profile-etl/internal/exclusion"
)

// Parser reads one file of a single physical format.
type Parser interface {
	// Format is the physical format this parser reads.
	Format() domain.Format
	// Dir is the instrument's directory relative to the data root.
	Dir(instrument string) string
	// Parse reads the file at name. Exclusion checks run before the file is
	// opened; a skipped file is never read.
	Parse(fsys fs.FS, name, instrument string, allow exclusion.AllowList) domain.Result
}

// Registry maps each format to its parser.
type Registry map[domain.Format]Parser

// NewRegistry returns the three parsers sharing one exclusion policy.
func NewRegistry(policy *exclusion.Policy) Registry {
	return Registry{
		domain.FormatAIDJEX: NewAIDJEX(policy),
		domain.FormatFinal:  NewFinal(policy),
		domain.FormatCormat: NewCormat(policy),
	}
}

// For returns the parser of format f.
func (r Registry) For(f domain.Format) (Parser, error) {
	p, ok := r[f]
	if !ok {
		return nil, fmt.Errorf("no parser for format %q", f)
	}
	return p, nil
}

// readLines reads a whole text file. The file is closed before returning.
func readLines(fsys fs.FS, name string) ([]string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return lines, nil
}

// readAll reads a whole binary file. The file is closed before returning.
func readAll(fsys fs.FS, name string) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// token returns field i, or "" when the line is shorter.
func token(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

// parseColumns reads a whitespace-separated table whose first line holds the
// column headers. Blank lines are ignored; short or non-numeric cells become
// NaN. The returned slices follow the order of want.
func parseColumns(lines []string, want ...string) ([][]float64, error) {
	if len(lines) == 0 {
		return nil, domain.ErrMissingColumns
	}
	header := strings.Fields(lines[0])
	idx := make([]int, len(want))
	for i, name := range want {
		idx[i] = -1
		for j, h := range header {
			if h == name {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return nil, fmt.Errorf("%s: %w", name, domain.ErrMissingColumns)
		}
	}

	cols := make([][]float64, len(want))
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		for i, j := range idx {
			cols[i] = append(cols[i], domain.ParseFloatOrNaN(token(fields, j)))
		}
	}
	return cols, nil
}
