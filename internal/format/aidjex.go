package format

import (
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/couchcryptid/arctic-profile-etl/internal/exclusion"
)

const (
	aidjexTimeLayout = "2/Jan/2006 1504"
	aidjexHeaderLine = 3
)

// AIDJEX reads station text files.
type AIDJEX struct {
	policy *exclusion.Policy
}

// NewAIDJEX returns an AIDJEX parser checking policy before each file.
func NewAIDJEX(policy *exclusion.Policy) *AIDJEX {
	return &AIDJEX{policy: policy}
}

// Format implements Parser.
func (*AIDJEX) Format() domain.Format { return domain.FormatAIDJEX }

// Dir implements Parser.
func (*AIDJEX) Dir(station string) string {
	return path.Join("AIDJEX", "AIDJEX", station)
}

// Parse implements Parser.
func (a *AIDJEX) Parse(fsys fs.FS, name, station string, allow exclusion.AllowList) domain.Result {
	prof, err := AIDJEXProfileNumber(path.Base(name))
	if err != nil {
		return domain.Skip(domain.ReasonBadFilename)
	}
	if reason := a.policy.Check(domain.SourceAIDJEX, station, prof, allow); reason != "" {
		return domain.Skip(reason)
	}

	lines, err := readLines(fsys, name)
	if err != nil {
		return domain.Fail(err)
	}
	if len(lines) <= aidjexHeaderLine {
		return domain.Skip(domain.ReasonNoColumns)
	}

	h := domain.ProfileHeader{
		Source:        domain.SourceAIDJEX,
		Instrument:    station,
		ProfileNumber: prof,
		Format:        domain.FormatAIDJEX,
	}
	first := strings.Fields(lines[0])
	h.Timestamp = ParseAIDJEXTime(token(first, 3), token(first, 4))
	h.Longitude, h.Latitude = parseAIDJEXFix(strings.Fields(lines[1]))

	cols, err := parseColumns(lines[aidjexHeaderLine:], "Depth(m)", "Temp(C)", "Sal(PPT)")
	if err != nil {
		return domain.Skip(domain.ReasonNoColumns)
	}
	return domain.Accept(domain.NewProfile(h, cols[1], cols[2], cols[0]))
}

// AIDJEXProfileNumber joins every digit of the file name and normalizes the
// result through an integer, so "BigBear_042" gives "42".
func AIDJEXProfileNumber(name string) (string, error) {
	var digits strings.Builder
	for _, r := range name {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, domain.ErrUnusableFilename)
	}
	return strconv.Itoa(n), nil
}

// ParseAIDJEXTime parses a "d/MON/YYYY" date and an "HMM" time. The time is
// zero-padded to four digits first. Month names match in any case. Returns
// nil on any failure.
func ParseAIDJEXTime(date, hhmm string) *time.Time {
	if date == "" || hhmm == "" {
		return nil
	}
	if len(hhmm) < 4 {
		hhmm = strings.Repeat("0", 4-len(hhmm)) + hhmm
	}
	t, err := time.Parse(aidjexTimeLayout, date+" "+hhmm)
	if err != nil {
		return nil
	}
	return &t
}

// parseAIDJEXFix reads "Lat <lat> Lon <lon>" from the second header line.
// Each value is taken only when its marker is present.
func parseAIDJEXFix(fields []string) (lon, lat *float64) {
	if hasMarker(token(fields, 0), "lat") {
		lat = domain.ParseFloatOrNil(token(fields, 1))
	}
	if hasMarker(token(fields, 2), "lon") {
		lon = domain.ParseFloatOrNil(token(fields, 3))
	}
	return domain.NormalizeFix(lon, lat)
}

func hasMarker(field, marker string) bool {
	return strings.Contains(strings.ToLower(field), marker)
}
