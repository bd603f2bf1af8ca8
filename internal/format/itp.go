package format

import (
	"io/fs"
	"math"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/couchcryptid/arctic-profile-etl/internal/exclusion"
)

// itpProfilePattern matches the 4-digit profile number ahead of a
// three-character extension: itp1grd0042.dat, cor0042.mat.
var itpProfilePattern = regexp.MustCompile(`(\d{4})\.[A-Za-z0-9]{3}$`)

// itpDir is ITPs/itp<n>/itp<n><format>.
func itpDir(instrument string, f domain.Format) string {
	return path.Join("ITPs", "itp"+instrument, "itp"+instrument+string(f))
}

// ITPFile is the identity an ITP file name carries.
type ITPFile struct {
	Instrument    string
	ProfileNumber string
}

// ParseITPFilename derives the instrument and profile number from an ITP file
// name. A stem containing "_" marks the co-located second deployment and
// gets the ".1" instrument suffix. Returns a skip reason when the file must
// not be read.
func ParseITPFilename(name, instrument string) (ITPFile, string) {
	if strings.Contains(name, "sami") {
		return ITPFile{}, domain.ReasonWrongKind
	}
	m := itpProfilePattern.FindStringSubmatch(name)
	if m == nil {
		return ITPFile{}, domain.ReasonBadFilename
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return ITPFile{}, domain.ReasonBadFilename
	}

	stem := strings.TrimSuffix(name, path.Ext(name))
	if strings.Contains(stem, "_") {
		instrument += ".1"
	}
	return ITPFile{Instrument: instrument, ProfileNumber: strconv.Itoa(n)}, ""
}

// checkITP runs the file-name and exclusion checks shared by both ITP formats.
// The deny-list sees the row's instrument; the allow-list is keyed by the
// requested instrument, so it also covers co-located "_" files.
func checkITP(policy *exclusion.Policy, name, instrument string, allow exclusion.AllowList) (ITPFile, string) {
	id, reason := ParseITPFilename(path.Base(name), instrument)
	if reason != "" {
		return id, reason
	}
	if policy.IsDenied(domain.SourceITP, id.Instrument, id.ProfileNumber) {
		return id, domain.ReasonDenyListed
	}
	if !policy.IsAllowed(domain.SourceITP, instrument, id.ProfileNumber, allow) {
		return id, domain.ReasonNotAllowed
	}
	return id, ""
}

// Final reads ITP "final" text files.
type Final struct {
	policy *exclusion.Policy
}

// NewFinal returns an ITP "final" parser checking policy before each file.
func NewFinal(policy *exclusion.Policy) *Final {
	return &Final{policy: policy}
}

// Format implements Parser.
func (*Final) Format() domain.Format { return domain.FormatFinal }

// Dir implements Parser.
func (*Final) Dir(instrument string) string { return itpDir(instrument, domain.FormatFinal) }

// Parse implements Parser.
func (p *Final) Parse(fsys fs.FS, name, instrument string, allow exclusion.AllowList) domain.Result {
	id, reason := checkITP(p.policy, name, instrument, allow)
	if reason != "" {
		return domain.Skip(reason)
	}

	lines, err := readLines(fsys, name)
	if err != nil {
		return domain.Fail(err)
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	// Two header lines, the column header and the footer.
	if len(lines) < 4 {
		return domain.Skip(domain.ReasonNoColumns)
	}

	ref := strings.Fields(lines[1])
	h := domain.ProfileHeader{
		Source:        domain.SourceITP,
		Instrument:    id.Instrument,
		ProfileNumber: id.ProfileNumber,
		Format:        domain.FormatFinal,
		Timestamp:     ParseDayOfYear(token(ref, 0), token(ref, 1)),
	}
	h.Longitude, h.Latitude = domain.NormalizeFix(
		domain.ParseFloatOrNil(token(ref, 2)),
		domain.ParseFloatOrNil(token(ref, 3)),
	)

	cols, err := parseColumns(lines[2:len(lines)-1], "%pressure(dbar)", "temperature(C)", "salinity")
	if err != nil {
		return domain.Skip(domain.ReasonNoColumns)
	}
	return domain.Accept(domain.NewProfile(h, cols[1], cols[2], cols[0]))
}

// maxDayCount bounds the day field so the offset fits a time.Duration.
const maxDayCount = 100_000

// ParseDayOfYear converts a year and a fractional day count to a time. Day 1.0
// is January 1 at midnight, so the offset is (day - 1) days. Returns nil on
// any failure.
func ParseDayOfYear(year, day string) *time.Time {
	y, err := strconv.ParseFloat(strings.TrimSpace(year), 64)
	if err != nil || y != math.Trunc(y) || y < 1 || y > 9999 {
		return nil
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(day), 64)
	if err != nil || math.IsNaN(d) || math.Abs(d) > maxDayCount {
		return nil
	}
	offset := time.Duration(math.Round((d - 1) * float64(24*time.Hour)))
	t := time.Date(int(y), time.January, 1, 0, 0, 0, 0, time.UTC).Add(offset)
	return &t
}

