package format

import (
	"fmt"
	"io/fs"
	"math"
	"time"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/couchcryptid/arctic-profile-etl/internal/exclusion"
	"github.com/couchcryptid/arctic-profile-etl/internal/matfile"
)

const cormatTimeLayout = "1/2/06 15:04:05"

// Variable names inside a cormat container.
const (
	cormatDate        = "psdate"
	cormatStart       = "pstart"
	cormatLongitude   = "longitude"
	cormatLatitude    = "latitude"
	cormatTemperature = "te_adj"
	cormatSalinity    = "sa_adj"
	cormatPressure    = "pr_filt"
)

// Cormat reads ITP "cormat" MATLAB containers.
type Cormat struct {
	policy   *exclusion.Policy
	decoders matfile.Chain
}

// NewCormat returns a cormat parser that decodes with the default chain:
// v7.3 first, then Level 5, then Level 4.
func NewCormat(policy *exclusion.Policy) *Cormat {
	return &Cormat{policy: policy, decoders: matfile.DefaultChain()}
}

// Format implements Parser.
func (*Cormat) Format() domain.Format { return domain.FormatCormat }

// Dir implements Parser.
func (*Cormat) Dir(instrument string) string { return itpDir(instrument, domain.FormatCormat) }

// Parse implements Parser.
func (p *Cormat) Parse(fsys fs.FS, name, instrument string, allow exclusion.AllowList) domain.Result {
	id, reason := checkITP(p.policy, name, instrument, allow)
	if reason != "" {
		return domain.Skip(reason)
	}

	data, err := readAll(fsys, name)
	if err != nil {
		return domain.Fail(err)
	}
	mf, err := p.decoders.Decode(data)
	if err != nil {
		return domain.Fail(fmt.Errorf("decode %s: %w", name, err))
	}
	if !mf.Has(cormatTemperature, cormatSalinity, cormatPressure) {
		return domain.Skip(domain.ReasonNoColumns)
	}

	temp, ok1 := mf.Vars[cormatTemperature].Floats()
	sal, ok2 := mf.Vars[cormatSalinity].Floats()
	pres, ok3 := mf.Vars[cormatPressure].Floats()
	if !ok1 || !ok2 || !ok3 {
		return domain.Fail(fmt.Errorf("%s: measurement fields are not numeric", name))
	}
	if IsDownCast(pres) {
		return domain.Skip(domain.ReasonDownCast)
	}

	h := domain.ProfileHeader{
		Source:        domain.SourceITP,
		Instrument:    id.Instrument,
		ProfileNumber: id.ProfileNumber,
		Format:        domain.FormatCormat,
		Timestamp:     cormatTime(mf),
	}
	h.Longitude, h.Latitude = domain.NormalizeFix(scalar(mf, cormatLongitude), scalar(mf, cormatLatitude))
	return domain.Accept(domain.NewProfile(h, temp, sal, pres))
}

// IsDownCast reports whether the first pressure sample is shallower than
// the last: the profiler was descending.
func IsDownCast(pressure []float64) bool {
	return len(pressure) > 0 && pressure[0] < pressure[len(pressure)-1]
}

// ParseCormatTime parses an "MM/DD/YY" date and an "HH:MM:SS" time. Returns
// nil on any failure.
func ParseCormatTime(date, clock string) *time.Time {
	if date == "" || clock == "" {
		return nil
	}
	t, err := time.Parse(cormatTimeLayout, date+" "+clock)
	if err != nil {
		return nil
	}
	return &t
}

func cormatTime(mf *matfile.File) *time.Time {
	date, ok := mf.Vars[cormatDate].Text()
	if !ok {
		return nil
	}
	clock, ok := mf.Vars[cormatStart].Text()
	if !ok {
		return nil
	}
	return ParseCormatTime(date, clock)
}

func scalar(mf *matfile.File, name string) *float64 {
	v, ok := mf.Vars[name].Scalar()
	if !ok || math.IsNaN(v) {
		return nil
	}
	return &v
}
