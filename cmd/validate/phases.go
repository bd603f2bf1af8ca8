package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/couchcryptid/arctic-profile-etl/internal/exclusion"
	"github.com/couchcryptid/arctic-profile-etl/internal/filter"
)

// maxErrors caps the messages kept per phase.
const maxErrors = 20

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	total  int
}

func (p *phase) errorf(format string, args ...any) {
	p.total++
	if len(p.errors) < maxErrors {
		p.errors = append(p.errors, fmt.Sprintf(format, args...))
	}
}

func (p *phase) passed() bool { return p.total == 0 }

// ── Phase 1: Completeness ──

func validateCompleteness(tbl *domain.Table) *phase {
	p := &phase{name: "Phase 1: Completeness (no null T/S/p)"}
	for i, r := range tbl.Rows() {
		if !r.Complete() {
			p.errorf("row %d (%s %s #%s): missing measurement", i, r.Source, r.Instrument, r.ProfileNumber)
		}
	}
	return p
}

// ── Phase 2: Exclusion ──

func validateExclusion(tbl *domain.Table, policy *exclusion.Policy, allow exclusion.AllowList) *phase {
	p := &phase{name: "Phase 2: Exclusion (deny-list, allow-list)"}
	for _, k := range tbl.Profiles() {
		if policy.IsDenied(k.Source, k.Instrument, k.ProfileNumber) {
			p.errorf("%s %s #%s is deny-listed", k.Source, k.Instrument, k.ProfileNumber)
		}
		// Allow-lists are keyed by the requested instrument.
		if !policy.IsAllowed(k.Source, strings.TrimSuffix(k.Instrument, ".1"), k.ProfileNumber, allow) {
			p.errorf("%s %s #%s is not on the allow-list", k.Source, k.Instrument, k.ProfileNumber)
		}
	}
	return p
}

// ── Phase 3: Profile metadata ──

func validateProfileMetadata(tbl *domain.Table) *phase {
	p := &phase{name: "Phase 3: Profile Metadata (per-cast constants)"}
	for _, k := range tbl.Profiles() {
		rows := tbl.ProfileRows(k)
		first := rows[0]
		for _, r := range rows[1:] {
			if !ptrFloatEq(r.Longitude, first.Longitude) || !ptrFloatEq(r.Latitude, first.Latitude) {
				p.errorf("%s %s #%s: coordinates vary within the profile", k.Source, k.Instrument, k.ProfileNumber)
				break
			}
			if !ptrTimeEq(r.Timestamp, first.Timestamp) || r.Format != first.Format {
				p.errorf("%s %s #%s: timestamp or format varies within the profile", k.Source, k.Instrument, k.ProfileNumber)
				break
			}
		}
		if first.Longitude != nil && first.Latitude != nil &&
			*first.Longitude == domain.InvalidFix && *first.Latitude == domain.InvalidFix {
			p.errorf("%s %s #%s: no-fix sentinel leaked into coordinates", k.Source, k.Instrument, k.ProfileNumber)
		}
		if first.Format.Source() != k.Source {
			p.errorf("%s %s #%s: format %q does not belong to the source", k.Source, k.Instrument, k.ProfileNumber, first.Format)
		}
	}
	return p
}

// ── Phase 4: Filters ──

func validateFilters(tbl *domain.Table, chain filter.Chain, minPoints int) *phase {
	p := &phase{name: "Phase 4: Filters (ranges, cast direction)"}
	for i, f := range chain {
		switch f := f.(type) {
		case filter.Range:
			for i, r := range tbl.Rows() {
				if v := r.Value(f.Column); v <= f.Lo || v >= f.Hi {
					p.errorf("row %d: %s=%g outside (%g, %g)", i, f.Column, v, f.Lo, f.Hi)
				}
			}
		case filter.CastDirection:
			// Later filters may legitimately thin a profile below the minimum.
			if i < len(chain)-1 {
				minPoints = 0
			}
			checkDirection(p, tbl, f.Direction, minPoints)
		}
	}
	return p
}

func checkDirection(p *phase, tbl *domain.Table, dir filter.Direction, minPoints int) {
	suffix := "-" + string(dir)
	for _, k := range tbl.Profiles() {
		rows := tbl.ProfileRows(k)
		if len(rows) < minPoints {
			p.errorf("%s %s #%s: %d rows, need %d", k.Source, k.Instrument, k.ProfileNumber, len(rows), minPoints)
		}
		for i, r := range rows {
			if !strings.HasSuffix(r.Notes, suffix) {
				p.errorf("%s %s #%s: notes %q lack %q", k.Source, k.Instrument, k.ProfileNumber, r.Notes, suffix)
				break
			}
			if i > 0 && r.Pressure < rows[i-1].Pressure {
				p.errorf("%s %s #%s: not sorted by pressure at row %d", k.Source, k.Instrument, k.ProfileNumber, i)
				break
			}
		}
	}
}

// ── Phase 5: Request order ──

func validateRequestOrder(tbl *domain.Table, requests []domain.SourceRequest) *phase {
	p := &phase{name: "Phase 5: Request Order (concatenation)"}
	position := make(map[string]int, len(requests))
	for i, req := range requests {
		key := string(req.Source()) + "/" + req.Instrument + "/" + string(req.Format)
		if _, ok := position[key]; !ok {
			position[key] = i
		}
	}

	last := -1
	for i, r := range tbl.Rows() {
		instrument := strings.TrimSuffix(r.Instrument, ".1")
		pos, ok := position[string(r.Source)+"/"+instrument+"/"+string(r.Format)]
		if !ok {
			p.errorf("row %d: %s %s %s was not requested", i, r.Source, r.Instrument, r.Format)
			continue
		}
		if pos < last {
			p.errorf("row %d: %s %s appears after a later request", i, r.Source, r.Instrument)
		}
		last = max(last, pos)
	}
	return p
}

func ptrFloatEq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func ptrTimeEq(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
