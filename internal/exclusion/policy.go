// Package exclusion decides which profiles may enter a load: a static
// deny-list of known-bad casts and an optional per-request allow-list.
package exclusion

import (
	"strconv"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
)

// DenyList maps source and instrument to the profile numbers that must never
// be loaded. Treat values as immutable once handed to a Policy.
type DenyList map[domain.Source]map[string][]int

// KnownBad is the deny-list of casts with recording errors.
func KnownBad() DenyList {
	return DenyList{
		domain.SourceAIDJEX: {
			"BigBear":  {531, 535, 537, 539, 541, 543, 545, 547, 549},
			"BlueFox":  {94, 308, 310},
			"Caribou":  {},
			"Snowbird": {443},
		},
	}
}

// AllowList restricts a load to explicit profile numbers, per source and
// instrument:
//
//	{AIDJEX: {BigBear: ["1", "3"]}, ITP: {"2": ["1", "3"]}}
//
// A source or instrument without an entry is unrestricted.
type AllowList map[domain.Source]map[string][]string

type key struct {
	source     domain.Source
	instrument string
}

// Policy answers deny-list and allow-list questions. It is safe to share
// across loads.
type Policy struct {
	deny map[key]map[string]struct{}
}

// NewPolicy copies deny into an immutable lookup table.
func NewPolicy(deny DenyList) *Policy {
	p := &Policy{deny: make(map[key]map[string]struct{})}
	for src, byInst := range deny {
		for inst, nums := range byInst {
			set := make(map[string]struct{}, len(nums))
			for _, n := range nums {
				set[strconv.Itoa(n)] = struct{}{}
			}
			p.deny[key{src, inst}] = set
		}
	}
	return p
}

// IsDenied reports whether the profile is on the deny-list.
func (p *Policy) IsDenied(source domain.Source, instrument, profileNumber string) bool {
	set, ok := p.deny[key{source, instrument}]
	if !ok {
		return false
	}
	_, denied := set[profileNumber]
	return denied
}

// IsAllowed reports whether the allow-list admits the profile. A nil
// allow-list, or one with no entry for this source/instrument, admits all.
func (p *Policy) IsAllowed(source domain.Source, instrument, profileNumber string, allow AllowList) bool {
	if allow == nil {
		return true
	}
	bySource, ok := allow[source]
	if !ok {
		return true
	}
	nums, ok := bySource[instrument]
	if !ok {
		return true
	}
	for _, n := range nums {
		if n == profileNumber {
			return true
		}
	}
	return false
}

// Check applies the deny-list, then the allow-list. It returns an empty
// reason when the profile may be loaded.
func (p *Policy) Check(source domain.Source, instrument, profileNumber string, allow AllowList) string {
	if p.IsDenied(source, instrument, profileNumber) {
		return domain.ReasonDenyListed
	}
	if !p.IsAllowed(source, instrument, profileNumber, allow) {
		return domain.ReasonNotAllowed
	}
	return ""
}
