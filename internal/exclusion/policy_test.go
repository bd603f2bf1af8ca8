package exclusion

import (
	"testing"

	"github.com/couchcryptid/arctic-profile-etl/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestPolicy_IsDenied(t *testing.T) {
	p := NewPolicy(KnownBad())

	tests := []struct {
		name       string
		source     domain.Source
		instrument string
		profile    string
		want       bool
	}{
		{"listed BigBear cast", domain.SourceAIDJEX, "BigBear", "531", true},
		{"listed Snowbird cast", domain.SourceAIDJEX, "Snowbird", "443", true},
		{"unlisted cast", domain.SourceAIDJEX, "BigBear", "530", false},
		{"empty entry", domain.SourceAIDJEX, "Caribou", "1", false},
		{"unknown instrument", domain.SourceAIDJEX, "Seal", "531", false},
		{"other source same number", domain.SourceITP, "BigBear", "531", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsDenied(tt.source, tt.instrument, tt.profile))
		})
	}
}

func TestPolicy_IsAllowed(t *testing.T) {
	p := NewPolicy(nil)
	allow := AllowList{
		domain.SourceAIDJEX: {"BigBear": {"1", "3"}},
		domain.SourceITP:    {"2": {"7"}},
	}

	tests := []struct {
		name       string
		allow      AllowList
		source     domain.Source
		instrument string
		profile    string
		want       bool
	}{
		{"no allow-list", nil, domain.SourceAIDJEX, "BigBear", "99", true},
		{"listed", allow, domain.SourceAIDJEX, "BigBear", "3", true},
		{"not listed", allow, domain.SourceAIDJEX, "BigBear", "2", false},
		{"instrument without entry", allow, domain.SourceAIDJEX, "BlueFox", "2", true},
		{"source without entry", AllowList{domain.SourceITP: {"2": {"7"}}}, domain.SourceAIDJEX, "BigBear", "2", true},
		{"mixed sources share one list", allow, domain.SourceITP, "2", "7", true},
		{"mixed sources share one list, miss", allow, domain.SourceITP, "2", "8", false},
		{"empty set admits nothing", AllowList{domain.SourceITP: {"2": {}}}, domain.SourceITP, "2", "1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsAllowed(tt.source, tt.instrument, tt.profile, tt.allow))
		})
	}
}

func TestPolicy_DenyWinsOverAllow(t *testing.T) {
	p := NewPolicy(KnownBad())
	allow := AllowList{domain.SourceAIDJEX: {"BigBear": {"531", "1"}}}

	assert.Equal(t, domain.ReasonDenyListed, p.Check(domain.SourceAIDJEX, "BigBear", "531", allow))
	assert.Equal(t, domain.ReasonNotAllowed, p.Check(domain.SourceAIDJEX, "BigBear", "2", allow))
	assert.Empty(t, p.Check(domain.SourceAIDJEX, "BigBear", "1", allow))
}

func TestNewPolicy_CopiesInput(t *testing.T) {
	deny := DenyList{domain.SourceITP: {"5": {10}}}
	p := NewPolicy(deny)

	deny[domain.SourceITP]["5"] = append(deny[domain.SourceITP]["5"], 11)

	assert.True(t, p.IsDenied(domain.SourceITP, "5", "10"))
	assert.False(t, p.IsDenied(domain.SourceITP, "5", "11"))
}
