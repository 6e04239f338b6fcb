// Package domain defines the policy model for the gateway: environments addressed
// by token fingerprint, zone grants with exact, subzone and regex matching, and the
// record-level authorization rules evaluated before any request reaches the
// upstream PowerDNS API.
//
// Everything in this package is a pure function of immutable values built once at
// configuration-load time; nothing here performs I/O or mutates shared state.
package domain

import (
	"regexp"
	"strings"
)

// ZoneInput contains the raw fields of a zone grant as they appear in the
// policy document. NewZone validates them and derives the grant invariants.
type ZoneInput struct {
	Name         string
	Description  string
	IsRegex      bool
	Subzones     bool
	Admin        bool
	AllRecords   bool
	ReadOnly     bool
	Records      []string
	RegexRecords []string
	ACMEEnabled  bool
}

// Zone is one environment's access rule set for a DNS zone (or, with IsRegex,
// a family of zones). Zones are immutable after construction.
type Zone struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	IsRegex      bool     `json:"regex"`
	Subzones     bool     `json:"subzones"`
	Admin        bool     `json:"admin"`
	AllRecords   bool     `json:"all_records"`
	ReadOnly     bool     `json:"read_only"`
	Records      []string `json:"records,omitempty"`
	RegexRecords []string `json:"regex_records,omitempty"`
	ACMEEnabled  bool     `json:"acme"`

	nameRegex     *regexp.Regexp
	recordRegexes []*regexp.Regexp
}

// NewZone builds a Zone grant, compiling its patterns and deriving invariants:
// a grant with neither explicit records nor record patterns covers every record
// in the zone and implicitly allows ACME automation.
func NewZone(in ZoneInput) (*Zone, error) {
	z := &Zone{
		Name:         in.Name,
		Description:  in.Description,
		IsRegex:      in.IsRegex,
		Subzones:     in.Subzones,
		Admin:        in.Admin,
		AllRecords:   in.AllRecords,
		ReadOnly:     in.ReadOnly,
		Records:      in.Records,
		RegexRecords: in.RegexRecords,
		ACMEEnabled:  in.ACMEEnabled,
	}

	if len(z.Records) == 0 && len(z.RegexRecords) == 0 {
		z.AllRecords = true
		z.ACMEEnabled = true
	}

	if z.IsRegex {
		re, err := compileAnchored(z.Name)
		if err != nil {
			return nil, err
		}
		z.nameRegex = re
	}

	for _, pattern := range z.RegexRecords {
		re, err := compileAnchored(pattern)
		if err != nil {
			return nil, err
		}
		z.recordRegexes = append(z.recordRegexes, re)
	}

	return z, nil
}

// matchesName reports whether the grant structurally covers the given zone name,
// trying an exact match, then the subzone suffix, then the grant pattern.
func (z *Zone) matchesName(zone string) bool {
	if NamesEqual(zone, z.Name) {
		return true
	}
	if z.Subzones && IsSubzone(zone, z.Name) {
		return true
	}
	if z.nameRegex != nil && z.nameRegex.MatchString(NormalizeName(zone)) {
		return true
	}
	return false
}

// RecordChangeAllowed decides whether a single record change is permitted by
// this grant. Read-only grants never permit mutation; open grants permit
// everything; otherwise the record must belong to the zone and be covered by
// an explicit record, a record pattern, or the ACME allowance.
func (z *Zone) RecordChangeAllowed(record string) bool {
	if z.ReadOnly {
		return false
	}

	if z.AllRecords {
		return true
	}

	// A record outside the zone is never granted by records, patterns or ACME.
	name := NormalizeName(record)
	if !strings.HasSuffix(name, NormalizeName(z.Name)) {
		return false
	}

	for _, r := range z.Records {
		if NamesEqual(record, r) {
			return true
		}
	}

	for _, re := range z.recordRegexes {
		if re.MatchString(name) {
			return true
		}
	}

	return z.acmeRecordAllowed(record)
}

// acmeRecordAllowed implements the automatic ACME-challenge allowance: every
// explicitly permitted record implies permission for its _acme-challenge name.
func (z *Zone) acmeRecordAllowed(record string) bool {
	if z.AllRecords {
		return true
	}

	if !z.ACMEEnabled {
		return false
	}

	for _, r := range z.Records {
		if NamesEqual("_acme-challenge."+r, record) {
			return true
		}
	}

	return false
}

// EnsureRRSetsAllowed checks a whole RRSet change batch against the grant,
// failing fast on the first denied record. An empty batch succeeds once the
// read-only gate has passed.
func (z *Zone) EnsureRRSetsAllowed(request RRSetsRequest) error {
	if z.ReadOnly {
		return ErrRRSetReadOnly
	}

	for _, rrset := range request.RRSets {
		if !z.RecordChangeAllowed(rrset.Name) {
			return &RecordDeniedError{Record: rrset.Name}
		}
	}

	return nil
}
