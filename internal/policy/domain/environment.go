package domain

// FingerprintLength is the length of a SHA-512 hex digest. Policy documents
// carry token fingerprints, never plaintext tokens.
const FingerprintLength = 128

// EnvironmentInput contains the raw fields of one tenant as they appear in
// the policy document, with zone grants already constructed.
type EnvironmentInput struct {
	Name             string
	TokenFingerprint string
	Zones            []*Zone
	GlobalReadOnly   bool
	GlobalSearch     bool
	GlobalTSIGKeys   bool
	GlobalCryptokeys bool
	MetricsProxy     bool
	AuditLogAccess   bool
}

// Environment is one tenant's complete access grant, addressed by the SHA-512
// fingerprint of its bearer token. Environments are built once at
// configuration-load time and never mutated afterward.
type Environment struct {
	Name             string
	TokenFingerprint string
	Zones            []*Zone
	GlobalReadOnly   bool
	GlobalSearch     bool
	GlobalTSIGKeys   bool
	GlobalCryptokeys bool
	MetricsProxy     bool
	AuditLogAccess   bool

	// zoneIndex caches the full-scan result for every literal grant name.
	// It is a read-only lookup built at construction and can never change a
	// matching outcome versus the ordered scan in MatchZone.
	zoneIndex map[string]*Zone
}

// NewEnvironment builds an Environment and applies its construction
// invariants: with GlobalReadOnly set, every zone grant is coerced to
// read-only. Field validation (non-empty name, fingerprint shape) happens in
// the policy repository before construction.
func NewEnvironment(in EnvironmentInput) *Environment {
	env := &Environment{
		Name:             in.Name,
		TokenFingerprint: in.TokenFingerprint,
		Zones:            in.Zones,
		GlobalReadOnly:   in.GlobalReadOnly,
		GlobalSearch:     in.GlobalSearch,
		GlobalTSIGKeys:   in.GlobalTSIGKeys,
		GlobalCryptokeys: in.GlobalCryptokeys,
		MetricsProxy:     in.MetricsProxy,
		AuditLogAccess:   in.AuditLogAccess,
	}

	if env.GlobalReadOnly {
		for _, zone := range env.Zones {
			zone.ReadOnly = true
		}
	}

	env.zoneIndex = make(map[string]*Zone, len(env.Zones))
	for _, zone := range env.Zones {
		if zone.IsRegex {
			continue
		}
		name := NormalizeName(zone.Name)
		if _, ok := env.zoneIndex[name]; ok {
			continue
		}
		if match, err := env.matchZoneScan(name); err == nil {
			env.zoneIndex[name] = match
		}
	}

	return env
}

// MatchZone resolves a zone name to the grant that governs it, scanning the
// grants in their configured order and trying, per grant, an exact match,
// then the subzone suffix, then the grant pattern. Returns ErrZoneNotAllowed
// when no grant structurally matches; GlobalReadOnly does not change this,
// read access to unconfigured zones is decided by ZoneReadAllowed.
func (e *Environment) MatchZone(zone string) (*Zone, error) {
	if z, ok := e.zoneIndex[NormalizeName(zone)]; ok {
		return z, nil
	}
	return e.matchZoneScan(zone)
}

func (e *Environment) matchZoneScan(zone string) (*Zone, error) {
	for _, z := range e.Zones {
		if z.matchesName(zone) {
			return z, nil
		}
	}
	return nil, ErrZoneNotAllowed
}
