package domain

// Decision functions: pure predicates evaluated before any upstream call.
// They never perform I/O and never mutate the environment.

// ZoneReadAllowed reports whether the environment may read the given zone.
// Globally read-only environments may read every zone, configured or not.
func ZoneReadAllowed(env *Environment, zone string) bool {
	if env.GlobalReadOnly {
		return true
	}
	_, err := env.MatchZone(zone)
	return err == nil
}

// ZoneAdminAllowed reports whether the environment may create or delete the
// given zone. There is deliberately no global-read-only shortcut here: without
// a structurally matching grant, admin is always denied.
func ZoneAdminAllowed(env *Environment, zone string) bool {
	z, err := env.MatchZone(zone)
	if err != nil {
		return false
	}
	return z.Admin
}

// SearchAllowed reports whether the environment may use the upstream search API.
func SearchAllowed(env *Environment) bool {
	return env.GlobalSearch
}

// TSIGKeysAllowed reports whether the environment may access TSIG keys.
func TSIGKeysAllowed(env *Environment) bool {
	return env.GlobalTSIGKeys
}

// CryptokeysAllowed reports whether the environment may access DNSSEC crypto
// keys for the given zone. The grant is currently global; the zone argument
// keeps the signature stable for a future per-zone grant.
func CryptokeysAllowed(env *Environment, zone string) bool {
	_ = zone
	return env.GlobalCryptokeys
}

// MetricsAllowed reports whether a Basic-auth metrics request may proceed:
// the claimed username must equal the environment name and the environment
// must carry the metrics grant. The password is the environment's bearer
// token and has already been resolved to env by the caller.
func MetricsAllowed(env *Environment, claimedName string) bool {
	return env.Name == claimedName && env.MetricsProxy
}

// AuditReadAllowed reports whether the environment may read back audit entries.
func AuditReadAllowed(env *Environment) bool {
	return env.AuditLogAccess
}
