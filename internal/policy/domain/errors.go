package domain

import (
	"fmt"

	"github.com/allisson/pdns-gateway/internal/errors"
)

// Authorization errors. Each carries the short, fixed message the gateway
// returns to the caller; none of them leaks grant or upstream detail.
var (
	// ErrNotAuthenticated indicates no environment is registered for the presented token.
	ErrNotAuthenticated = errors.Wrap(errors.ErrUnauthorized, "no environment for token")

	// ErrZoneNotAllowed indicates no zone grant covers the requested zone.
	ErrZoneNotAllowed = errors.Wrap(errors.ErrForbidden, "zone not allowed")

	// ErrZoneAdminNotAllowed indicates the matched grant does not permit creating
	// or deleting the zone itself.
	ErrZoneAdminNotAllowed = errors.Wrap(errors.ErrForbidden, "not zone admin")

	// ErrRecordNotAllowed indicates a record change is outside the grant.
	ErrRecordNotAllowed = errors.Wrap(errors.ErrForbidden, "record not allowed")

	// ErrResourceNotAllowed indicates access to an auxiliary resource
	// (server configuration, statistics, TSIG keys, crypto keys) is disabled.
	ErrResourceNotAllowed = errors.Wrap(errors.ErrForbidden, "resource not allowed")

	// ErrSearchNotAllowed indicates the environment has no global search grant.
	ErrSearchNotAllowed = errors.Wrap(errors.ErrForbidden, "search not allowed")

	// ErrMetricsNotAllowed indicates the environment has no metrics grant.
	ErrMetricsNotAllowed = errors.Wrap(errors.ErrForbidden, "metrics not allowed")

	// ErrRRSetReadOnly indicates a mutation was attempted with a read-only grant.
	ErrRRSetReadOnly = errors.Wrap(errors.ErrForbidden, "rrset update not allowed with read only token")
)

// RecordDeniedError names the first record refused in an RRSet change batch.
type RecordDeniedError struct {
	Record string
}

func (e *RecordDeniedError) Error() string {
	return fmt.Sprintf("RRSET %s not allowed", e.Record)
}

func (e *RecordDeniedError) Unwrap() error {
	return ErrRecordNotAllowed
}
