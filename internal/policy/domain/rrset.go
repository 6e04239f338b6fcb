package domain

// RRSetRecord is a single value inside a resource-record set.
type RRSetRecord struct {
	Content  string `json:"content"`
	Disabled bool   `json:"disabled"`
}

// RRSetComment is an annotation attached to a resource-record set.
type RRSetComment struct {
	Content    string `json:"content"`
	Account    string `json:"account"`
	ModifiedAt int64  `json:"modified_at"`
}

// RRSet is one resource-record-set change. Only Name is consulted by the
// authorization engine; every field passes through to the upstream call
// unmodified.
type RRSet struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	ChangeType string         `json:"changetype"`
	TTL        int            `json:"ttl"`
	Records    []RRSetRecord  `json:"records"`
	Comments   []RRSetComment `json:"comments"`
}

// RRSetsRequest is the body of a zone PATCH: a batch of RRSet changes.
type RRSetsRequest struct {
	RRSets []RRSet `json:"rrsets"`
}
