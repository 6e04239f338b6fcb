package upstream

import (
	"encoding/json"
)

// OutcomeKind tells the gateway how to relay an upstream reply.
type OutcomeKind int

const (
	// OutcomeSuccess passes status and body through verbatim.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeForwardedClientError forwards the upstream's own error body for
	// the small set of client-error codes whose detail is safe to expose.
	OutcomeForwardedClientError
	// OutcomeUpstreamError hides an upstream error shape behind a generic
	// backend-error response.
	OutcomeUpstreamError
	// OutcomeUnhandledError covers everything else.
	OutcomeUnhandledError
)

// Outcome is a classified upstream reply.
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int
	Body       []byte
}

// forwardableStatus lists the upstream client-error codes trusted to carry
// detail that is safe to forward to the caller.
var forwardableStatus = map[int]bool{
	400: true,
	404: true,
	409: true,
	422: true,
}

// Classify turns a raw upstream reply into a typed outcome. Anything outside
// the success range and the forwardable client errors is sanitized so that
// upstream internals never leak through the gateway.
func Classify(resp *Response) Outcome {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return Outcome{Kind: OutcomeSuccess, StatusCode: resp.StatusCode, Body: resp.Body}
	case forwardableStatus[resp.StatusCode]:
		return Outcome{Kind: OutcomeForwardedClientError, StatusCode: resp.StatusCode, Body: resp.Body}
	case hasErrorShape(resp.Body):
		return Outcome{Kind: OutcomeUpstreamError, StatusCode: resp.StatusCode}
	default:
		return Outcome{Kind: OutcomeUnhandledError, StatusCode: resp.StatusCode}
	}
}

// hasErrorShape reports whether the body is a JSON object carrying an "error"
// field, the shape the PowerDNS API uses for its error responses.
func hasErrorShape(body []byte) bool {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false
	}
	_, ok := parsed["error"]
	return ok
}
