package http

import (
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/pdns-gateway/internal/httputil"
)

func TestIndex(t *testing.T) {
	t.Run("serves the default index page", func(t *testing.T) {
		harness := newTestHarness(t, okUpstream())
		recorder := harness.do(nethttp.MethodGet, "/", "", "")

		assert.Equal(t, nethttp.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, recorder.Body.String(), "PowerDNS API Gateway")
	})

	t.Run("404 when the index is disabled", func(t *testing.T) {
		policy := func(upstreamURL string) string {
			return fmt.Sprintf(`---
pdns_api_url: %q
pdns_api_token: "upstream-secret"
index_enabled: false
environments:
  - name: "prod"
    token_sha512: %q
`, upstreamURL, prodFingerprint)
		}
		harness := newHarnessWithPolicy(t, okUpstream(), policy)

		recorder := harness.do(nethttp.MethodGet, "/", "", "")
		assert.Equal(t, nethttp.StatusNotFound, recorder.Code)
	})
}

func TestHealthPDNS(t *testing.T) {
	t.Run("reports ok when the upstream answers", func(t *testing.T) {
		harness := newTestHarness(t, okUpstream())
		recorder := harness.do(nethttp.MethodGet, "/health/pdns", "", "")

		assert.Equal(t, nethttp.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"status": "ok"}`, recorder.Body.String())
	})

	t.Run("reports unavailable on upstream server errors", func(t *testing.T) {
		harness := newTestHarness(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
			w.WriteHeader(nethttp.StatusInternalServerError)
		})
		recorder := harness.do(nethttp.MethodGet, "/health/pdns", "", "")

		assert.Equal(t, nethttp.StatusServiceUnavailable, recorder.Code)
		assert.JSONEq(t, `{"status": "unavailable"}`, recorder.Body.String())
	})
}

func TestInfoAllowed(t *testing.T) {
	harness := newTestHarness(t, okUpstream())

	t.Run("returns the environment's grants", func(t *testing.T) {
		recorder := harness.do(nethttp.MethodGet, "/info/allowed", limitedToken, "")
		require.Equal(t, nethttp.StatusOK, recorder.Code)

		var body struct {
			Environment    string `json:"environment"`
			GlobalReadOnly bool   `json:"global_read_only"`
			Zones          []struct {
				Name    string   `json:"name"`
				Records []string `json:"records"`
			} `json:"zones"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, "limited", body.Environment)
		assert.False(t, body.GlobalReadOnly)
		require.Len(t, body.Zones, 1)
		assert.Equal(t, "example.org.", body.Zones[0].Name)
		assert.Equal(t, []string{"www.example.org."}, body.Zones[0].Records)
	})

	t.Run("requires authentication", func(t *testing.T) {
		recorder := harness.do(nethttp.MethodGet, "/info/allowed", "", "")
		assert.Equal(t, nethttp.StatusUnauthorized, recorder.Code)
	})
}

func TestInfoZoneAllowed(t *testing.T) {
	harness := newTestHarness(t, okUpstream())

	query := func(token, zone string) (int, map[string]json.RawMessage) {
		recorder := harness.do(nethttp.MethodGet, "/info/zone-allowed?zone="+zone, token, "")
		var body map[string]json.RawMessage
		if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
			body = nil
		}
		return recorder.Code, body
	}

	t.Run("reports an allowed zone with its grant", func(t *testing.T) {
		code, body := query(limitedToken, "example.org.")
		require.Equal(t, nethttp.StatusOK, code)
		assert.JSONEq(t, "true", string(body["allowed"]))
		assert.Contains(t, string(body["grant"]), "example.org.")
	})

	t.Run("reports a denied zone without a grant", func(t *testing.T) {
		code, body := query(limitedToken, "other.net.")
		require.Equal(t, nethttp.StatusOK, code)
		assert.JSONEq(t, "false", string(body["allowed"]))
		assert.NotContains(t, body, "grant")
	})

	t.Run("globally read-only environments may read everything", func(t *testing.T) {
		code, body := query(readonlyToken, "other.net.")
		require.Equal(t, nethttp.StatusOK, code)
		assert.JSONEq(t, "true", string(body["allowed"]))
	})

	t.Run("missing zone parameter is a bad request", func(t *testing.T) {
		recorder := harness.do(nethttp.MethodGet, "/info/zone-allowed", limitedToken, "")
		assert.Equal(t, nethttp.StatusBadRequest, recorder.Code)
	})
}

func TestInfoAuditLogs(t *testing.T) {
	harness := newTestHarness(t, func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusNoContent)
	})

	// Seed the audit file with a couple of mutations.
	patch := harness.do(nethttp.MethodPatch, "/api/v1/servers/localhost/zones/example.org.", prodToken, `{"rrsets": []}`)
	require.Equal(t, nethttp.StatusNoContent, patch.Code)
	del := harness.do(nethttp.MethodDelete, "/api/v1/servers/localhost/zones/example.org.", prodToken, "")
	require.Equal(t, nethttp.StatusNoContent, del.Code)

	readEntries := func(t *testing.T, target string) []json.RawMessage {
		t.Helper()
		recorder := harness.do(nethttp.MethodGet, target, prodToken, "")
		require.Equal(t, nethttp.StatusOK, recorder.Code)
		var body struct {
			Entries []json.RawMessage `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		return body.Entries
	}

	t.Run("returns recorded entries", func(t *testing.T) {
		assert.Len(t, readEntries(t, "/info/audit-logs"), 2)
	})

	t.Run("filters by method", func(t *testing.T) {
		assert.Len(t, readEntries(t, "/info/audit-logs?method=DELETE"), 1)
	})

	t.Run("honors the limit", func(t *testing.T) {
		assert.Len(t, readEntries(t, "/info/audit-logs?limit=1"), 1)
	})

	t.Run("rejects an invalid limit", func(t *testing.T) {
		recorder := harness.do(nethttp.MethodGet, "/info/audit-logs?limit=zero", prodToken, "")
		assert.Equal(t, nethttp.StatusBadRequest, recorder.Code)
	})

	t.Run("requires the audit grant", func(t *testing.T) {
		recorder := harness.do(nethttp.MethodGet, "/info/audit-logs", limitedToken, "")
		assert.Equal(t, nethttp.StatusForbidden, recorder.Code)
		assert.Equal(t, httputil.MessageResourceNotAllowed, errorBody(t, recorder))
	})
}
