package commands

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/allisson/pdns-gateway/internal/audit"
)

func writeAuditEntries(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.log")

	logger, err := audit.NewLogger(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, logger.Close()) }()

	require.NoError(t, logger.Log("prod", "PATCH", "/api/v1/servers/localhost/zones/example.org.", []byte(`{"rrsets":[]}`), 204))
	require.NoError(t, logger.Log("staging", "DELETE", "/api/v1/servers/localhost/zones/example.net.", nil, 403))
	require.NoError(t, logger.LogUnauthorized("POST", "/api/v1/servers/localhost/zones", nil, 401))

	return path
}

func TestRunReadAuditLog(t *testing.T) {
	t.Run("prints all entries as JSON lines", func(t *testing.T) {
		path := writeAuditEntries(t)

		var out bytes.Buffer
		err := RunReadAuditLog(&out, path, "", "", 0, 100)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 3)
		for _, line := range lines {
			var entry audit.Entry
			require.NoError(t, json.Unmarshal([]byte(line), &entry))
		}
	})

	t.Run("filters by environment", func(t *testing.T) {
		path := writeAuditEntries(t)

		var out bytes.Buffer
		err := RunReadAuditLog(&out, path, "prod", "", 0, 100)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 1)
		require.Contains(t, lines[0], `"environment":"prod"`)
	})

	t.Run("filters by method and status code", func(t *testing.T) {
		path := writeAuditEntries(t)

		var out bytes.Buffer
		err := RunReadAuditLog(&out, path, "", "delete", 403, 100)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 1)
		require.Contains(t, lines[0], `"environment":"staging"`)
	})

	t.Run("respects the limit", func(t *testing.T) {
		path := writeAuditEntries(t)

		var out bytes.Buffer
		err := RunReadAuditLog(&out, path, "", "", 0, 2)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 2)
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		var out bytes.Buffer
		err := RunReadAuditLog(&out, filepath.Join(t.TempDir(), "audit.log"), "", "", 0, 0)
		require.Error(t, err)
	})

	t.Run("missing file yields no entries", func(t *testing.T) {
		var out bytes.Buffer
		err := RunReadAuditLog(&out, filepath.Join(t.TempDir(), "audit.log"), "", "", 0, 100)
		require.NoError(t, err)
		require.Empty(t, out.String())
	})
}
