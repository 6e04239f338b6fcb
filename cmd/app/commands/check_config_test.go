package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testFingerprint = "2f38a64936053a7e051ec6f2dbf7a5d823ae133cba9dd4841b2fe00df5494e0363e06c9192cb22092f4abc07dbb9ff67525b035ee35b2b5b91170b7617370a0a"

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunCheckConfig(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		path := writePolicyFile(t, fmt.Sprintf(`---
pdns_api_url: "http://127.0.0.1:8081"
pdns_api_token: "upstream-secret"
environments:
  - name: "prod"
    token_sha512: %q
    global_search: true
    zones:
      - name: "example.org."
        admin: true
      - name: "example.net."
`, testFingerprint))

		var out bytes.Buffer
		err := RunCheckConfig(&out, path)
		require.NoError(t, err)
		require.Contains(t, out.String(), "is valid")
		require.Contains(t, out.String(), "upstream API: http://127.0.0.1:8081")
		require.Contains(t, out.String(), "environments: 1")
		require.Contains(t, out.String(), "prod: 2 zone grant(s) search")
	})

	t.Run("global flags in summary", func(t *testing.T) {
		path := writePolicyFile(t, fmt.Sprintf(`---
pdns_api_url: "http://127.0.0.1:8081"
pdns_api_token: "upstream-secret"
environments:
  - name: "readonly"
    token_sha512: %q
    global_read_only: true
    zones:
      - name: "example.org."
`, testFingerprint))

		var out bytes.Buffer
		err := RunCheckConfig(&out, path)
		require.NoError(t, err)
		require.Contains(t, out.String(), "readonly: 1 zone grant(s) read-only")
	})

	t.Run("missing file", func(t *testing.T) {
		var out bytes.Buffer
		err := RunCheckConfig(&out, filepath.Join(t.TempDir(), "missing.yml"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "is invalid")
	})

	t.Run("invalid document", func(t *testing.T) {
		path := writePolicyFile(t, `---
pdns_api_url: "http://127.0.0.1:8081"
environments:
  - name: "prod"
    token_sha512: "not-a-fingerprint"
`)

		var out bytes.Buffer
		err := RunCheckConfig(&out, path)
		require.Error(t, err)
		require.Empty(t, out.String())
	})
}
