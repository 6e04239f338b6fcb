package app

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/allisson/pdns-gateway/internal/config"
)

// writeTestPolicy writes a minimal valid policy document and returns its path.
func writeTestPolicy(t *testing.T) string {
	t.Helper()

	doc := fmt.Sprintf(`---
pdns_api_url: "http://127.0.0.1:8081"
pdns_api_token: "upstream-secret"
environments:
  - name: "prod"
    token_sha512: %q
    zones:
      - name: "example.org."
        admin: true
`, "2f38a64936053a7e051ec6f2dbf7a5d823ae133cba9dd4841b2fe00df5494e0363e06c9192cb22092f4abc07dbb9ff67525b035ee35b2b5b91170b7617370a0a")

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}
	return path
}

// testConfig builds a configuration pointing at a temp policy and audit log.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		ServerHost:       "localhost",
		ServerPort:       8080,
		LogLevel:         "info",
		PolicyPath:       writeTestPolicy(t),
		AuditLogPath:     filepath.Join(t.TempDir(), "audit.log"),
		UpstreamTimeout:  time.Second,
		MetricsEnabled:   false,
		MetricsNamespace: "test_gateway",
	}
}

// TestNewContainer verifies that a new container can be created with a valid configuration.
func TestNewContainer(t *testing.T) {
	cfg := testConfig(t)

	container := NewContainer(cfg)

	if container == nil {
		t.Fatal("expected non-nil container")
	}

	if container.Config() != cfg {
		t.Error("container config does not match provided config")
	}
}

// TestContainerLogger verifies that the logger can be retrieved from the container.
func TestContainerLogger(t *testing.T) {
	cfg := &config.Config{
		LogLevel: "debug",
	}

	container := NewContainer(cfg)
	logger := container.Logger()

	if logger == nil {
		t.Fatal("expected non-nil logger")
	}

	// Calling Logger() again should return the same instance (singleton)
	logger2 := container.Logger()
	if logger != logger2 {
		t.Error("expected same logger instance on multiple calls")
	}
}

// TestContainerLoggerDefaultLevel verifies that logger defaults to info level.
func TestContainerLoggerDefaultLevel(t *testing.T) {
	cfg := &config.Config{
		LogLevel: "invalid",
	}

	container := NewContainer(cfg)
	logger := container.Logger()

	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

// TestContainerInitializationErrors verifies that initialization errors are properly handled.
func TestContainerInitializationErrors(t *testing.T) {
	// Create a container pointing at a policy file that does not exist
	cfg := &config.Config{
		LogLevel:   "info",
		PolicyPath: filepath.Join(t.TempDir(), "missing.yml"),
	}

	container := NewContainer(cfg)

	// Attempting to get the policy store should return an error
	_, err := container.PolicyStore()
	if err == nil {
		t.Error("expected error when loading a missing policy document")
	}

	// Attempting to get the policy store again should return the same error
	_, err2 := container.PolicyStore()
	if err2 == nil {
		t.Error("expected error on second call to PolicyStore()")
	}

	// Dependents of the policy store should fail as well
	if _, err := container.UpstreamClient(); err == nil {
		t.Error("expected error from UpstreamClient() when policy store failed")
	}
}

// TestContainerLazyInitialization verifies that components are only initialized when accessed.
func TestContainerLazyInitialization(t *testing.T) {
	cfg := testConfig(t)

	container := NewContainer(cfg)

	// At this point, no components should be initialized
	if container.logger != nil {
		t.Error("expected logger to be nil before first access")
	}
	if container.policyStore != nil {
		t.Error("expected policy store to be nil before first access")
	}

	// Access the policy store
	store, err := container.PolicyStore()
	if err != nil {
		t.Fatalf("unexpected error getting policy store: %v", err)
	}
	if store == nil {
		t.Fatal("expected non-nil policy store")
	}

	// Now the policy store should be initialized
	if container.policyStore == nil {
		t.Error("expected policy store to be initialized after access")
	}
}

// TestContainerGatewayMetricsDisabled verifies that a no-op recorder is used when metrics are off.
func TestContainerGatewayMetricsDisabled(t *testing.T) {
	cfg := testConfig(t)

	container := NewContainer(cfg)

	provider, err := container.MetricsProvider()
	if err != nil {
		t.Fatalf("unexpected error getting metrics provider: %v", err)
	}
	if provider != nil {
		t.Error("expected nil metrics provider when metrics are disabled")
	}

	gatewayMetrics, err := container.GatewayMetrics()
	if err != nil {
		t.Fatalf("unexpected error getting gateway metrics: %v", err)
	}
	if gatewayMetrics == nil {
		t.Error("expected non-nil gateway metrics recorder")
	}
}

// TestContainerHTTPServer verifies that the full HTTP server can be assembled.
func TestContainerHTTPServer(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsEnabled = true

	container := NewContainer(cfg)

	server, err := container.HTTPServer()
	if err != nil {
		t.Fatalf("unexpected error assembling http server: %v", err)
	}
	if server == nil {
		t.Fatal("expected non-nil http server")
	}

	// Calling HTTPServer() again should return the same instance (singleton)
	server2, err := container.HTTPServer()
	if err != nil {
		t.Fatalf("unexpected error on second call to HTTPServer(): %v", err)
	}
	if server != server2 {
		t.Error("expected same http server instance on multiple calls")
	}
}

// TestContainerClose verifies that the close method can be called safely.
func TestContainerClose(t *testing.T) {
	cfg := testConfig(t)

	container := NewContainer(cfg)

	// Close should not fail even if no components are initialized
	if err := container.Close(); err != nil {
		t.Errorf("unexpected error during close: %v", err)
	}

	// Close should release the audit logger when it was initialized
	container2 := NewContainer(testConfig(t))
	if _, err := container2.AuditLogger(); err != nil {
		t.Fatalf("unexpected error getting audit logger: %v", err)
	}
	if err := container2.Close(); err != nil {
		t.Errorf("unexpected error during close: %v", err)
	}
}
