package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/allisson/pdns-gateway/internal/audit"
)

// RunReadAuditLog prints audit entries from the file at path, one JSON object
// per line, applying the optional environment, method, and status code
// filters and stopping after limit entries.
func RunReadAuditLog(out io.Writer, path, environment, method string, statusCode, limit int) error {
	if limit <= 0 {
		return fmt.Errorf("--limit must be greater than zero")
	}

	logger, err := audit.NewLogger(path)
	if err != nil {
		return fmt.Errorf("failed to open audit log %s: %w", path, err)
	}
	defer func() { _ = logger.Close() }()

	entries, err := logger.Read(audit.Filter{
		Environment: environment,
		Method:      method,
		StatusCode:  statusCode,
	}, limit)
	if err != nil {
		return fmt.Errorf("failed to read audit log %s: %w", path, err)
	}

	encoder := json.NewEncoder(out)
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("failed to encode audit entry: %w", err)
		}
	}

	return nil
}
