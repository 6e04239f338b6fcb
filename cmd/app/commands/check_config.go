package commands

import (
	"fmt"
	"io"

	"github.com/allisson/pdns-gateway/internal/policy/repository"
)

// RunCheckConfig loads and validates the policy document at path and prints a
// short summary of the upstream target and every environment. Returns an
// error when the document fails to load or validate, making the command
// usable as a pre-deploy check.
func RunCheckConfig(out io.Writer, path string) error {
	doc, err := repository.NewFileRepository(path).Load()
	if err != nil {
		return fmt.Errorf("policy document %s is invalid: %w", path, err)
	}

	fmt.Fprintf(out, "policy document %s is valid\n", path)
	fmt.Fprintf(out, "upstream API: %s\n", doc.APIBaseURL)
	fmt.Fprintf(out, "environments: %d\n", len(doc.Environments))

	for _, env := range doc.Environments {
		flags := ""
		if env.GlobalReadOnly {
			flags += " read-only"
		}
		if env.GlobalSearch {
			flags += " search"
		}
		if env.GlobalTSIGKeys {
			flags += " tsigkeys"
		}
		if env.GlobalCryptokeys {
			flags += " cryptokeys"
		}
		if env.MetricsProxy {
			flags += " metrics"
		}
		if env.AuditLogAccess {
			flags += " audit-log"
		}
		fmt.Fprintf(out, "  - %s: %d zone grant(s)%s\n", env.Name, len(env.Zones), flags)
	}

	return nil
}
