package commands

import (
	"fmt"
	"io"

	"github.com/allisson/pdns-gateway/internal/policy/service"
)

// RunHashToken prints the SHA-512 fingerprint of a plain token in the form
// expected by the token_sha512 field of the policy document.
func RunHashToken(out io.Writer, token string) error {
	if token == "" {
		return fmt.Errorf("--token must not be empty")
	}

	fingerprint := service.NewFingerprintService().Fingerprint(token)
	fmt.Fprintf(out, "%s\n", fingerprint)
	return nil
}
