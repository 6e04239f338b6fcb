// Package commands contains CLI command implementations for the gateway.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/allisson/pdns-gateway/internal/app"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Close(); err != nil {
		logger.Error("failed to close container", slog.Any("error", err))
	}
}
