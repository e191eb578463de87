package logger

import (
	"log/slog"
	"os"
)

// New returns the application logger. Text output to stdout keeps local runs
// readable; a log shipper handles structure in production.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
