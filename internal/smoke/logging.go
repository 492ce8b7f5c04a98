package smoke

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/attendance/pkg/logger"
)

// SetupLogging initialises the logger for a smoke run. When logFile is set,
// records go to both stderr and the file; the returned func closes it.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	w := io.Writer(os.Stderr)
	closer := func() error { return nil }

	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return closer, fmt.Errorf("failed to create log file: %w", err)
		}
		w = io.MultiWriter(os.Stderr, file)
		closer = file.Close
	}

	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return closer, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		if err := logger.SetLevelString("debug"); err != nil {
			return closer, err
		}
	}
	return closer, nil
}
