package debug

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/mrermin/ermin/internal/file"
)

var (
	once    sync.Once
	logger  *slog.Logger
	logFile = filepath.Join(os.TempDir(), "ermin-debug.log")
)

// SetLogFile sets the file the logger writes to. It has no effect once GetLogger has been called.
func SetLogFile(path string) {
	if path != "" {
		logFile = path
	}
}

// GetLogger returns a singleton slog logger instance
func GetLogger() *slog.Logger {
	once.Do(func() {
		var w io.Writer = io.Discard
		if err := file.CreateDirectoryIfNotExist(filepath.Dir(logFile)); err == nil {
			if f, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666); err == nil {
				w = f
			}
		}
		logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
	})
	return logger
}
