package transcript

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// removeRetryDelay covers filesystems that release handles lazily.
var removeRetryDelay = 200 * time.Millisecond

// removeTemp deletes path, retrying once. Failure is logged and swallowed.
func removeTemp(logger *slog.Logger, path string) {
	if path == "" {
		return
	}
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return
	}
	time.Sleep(removeRetryDelay)
	if err = os.Remove(path); err == nil || errors.Is(err, fs.ErrNotExist) {
		return
	}
	logger.Warn("temp file cleanup failed", slog.String("path", path), slog.String("error", err.Error()))
}
