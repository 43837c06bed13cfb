//go:build unix

package storage

import (
	"golang.org/x/sys/unix"

	"arf/logger"
)

// tryFlock takes a best-effort, non-blocking advisory exclusive lock on fd,
// enforcing the single-writer shared-resource policy of spec.md section 5.
// It is not a durability mechanism: failure to lock is logged, not fatal,
// since cooperating processes on platforms without flock must still be
// able to open the log.
func tryFlock(fd int) {
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		logger.Warn("storage: could not acquire exclusive lock on log file: %v", err)
	}
}
