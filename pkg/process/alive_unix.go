//go:build !windows

package process

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isAlive sends signal 0, which checks for existence without delivering a signal.
// EPERM means the process exists but belongs to another user.
func isAlive(pid int) (bool, error) {
	err := unix.Kill(pid, 0)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, unix.EPERM):
		return true, nil
	case errors.Is(err, unix.ESRCH):
		return false, nil
	default:
		return false, err
	}
}
