// Package process inspects operating system processes.
package process

import (
	"os"
	"syscall"
)

// IsProcessAlive reports whether a process with the given PID is running.
// Signal 0 probes for existence without delivering anything; EPERM still
// means the process exists.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = process.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}
