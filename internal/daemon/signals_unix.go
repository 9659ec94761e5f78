//go:build !windows

package daemon

import (
	"os"
	"syscall"
)

func feedSignals() []os.Signal {
	return []os.Signal{syscall.SIGUSR1}
}

func signalFeed(pid int) error {
	return syscall.Kill(pid, syscall.SIGUSR1)
}

// processAlive sends signal 0, which checks existence without delivering
// anything.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}
