//go:build windows

package daemon

import (
	"errors"
	"os"
)

func feedSignals() []os.Signal { return nil }

func signalFeed(int) error {
	return errors.New("feeding a running pet is not supported on windows")
}

func processAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}
