package formatters

import (
	"os"
	"path/filepath"
)

var (
	hostname    string
	processName string
)

func init() {
	// Cache values that don't change
	hostname, _ = os.Hostname()
	if len(os.Args) > 0 {
		processName = filepath.Base(os.Args[0])
	}
}

// getHostname returns the cached hostname
func getHostname() string {
	return hostname
}

// getPID returns the current process ID
func getPID() int {
	return os.Getpid()
}

// getProcessName returns the cached process name
func getProcessName() string {
	return processName
}
