package relay

import (
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// defaultQueueCapacity is used when a queue is created with a capacity <= 0
const defaultQueueCapacity = 1024

// DefaultQueueCapacity returns the queue capacity used when none is given.
// It is read from the RELAY_QUEUE_SIZE environment variable and falls back
// to 1024.
func DefaultQueueCapacity() int {
	if value, exists := os.LookupEnv("RELAY_QUEUE_SIZE"); exists {
		if size, err := strconv.Atoi(value); err == nil && size > 0 {
			return size
		}
	}
	return defaultQueueCapacity
}

// isTestMode detects if we're running under go test
func isTestMode() bool {
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, "-test.") {
			return true
		}
	}

	if exe, err := os.Executable(); err == nil {
		if strings.HasSuffix(filepath.Base(exe), ".test") {
			return true
		}
	}

	return false
}

// targetMatches reports whether target lies in the subtree named by key.
// Targets are "/"-separated, so "app" matches "app" and "app/db" but not "apple".
func targetMatches(key, target string) bool {
	if !strings.HasPrefix(target, key) {
		return false
	}
	return len(target) == len(key) || target[len(key)] == '/'
}

// callerPackage extracts the package import path from a fully qualified
// function name such as "github.com/acme/app/db.(*Pool).Get". The linker
// escapes dots in the last path element ("gopkg.in/yaml%2ev3.Marshal"),
// so the first dot after the last slash ends the path.
func callerPackage(funcName string) string {
	lastSlash := strings.LastIndexByte(funcName, '/')
	if lastSlash < 0 {
		lastSlash = 0
	}
	pkg := funcName
	if dot := strings.IndexByte(funcName[lastSlash:], '.'); dot >= 0 {
		pkg = funcName[:lastSlash+dot]
	}
	if strings.IndexByte(pkg, '%') >= 0 {
		if unescaped, err := url.PathUnescape(pkg); err == nil {
			return unescaped
		}
	}
	return pkg
}

// frameSource resolves a program counter to the package, file and line of
// its frame.
func frameSource(pc uintptr) (module, file string, line int, ok bool) {
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if frame.File == "" {
		return "", "", 0, false
	}
	return callerPackage(frame.Function), frame.File, frame.Line, true
}
