// Package testing provides helpers for separating unit tests from tests
// that need external services.
package testing

import (
	"os"
	"testing"
)

// Unit returns true if running in unit test mode.
// Unit tests should be fast and not require external services.
// Integration mode must be requested explicitly with
// RELAY_RUN_INTEGRATION_TESTS=true; RELAY_UNIT_TESTS_ONLY=true always wins.
func Unit() bool {
	if os.Getenv("RELAY_UNIT_TESTS_ONLY") == "true" {
		return true
	}

	if os.Getenv("RELAY_RUN_INTEGRATION_TESTS") == "true" {
		return testing.Short()
	}

	return true
}

// Integration returns true if running in integration test mode.
// Integration tests may require external services like a NATS server or a
// syslog daemon.
func Integration() bool {
	return !Unit()
}

// SkipIfUnit skips the test if running in unit test mode.
func SkipIfUnit(t *testing.T, message ...string) {
	t.Helper()
	if Unit() {
		msg := "Skipping integration test in unit mode"
		if len(message) > 0 {
			msg = message[0]
		}
		t.Skip(msg)
	}
}

// RequireEnv returns the value of key, skipping the test when it is unset.
func RequireEnv(t *testing.T, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// NATSURL returns the NATS server URL for integration tests, skipping the
// test in unit mode or when RELAY_NATS_URL is unset.
func NATSURL(t *testing.T) string {
	t.Helper()
	SkipIfUnit(t, "Skipping NATS integration test in unit mode")
	return RequireEnv(t, "RELAY_NATS_URL")
}
