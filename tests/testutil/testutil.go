package testutil

import (
	"fmt"
	"os"
	"testing"
)

// EnsureTestEnvironment defaults GO_ENV to "test" and refuses any other value,
// so a stray DATABASE_URL never points a test run at real data.
func EnsureTestEnvironment() error {
	env := os.Getenv("GO_ENV")
	if env == "" {
		if err := os.Setenv("GO_ENV", "test"); err != nil {
			return fmt.Errorf("failed to set GO_ENV=test: %w", err)
		}
		return nil
	}
	if env != "test" {
		return fmt.Errorf("SAFETY CHECK FAILED: tests must run with GO_ENV=test (current %q)", env)
	}
	return nil
}

// RunTests is the body of a package TestMain.
func RunTests(m *testing.M) int {
	if err := EnsureTestEnvironment(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return m.Run()
}

// RequireTestEnvironment fails t unless GO_ENV is "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("tests must run with GO_ENV=test, current GO_ENV=%q", env)
	}
}
