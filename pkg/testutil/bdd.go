package testutil

import "testing"

// Given names a subtest after the precondition it sets up.
func Given(t *testing.T, precondition string, fn func(t *testing.T)) bool {
	t.Helper()
	return t.Run("given "+precondition, fn)
}
