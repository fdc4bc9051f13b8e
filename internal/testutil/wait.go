// Package testutil holds fixtures and helpers shared by catalogcore tests.
package testutil

import (
	"testing"
	"time"
)

// WaitTimeout bounds every wait in this package.
const WaitTimeout = 5 * time.Second

// WaitDone fails t when ch neither closes nor delivers within WaitTimeout.
func WaitDone(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	timer := time.NewTimer(WaitTimeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		t.Fatalf("timed out after %s waiting for %s", WaitTimeout, what)
	}
}
