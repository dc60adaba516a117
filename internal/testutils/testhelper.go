// Package testutils carries small helpers shared by the package tests.
package testutils

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// TestHelper bundles a test with a logger whose output is captured instead
// of written to stderr, so failing tests can inspect what was logged.
type TestHelper struct {
	T      *testing.T
	Logger *logrus.Logger
	Hook   *test.Hook
}

// NewTestHelper creates a helper with a debug-level capturing logger.
func NewTestHelper(t *testing.T) *TestHelper {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return &TestHelper{
		T:      t,
		Logger: logger,
		Hook:   hook,
	}
}

// LastLogMessage returns the most recent log entry's message, or "" when
// nothing was logged.
func (h *TestHelper) LastLogMessage() string {
	if entry := h.Hook.LastEntry(); entry != nil {
		return entry.Message
	}
	return ""
}
