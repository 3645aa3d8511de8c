package util

import (
	"testing"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("info", false)
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}
	logger.Debug("suppressed at info level")
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	// Unknown levels fall back to info instead of failing startup.
	logger := NewLogger("chatty", false)
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}
}

func TestNewLoggerDevelopment(t *testing.T) {
	logger := NewLogger("info", true)
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}
	logger.Debug("visible in development mode")
}
