package main

import (
	"os"
	"testing"
)

func TestIsProcessRunning(t *testing.T) {
	// Our own process is running.
	if !isProcessRunning(os.Getpid()) {
		t.Error("expected own process to be detected as running")
	}

	// A very high PID is unlikely to exist.
	if isProcessRunning(999999999) {
		t.Error("expected invalid PID to be detected as not running")
	}
}
