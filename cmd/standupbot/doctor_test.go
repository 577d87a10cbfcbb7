package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReachable(t *testing.T) {
	// POST-only servers answer probes with 405; that still counts as up
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	if !reachable(server.URL) {
		t.Error("expected running server to be reachable")
	}

	server.Close()
	if reachable(server.URL) {
		t.Error("expected closed server to be unreachable")
	}
}

func TestHasDevice(t *testing.T) {
	names := []string{"MacBook Pro Speakers", "BlackHole 2ch", "Multi-Output Device"}

	if !hasDevice(names, "Multi-Output Device") {
		t.Error("expected exact match to be found")
	}
	if hasDevice(names, "multi-output device") {
		t.Error("exact match must be case sensitive")
	}

	if !hasDeviceFold(names, "blackhole 2ch") {
		t.Error("expected case-insensitive match to be found")
	}
	if hasDeviceFold(names, "BlackHole 16ch") {
		t.Error("expected no match for a different device")
	}
}
