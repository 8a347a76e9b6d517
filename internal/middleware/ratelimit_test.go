package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(1, 2)

	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatal("Expected burst of 2 to be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Error("Expected third request to be limited")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("Expected another client to have its own bucket")
	}

	l.Cleanup(-time.Second)
	if len(l.visitors) != 0 {
		t.Errorf("Expected idle visitors to be removed, got %d", len(l.visitors))
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"127.0.0.1:5000", "127.0.0.1"},
		{"[::1]:80", "::1"},
		{"no-port", "no-port"},
	}
	for _, tt := range tests {
		if got := clientKey(tt.addr); got != tt.want {
			t.Errorf("clientKey(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}
