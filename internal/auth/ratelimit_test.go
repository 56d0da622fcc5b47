package auth

import (
	"errors"
	"testing"
)

func TestThrottlePerKey(t *testing.T) {
	th := NewThrottle(1, 2)

	if err := th.Allow("pat@acme.example"); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if err := th.Allow("pat@acme.example"); err != nil {
		t.Fatalf("second attempt within burst: %v", err)
	}
	if err := th.Allow("pat@acme.example"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// A different key has its own bucket.
	if err := th.Allow("sam@globex.example"); err != nil {
		t.Fatalf("independent key throttled: %v", err)
	}
}

func TestThrottleMultipleKeys(t *testing.T) {
	th := NewThrottle(1, 1)

	if err := th.Allow("pat@acme.example", "10.0.0.1"); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	// Same source IP, different principal: the shared IP bucket trips.
	if err := th.Allow("sam@acme.example", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on shared source, got %v", err)
	}
}
