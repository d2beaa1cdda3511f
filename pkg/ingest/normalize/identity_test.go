package normalize

import (
	"strings"
	"testing"
)

func TestContentFingerprintDeterministic(t *testing.T) {
	fp := ContentFingerprint{}

	a := fp.DeriveID(7, "the app is great")
	b := fp.DeriveID(7, "the app is great")
	if a != b {
		t.Errorf("same input produced different ids: %s vs %s", a, b)
	}
}

func TestContentFingerprintScopedByBank(t *testing.T) {
	fp := ContentFingerprint{}

	a := fp.DeriveID(1, "the app is great")
	b := fp.DeriveID(2, "the app is great")
	if a == b {
		t.Error("same text under different banks must not collide")
	}
}

func TestContentFingerprintFormat(t *testing.T) {
	fp := ContentFingerprint{}

	id := fp.DeriveID(42, "hello")
	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 {
		t.Fatalf("expected <bank>-<hash> format, got %s", id)
	}
	if parts[0] != "42" {
		t.Errorf("expected bank prefix 42, got %s", parts[0])
	}
	if len(parts[1]) != 16 {
		t.Errorf("expected 16 hex chars, got %d in %s", len(parts[1]), id)
	}
}
