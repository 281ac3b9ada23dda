package password

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// Tests use MinCost: bcrypt at cost 12 is intentionally slow.
func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	return h
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)

	digest, err := h.Hash("Str0ng!Pass")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !h.Verify("Str0ng!Pass", digest) {
		t.Fatal("expected original password to verify")
	}
	if h.Verify("Str0ng!Past", digest) {
		t.Fatal("expected single-character mutation to fail")
	}
}

func TestVerifyMalformedDigestReturnsFalse(t *testing.T) {
	h := newTestHasher(t)

	for _, digest := range []string{"", "not-a-hash", "$argon2id$v=19$m=65536,t=3,p=2$abc$def"} {
		if h.Verify("anything", digest) {
			t.Fatalf("expected Verify to report false for digest %q", digest)
		}
	}
}

func TestNewHasherRejectsOutOfRangeCost(t *testing.T) {
	if _, err := NewHasher(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected out-of-range cost to fail")
	}
}

func TestNewHasherDefaultsCost(t *testing.T) {
	h, err := NewHasher(0)
	if err != nil {
		t.Fatalf("NewHasher(0) failed: %v", err)
	}
	if h.cost != DefaultCost {
		t.Fatalf("default cost = %d, want %d", h.cost, DefaultCost)
	}
}
