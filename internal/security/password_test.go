package security_test

import (
	"strings"
	"testing"

	"github.com/geocoder89/jobtracker/internal/security"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCheck(t *testing.T) {
	h := security.NewHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if hash == "correct horse" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("hash does not look like bcrypt: %q", hash)
	}

	if err := h.Check(hash, "correct horse"); err != nil {
		t.Fatalf("Check with right password failed: %v", err)
	}

	if err := h.Check(hash, "wrong horse"); err == nil {
		t.Fatalf("Check with wrong password should fail")
	}
}

func TestHasher_SaltsEachHash(t *testing.T) {
	h := security.NewHasher(bcrypt.MinCost)

	a, _ := h.Hash("same")
	b, _ := h.Hash("same")

	if a == b {
		t.Fatalf("two hashes of the same password should differ")
	}
}

func TestNewHasher_OutOfRangeCostFallsBackToDefault(t *testing.T) {
	h := security.NewHasher(99)

	hash, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("Cost error: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}
