package security

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.Hash([]byte("placeholder-secret"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "placeholder-secret" {
		t.Error("Hash returned empty or plaintext value")
	}
	if err := h.Compare(hash, []byte("placeholder-secret")); err != nil {
		t.Errorf("Compare matching: %v", err)
	}
	if err := h.Compare(hash, []byte("wrong")); err == nil {
		t.Error("Compare should fail for wrong password")
	}
}

func TestNewHasher_CostClamping(t *testing.T) {
	testCases := []struct {
		name string
		cost int
		want int
	}{
		{"zero uses default", 0, bcrypt.DefaultCost},
		{"negative uses default", -1, bcrypt.DefaultCost},
		{"below min clamps", 2, bcrypt.MinCost},
		{"above max clamps", 99, bcrypt.MaxCost},
		{"valid passes through", 12, 12},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NewHasher(tc.cost).Cost; got != tc.want {
				t.Errorf("NewHasher(%d).Cost = %d, want %d", tc.cost, got, tc.want)
			}
		})
	}
}

func TestGeneratePassword(t *testing.T) {
	a, err := GeneratePassword()
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	b, err := GeneratePassword()
	if err != nil {
		t.Fatalf("GeneratePassword: %v", err)
	}
	if len(a) != 64 {
		t.Errorf("length: want 64 hex chars, got %d", len(a))
	}
	if a == b {
		t.Error("two generated passwords are identical")
	}
}
