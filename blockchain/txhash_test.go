package blockchain

import (
	"regexp"
	"testing"
)

func TestSyntheticTxHash(t *testing.T) {
	hashRe := regexp.MustCompile(`^0x[0-9a-f]{64}$`)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		h := SyntheticTxHash()
		if !hashRe.MatchString(h) {
			t.Fatalf("synthetic hash %q is not a 0x-prefixed 64 hex char string", h)
		}
		if seen[h] {
			t.Fatalf("synthetic hash %q repeated", h)
		}
		seen[h] = true
	}
}

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		address string
		valid   bool
	}{
		{"0x1234567890abcdef1234567890abcdef12345678", true},
		{"0xABCDEF1234567890abcdef1234567890ABCDEF12", true},
		{"1234567890abcdef1234567890abcdef12345678", true},
		{"0x12345", false},
		{"not-an-address", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidAddress(tt.address); got != tt.valid {
			t.Errorf("IsValidAddress(%q): want %v, got %v", tt.address, tt.valid, got)
		}
	}
}
