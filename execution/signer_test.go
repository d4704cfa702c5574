package execution

import (
	"encoding/hex"
	"testing"
)

// Well-known development key; safe to embed.
const devKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestNewPrivateKeySignerAddress(t *testing.T) {
	s, err := NewPrivateKeySigner(devKey)
	if err != nil {
		t.Fatalf("NewPrivateKeySigner failed: %v", err)
	}
	if s.Address() != "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266" {
		t.Errorf("address = %s", s.Address())
	}

	// The 0x prefix must be accepted.
	prefixed, err := NewPrivateKeySigner("0x" + devKey)
	if err != nil {
		t.Fatalf("prefixed key rejected: %v", err)
	}
	if prefixed.Address() != s.Address() {
		t.Error("prefixed and bare keys yield different addresses")
	}
}

func TestNewPrivateKeySignerRejectsBadInput(t *testing.T) {
	for _, key := range []string{"", "zznothex", "abcd"} {
		if _, err := NewPrivateKeySigner(key); err == nil {
			t.Errorf("key %q: expected an error", key)
		}
	}
}

func TestSignIsDeterministicHex(t *testing.T) {
	s, err := NewPrivateKeySigner(devKey)
	if err != nil {
		t.Fatalf("NewPrivateKeySigner failed: %v", err)
	}

	payload := []byte(`{"action":{"type":"order"},"nonce":1}`)
	sig1, err := s.Sign(payload)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	sig2, err := s.Sign(payload)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if sig1 != sig2 {
		t.Error("signatures over the same payload differ")
	}

	raw, err := hex.DecodeString(sig1)
	if err != nil {
		t.Fatalf("signature is not hex: %v", err)
	}
	// 64-byte r||s plus the recovery byte.
	if len(raw) != 65 {
		t.Errorf("signature length = %d, want 65", len(raw))
	}
}
