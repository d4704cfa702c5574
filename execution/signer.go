package execution

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Signer produces the authentication signature bound into each order
// envelope. It is a required capability of the execution engine and is
// always injected, never constructed internally, because it is the one
// component holding key material.
type Signer interface {
	// Sign returns a hex-encoded signature over the payload.
	Sign(payload []byte) (string, error)
	// Address returns the account address the signatures belong to.
	Address() string
}

// PrivateKeySigner signs with a secp256k1 private key: keccak256 over
// the payload, ECDSA signature, hex encoded.
type PrivateKeySigner struct {
	key     *ecdsa.PrivateKey
	address string
}

// NewPrivateKeySigner parses a hex private key, with or without the 0x
// prefix.
func NewPrivateKeySigner(hexKey string) (*PrivateKeySigner, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}

	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &PrivateKeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}, nil
}

func (s *PrivateKeySigner) Sign(payload []byte) (string, error) {
	hash := crypto.Keccak256Hash(payload)
	sig, err := crypto.Sign(hash.Bytes(), s.key)
	if err != nil {
		return "", fmt.Errorf("sign payload: %w", err)
	}
	return hex.EncodeToString(sig), nil
}

func (s *PrivateKeySigner) Address() string {
	return s.address
}
