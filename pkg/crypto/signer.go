// Package crypto supplies caller identity: secp256k1 key pairs whose
// Ethereum-style addresses are the user identities every ledger call is
// attributed to. Requests are signed off-process; the server only ever
// recovers addresses from signatures.
package crypto

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer holds a secp256k1 key pair and its derived address.
type Signer struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

// GenerateKey creates a Signer with a fresh random key.
func GenerateKey() (*Signer, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Signer{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// FromPrivateKeyHex creates a Signer from a 64-char hex private key,
// with or without the 0x prefix.
func FromPrivateKeyHex(hexKey string) (*Signer, error) {
	if len(hexKey) >= 2 && hexKey[:2] == "0x" {
		hexKey = hexKey[2:]
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Signer{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address returns the identity derived from the public key.
func (s *Signer) Address() common.Address { return s.addr }

// SignMessage hashes message with Keccak256 and signs the hash.
// The signature is 65 bytes, [R || S || V].
func (s *Signer) SignMessage(message []byte) ([]byte, error) {
	hash := crypto.Keccak256Hash(message)
	sig, err := crypto.Sign(hash.Bytes(), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	return sig, nil
}

// RecoverAddress returns the address that signed message (Keccak256-hashed
// before signing, as SignMessage does).
func RecoverAddress(message, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("invalid signature length: %d", len(sig))
	}
	hash := crypto.Keccak256Hash(message)
	pub, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySignature reports whether sig over message was produced by addr.
func VerifySignature(addr common.Address, message, sig []byte) bool {
	recovered, err := RecoverAddress(message, sig)
	if err != nil {
		return false
	}
	return recovered == addr
}
