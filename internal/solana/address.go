// Package solana provides address-level helpers for Solana contract addresses.
package solana

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// WSOLMint is the wrapped-SOL mint address.
const WSOLMint = "So11111111111111111111111111111111111111112"

// ValidAddress reports whether s decodes to a 32-byte Solana public key.
func ValidAddress(s string) bool {
	if s == "" {
		return false
	}
	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}

// IsOnCurve reports whether the address decodes to a point on the ed25519
// curve. Wallet addresses are on-curve; program-derived addresses (pool
// vaults, PDAs) are off-curve by construction.
func IsOnCurve(s string) bool {
	decoded, err := base58.Decode(s)
	if err != nil || len(decoded) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(decoded)
	return err == nil
}
