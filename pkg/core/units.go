package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EtherAddress is the sentinel asset identifier for the native settlement
// asset. It is the zero address, distinct from every deployed token address.
var EtherAddress = common.Address{}

// Decimals is the fixed-point precision of every amount in the system.
// All balances are integers scaled by 10^18.
const Decimals = 18

var unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// Tokens converts n whole token units to the smallest indivisible unit.
func Tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), unit)
}

// Ether converts n whole ether to wei. Same scale as Tokens; named for
// readability at call sites dealing with the settlement asset.
func Ether(n int64) *big.Int {
	return Tokens(n)
}

// CopyAmount returns a defensive copy of v, treating nil as zero.
// Ledger state must never be reachable through a caller-held big.Int.
func CopyAmount(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
