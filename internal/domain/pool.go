package domain

import (
	"bytes"
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// PoolKey identifies a liquidity pool on a venue: the sorted token pair plus the fee tier (zero on V2).
type PoolKey struct {
	Token0  common.Address
	Token1  common.Address
	FeeTier uint32
}

func NewPoolKey(tokenA, tokenB common.Address, feeTier uint32) PoolKey {
	t0, t1 := SortTokens(tokenA, tokenB)
	return PoolKey{Token0: t0, Token1: t1, FeeTier: feeTier}
}

// SortTokens orders a pair the way pair factories do (lower address first).
func SortTokens(a, b common.Address) (common.Address, common.Address) {
	if bytes.Compare(a.Bytes(), b.Bytes()) < 0 {
		return a, b
	}
	return b, a
}

// Address derives a deterministic pool address from the factory and key.
func (k PoolKey) Address(factory common.Address) common.Address {
	var fee [4]byte
	binary.BigEndian.PutUint32(fee[:], k.FeeTier)
	return common.BytesToAddress(crypto.Keccak256(factory.Bytes(), k.Token0.Bytes(), k.Token1.Bytes(), fee[:]))
}

type Pool struct {
	Address common.Address `json:"address"`
	Venue   VenueKind      `json:"venue"`
	Key     PoolKey        `json:"key"`
	// FeeBps is the V2 swap fee in basis points. V3 pools charge Key.FeeTier in hundredths of a bip.
	FeeBps uint16 `json:"feeBps,omitempty"`
	Active bool   `json:"active"`
}

// Reserves is a point-in-time view of the pool balances, ordered as the caller asked.
type Reserves struct {
	In  *uint256.Int
	Out *uint256.Int
}
