package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type BalanceRecord struct {
	Token  common.Address `json:"token"`
	Holder common.Address `json:"holder"`
	Amount *uint256.Int   `json:"amount"`
}

type AllowanceRecord struct {
	Token   common.Address `json:"token"`
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
	Amount  *uint256.Int   `json:"amount"`
}

// Snapshot is the persisted form of the bank.
type Snapshot struct {
	Tokens     []Metadata        `json:"tokens"`
	Balances   []BalanceRecord   `json:"balances"`
	Allowances []AllowanceRecord `json:"allowances"`
}

// Snapshot copies the bank state. Callers hold the chain exclusively so the copy is consistent.
func (b *Bank) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := Snapshot{}
	for _, m := range b.tokens {
		s.Tokens = append(s.Tokens, m)
	}
	for token, holders := range b.balances {
		for holder, amt := range holders {
			if amt.IsZero() {
				continue
			}
			s.Balances = append(s.Balances, BalanceRecord{Token: token, Holder: holder, Amount: amt.Clone()})
		}
	}
	for k, amt := range b.allowances {
		if amt.IsZero() {
			continue
		}
		s.Allowances = append(s.Allowances, AllowanceRecord{Token: k.token, Owner: k.owner, Spender: k.spender, Amount: amt.Clone()})
	}
	return s
}

// Restore replaces the bank state with s. Supplies are recomputed from balances.
func (b *Bank) Restore(s Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tokens := make(map[common.Address]Metadata, len(s.Tokens))
	balances := make(map[common.Address]map[common.Address]*uint256.Int, len(s.Tokens))
	supplies := make(map[common.Address]*uint256.Int, len(s.Tokens))
	for _, m := range s.Tokens {
		tokens[m.Address] = m
		balances[m.Address] = make(map[common.Address]*uint256.Int)
		supplies[m.Address] = new(uint256.Int)
	}
	for _, r := range s.Balances {
		if _, ok := tokens[r.Token]; !ok || r.Amount == nil {
			return fmt.Errorf("restore balance: unknown token %s", r.Token.Hex())
		}
		balances[r.Token][r.Holder] = r.Amount.Clone()
		if _, overflow := supplies[r.Token].AddOverflow(supplies[r.Token], r.Amount); overflow {
			return fmt.Errorf("restore balance: supply overflow for %s", r.Token.Hex())
		}
	}
	allowances := make(map[allowanceKey]*uint256.Int, len(s.Allowances))
	for _, r := range s.Allowances {
		if r.Amount == nil {
			continue
		}
		allowances[allowanceKey{r.Token, r.Owner, r.Spender}] = r.Amount.Clone()
	}

	b.tokens, b.balances, b.supplies, b.allowances = tokens, balances, supplies, allowances
	return nil
}
