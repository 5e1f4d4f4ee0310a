package ledger

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type Holding struct {
	Holder common.Address `json:"holder"`
	Shares *uint256.Int   `json:"shares"`
}

type Snapshot struct {
	Balances []Holding         `json:"balances"`
	Managers []common.Address `json:"managers"`
}

func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := Snapshot{Managers: l.caps.Holders(CapManager)}
	for holder, v := range l.balances {
		s.Balances = append(s.Balances, Holding{Holder: holder, Shares: v.Clone()})
	}
	return s
}

// Restore replaces balances and managers. Total supply is rebuilt as the sum of balances.
func (l *Ledger) Restore(s Snapshot) error {
	balances := make(map[common.Address]*uint256.Int, len(s.Balances))
	supply := new(uint256.Int)
	for _, h := range s.Balances {
		if h.Shares == nil || h.Shares.IsZero() {
			continue
		}
		if _, overflow := supply.AddOverflow(supply, h.Shares); overflow {
			return fmt.Errorf("restore ledger: supply overflow")
		}
		balances[h.Holder] = h.Shares.Clone()
	}

	l.mu.Lock()
	l.balances = balances
	l.totalSupply = supply
	l.mu.Unlock()

	for _, m := range l.caps.Holders(CapManager) {
		l.caps.set(m, CapManager, false)
	}
	for _, m := range s.Managers {
		l.caps.set(m, CapManager, true)
	}
	return nil
}
